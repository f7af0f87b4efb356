package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/pkg/transformer"
	"github.com/dixieflatline76/Retouch/pkg/transformer/gemini"
	"github.com/dixieflatline76/Retouch/pkg/ui"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/dixieflatline76/Retouch/util/log"
	"github.com/google/uuid"
)

// ErrNoAPIKey is returned when a run is requested without a configured key.
var ErrNoAPIKey = errors.New("no Gemini API key configured")

// ImageProcessor interface defines the image processing operations.
type ImageProcessor interface {
	DecodeImage(ctx context.Context, imgBytes []byte, contentType string) (image.Image, string, error)
	EncodeImage(ctx context.Context, img image.Image, contentType string) ([]byte, error)
	PrepareUpload(ctx context.Context, imgBytes []byte, maxEdge int) ([]byte, string, error)
	Thumbnail(ctx context.Context, img image.Image, size int) (image.Image, error)
}

// TransformerFactory builds the API backend used for a run.
type TransformerFactory func(name string, cfg transformer.Config) (transformer.Transformer, error)

// Plugin is the main struct for the batch retouch plugin.
type Plugin struct {
	imgProcessor   ImageProcessor
	cfg            *Config
	manager        ui.PluginManager
	store          *RunStore
	interrupt      *util.SafeFlag
	newTransformer TransformerFactory

	runMutex     sync.Mutex
	cancel       context.CancelFunc
	runWaitGroup *sync.WaitGroup

	runMenuItem    *fyne.MenuItem
	cancelMenuItem *fyne.MenuItem
	mainWindow     fyne.Window
	refreshList    func()

	thumbMutex sync.Mutex
	thumbs     map[string]image.Image
}

var (
	bpInstance *Plugin
	bpOnce     sync.Once
)

// getPlugin returns the singleton instance of the batch plugin.
func getPlugin() *Plugin {
	bpOnce.Do(func() {
		bpInstance = &Plugin{
			imgProcessor:   NewSmartImageProcessor(LoadFaceClassifier()),
			cfg:            nil, // Will be set in Init
			store:          NewRunStore(),
			interrupt:      util.NewSafeBoolWithValue(false),
			newTransformer: transformer.New,
			thumbs:         map[string]image.Image{},
		}
	})
	return bpInstance
}

// Init initializes the batch plugin with the given PluginManager.
func (bp *Plugin) Init(manager ui.PluginManager) {
	bp.manager = manager
	bp.cfg = GetConfig(manager.GetPreferences())
	bp.store.SetHistoryPath(filepath.Join(config.GetPath(), "last_run.json"))

	log.Debugf("Batch Plugin Initialized. Config: Tier=%s, Model=%s, AutoRetry=%v", bp.cfg.GetAPITier(), bp.cfg.GetModel(), bp.cfg.GetAutoRetry())
}

// Name returns the name of the plugin.
func (bp *Plugin) Name() string {
	return "Batch"
}

// Store exposes the run store for observers such as the monitor API.
func (bp *Plugin) Store() *RunStore {
	return bp.store
}

// Config exposes the plugin configuration.
func (bp *Plugin) Config() *Config {
	return bp.cfg
}

// StartRunForFolder scans a folder and launches a run over every processable
// image in it, in case-insensitive name order.
func (bp *Plugin) StartRunForFolder(folder string) error {
	paths, err := ScanFolder(context.Background(), folder)
	if err != nil {
		return err
	}
	return bp.StartRunWithPaths(folder, paths)
}

// StartRunWithPaths launches a run over an explicit ordered selection of
// image paths. It returns without starting anything when the selection is
// empty, no API key is configured, or a run is already active.
func (bp *Plugin) StartRunWithPaths(folder string, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no processable images in %s", folder)
	}
	if !bp.cfg.HasAPIKey() {
		return ErrNoAPIKey
	}

	prompt, err := bp.cfg.GetActivePrompt()
	if err != nil {
		return err
	}
	promptText := bp.cfg.RenderPrompt(prompt, nil)

	backend, err := bp.newTransformer(gemini.Name, transformer.Config{
		APIKey:  bp.cfg.GetAPIKey(),
		Model:   bp.cfg.GetModel(),
		Timeout: TransformRequestTimeout,
	})
	if err != nil {
		return err
	}

	err = bp.store.Begin(Run{
		ID:         uuid.NewString(),
		FolderPath: folder,
		PromptName: prompt.Name,
		Tasks:      tasksForPaths(paths, promptText),
	})
	if err != nil {
		return err
	}

	bp.cfg.SetLastFolder(folder)
	bp.interrupt.Set(false)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	bp.runMutex.Lock()
	bp.cancel = cancel
	bp.runWaitGroup = wg
	bp.runMutex.Unlock()

	r := newRunner(bp.cfg, bp.store, NewFileManager(folder), bp.imgProcessor, backend, bp.interrupt)

	log.Printf("Starting batch run over %d images in %s with prompt '%s'", len(paths), folder, prompt.Name)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		status, err := r.Run(ctx)
		if err != nil {
			log.Printf("Batch run ended with error: %v", err)
		}
		bp.notifyRunFinished(status)

		bp.runMutex.Lock()
		bp.cancel = nil
		bp.runWaitGroup = nil
		bp.runMutex.Unlock()
	}()
	return nil
}

func tasksForPaths(paths []string, promptText string) []Task {
	tasks := make([]Task, len(paths))
	for i, p := range paths {
		tasks[i] = Task{SourcePath: p, PromptText: promptText}
	}
	return tasks
}

// CancelRun requests a cooperative stop. The in-flight image finishes its
// attempt; everything after it stays Pending.
func (bp *Plugin) CancelRun() {
	if bp.store.Status() != RunRunning {
		return
	}
	log.Print("Cancelling batch run...")
	bp.interrupt.Set(true)
}

// stopAllWorkers stops the active run and blocks until the worker has
// exited. The in-flight request gets CancelGracePeriod to finish before the
// context is cut.
func (bp *Plugin) stopAllWorkers() {
	log.Print("Stopping all workers...")
	bp.interrupt.Set(true)

	bp.runMutex.Lock()
	cancel := bp.cancel
	wg := bp.runWaitGroup
	bp.runMutex.Unlock()

	if wg == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(CancelGracePeriod):
		if cancel != nil {
			log.Print("Grace period expired, cancelling in-flight request...")
			cancel()
		}
		<-done
	}
	log.Print("All running workers stopped.")
}

// notifyRunFinished surfaces the run summary to the user.
func (bp *Plugin) notifyRunFinished(status RunStatus) {
	succeeded, failed, pending, _ := bp.store.Counts()

	var title, message string
	switch status {
	case RunCancelled:
		title = "Batch cancelled"
		message = fmt.Sprintf("%d retouched, %d failed, %d not started", succeeded, failed, pending)
	default:
		title = "Batch complete"
		if failed > 0 {
			message = fmt.Sprintf("%d retouched, %d failed", succeeded, failed)
		} else {
			message = fmt.Sprintf("%d images retouched", succeeded)
		}
	}

	if bp.manager != nil {
		bp.manager.NotifyUser(title, message)
		bp.manager.RefreshTrayMenu()
	}
}

// Activate starts the plugin. The last finished run is restored into the
// view, and a missing API key is surfaced right away so the user knows runs
// are blocked.
func (bp *Plugin) Activate() {
	if last, err := bp.store.LoadHistory(); err == nil {
		log.Debugf("Restoring previous run %s (%s)", last.ID, last.Status)
		if err := bp.store.Restore(last); err != nil {
			log.Printf("Failed to restore previous run: %v", err)
		}
	}
	if !bp.cfg.HasAPIKey() {
		bp.showMissingKeyNotice()
	}
}

// Deactivate stops the plugin and any run in flight.
func (bp *Plugin) Deactivate() {
	bp.stopAllWorkers()
}

// GetInstance returns the singleton instance of the batch plugin.
func GetInstance() *Plugin {
	return getPlugin()
}

// LoadPlugin registers the batch plugin with the plugin manager.
func LoadPlugin(pm ui.PluginManager) {
	pm.Register(getPlugin())
}
