package batch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dixieflatline76/Retouch/pkg/transformer"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

// fakeBackend scripts Transform responses and records every call.
type fakeBackend struct {
	mu    sync.Mutex
	calls []transformer.Request
	fn    func(req transformer.Request) (*transformer.Result, error)
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Transform(ctx context.Context, req transformer.Request) (*transformer.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type runnerHarness struct {
	cfg       *Config
	store     *RunStore
	fm        *FileManager
	backend   *fakeBackend
	interrupt *util.SafeFlag
	r         *runner
	srcDir    string
	delays    []time.Duration
}

func newRunnerHarness(t *testing.T) *runnerHarness {
	t.Helper()
	ResetConfig()
	t.Cleanup(ResetConfig)

	srcDir := filepath.Join(t.TempDir(), "photos")
	assert.NoError(t, os.MkdirAll(srcDir, 0755))

	h := &runnerHarness{
		cfg:       GetConfig(NewMockPreferences()),
		store:     NewRunStore(),
		backend:   &fakeBackend{},
		interrupt: util.NewSafeBoolWithValue(false),
		srcDir:    srcDir,
	}
	h.fm = NewFileManager(srcDir)
	h.r = newRunner(h.cfg, h.store, h.fm, NewSmartImageProcessor(nil), h.backend, h.interrupt)

	// Tests must not wait out real tier pacing or retry backoff
	h.r.limiter = rate.NewLimiter(rate.Inf, 0)
	h.r.sleepFunc = func(ctx context.Context, d time.Duration) error {
		h.delays = append(h.delays, d)
		return nil
	}
	return h
}

func encodeTestPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	assert.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// addImage writes a distinct tiny PNG so the fake backend can tell sources
// apart by their bytes.
func (h *runnerHarness) addImage(t *testing.T, name string, c color.Color) []byte {
	t.Helper()
	data := encodeTestPNG(t, c)
	assert.NoError(t, os.WriteFile(filepath.Join(h.srcDir, name), data, 0644))
	return data
}

func (h *runnerHarness) begin(t *testing.T, prompt string, names ...string) {
	t.Helper()
	tasks := make([]Task, len(names))
	for i, n := range names {
		tasks[i] = Task{SourcePath: filepath.Join(h.srcDir, n), PromptText: prompt}
	}
	assert.NoError(t, h.store.Begin(Run{
		ID:         "run-test",
		FolderPath: h.srcDir,
		PromptName: "default",
		Tasks:      tasks,
	}))
}

func TestRunnerRateLimitedItemDoesNotAbortRun(t *testing.T) {
	h := newRunnerHarness(t)
	aBytes := h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	h.addImage(t, "b.jpg", color.RGBA{B: 255, A: 255})
	modelOutput := encodeTestPNG(t, color.RGBA{G: 255, A: 255})

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		if bytes.Equal(req.Image, aBytes) {
			return &transformer.Result{Image: modelOutput, MIMEType: "image/png"}, nil
		}
		return nil, &transformer.RateLimitError{Reason: "quota exceeded"}
	}

	h.begin(t, "remove the sky", "a.jpg", "b.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, ok := h.store.Current()
	assert.True(t, ok)
	a, b := run.Tasks[0], run.Tasks[1]

	// a.jpg was retouched and written as a_out.jpg
	assert.Equal(t, TaskSucceeded, a.Status)
	wantOut := filepath.Join(h.fm.OutputDir(), "a_out.jpg")
	assert.Equal(t, wantOut, a.OutputPath)
	f, err := os.Open(wantOut)
	assert.NoError(t, err)
	defer f.Close()
	_, format, err := image.DecodeConfig(f)
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format, "PNG results are transcoded to JPEG on save")

	// b.jpg exhausted its retries and failed, without stopping the run
	assert.Equal(t, TaskFailed, b.Status)
	assert.Contains(t, b.ErrMessage, "rate limit")
	assert.Equal(t, MaxTransformRetries, b.Attempts)

	// One call for a, one per attempt for b, in selection order
	assert.Equal(t, 1+MaxTransformRetries, h.backend.callCount())
	assert.True(t, bytes.Equal(h.backend.calls[0].Image, aBytes))
	assert.Equal(t, "remove the sky", h.backend.calls[0].Prompt)
	assert.Equal(t, "image/png", h.backend.calls[0].MIMEType)
	assert.Equal(t, TransformRequestTimeout, h.backend.calls[0].Timeout)

	// Backoff doubles between attempts
	assert.Equal(t, []time.Duration{RetryBaseDelay, 2 * RetryBaseDelay}, h.delays)
}

func TestRunnerFailedTaskDoesNotStopFollowers(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	badBytes := h.addImage(t, "bad.jpg", color.RGBA{R: 128, A: 255})
	h.addImage(t, "c.jpg", color.RGBA{B: 255, A: 255})
	modelOutput := encodeTestPNG(t, color.RGBA{G: 255, A: 255})

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		if bytes.Equal(req.Image, badBytes) {
			return nil, &transformer.AuthError{Reason: "API key not valid"}
		}
		return &transformer.Result{Image: modelOutput, MIMEType: "image/png"}, nil
	}

	h.begin(t, "remove the sky", "a.jpg", "bad.jpg", "c.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskSucceeded, run.Tasks[0].Status)
	assert.Equal(t, TaskFailed, run.Tasks[1].Status)
	assert.Contains(t, run.Tasks[1].ErrMessage, "authentication failed")
	assert.Equal(t, TaskSucceeded, run.Tasks[2].Status)

	// Auth failures are not retried
	assert.Equal(t, 3, h.backend.callCount())
	assert.Empty(t, h.delays)
}

func TestRunnerCancelBetweenTasks(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	h.addImage(t, "b.jpg", color.RGBA{G: 255, A: 255})
	h.addImage(t, "c.jpg", color.RGBA{B: 255, A: 255})
	modelOutput := encodeTestPNG(t, color.RGBA{A: 255})

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		// User hits cancel while the first image is in flight
		h.interrupt.Set(true)
		return &transformer.Result{Image: modelOutput, MIMEType: "image/png"}, nil
	}

	h.begin(t, "remove the sky", "a.jpg", "b.jpg", "c.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCancelled, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskSucceeded, run.Tasks[0].Status, "in-flight task finishes its attempt")
	assert.Equal(t, TaskPending, run.Tasks[1].Status)
	assert.Equal(t, TaskPending, run.Tasks[2].Status)
	assert.Equal(t, 1, h.backend.callCount())
}

func TestRunnerHardCancelRevertsInFlightTask(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	h.addImage(t, "b.jpg", color.RGBA{G: 255, A: 255})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		cancel()
		return nil, context.Canceled
	}

	h.begin(t, "remove the sky", "a.jpg", "b.jpg")
	status, err := h.r.Run(ctx)
	assert.NoError(t, err)
	assert.Equal(t, RunCancelled, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskPending, run.Tasks[0].Status, "killed attempt reads as never run")
	assert.Empty(t, run.Tasks[0].ErrMessage)
	assert.Equal(t, TaskPending, run.Tasks[1].Status)
	assert.Equal(t, 1, h.backend.callCount())
}

func TestRunnerSkipsExistingOutput(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})

	assert.NoError(t, h.fm.EnsureDirs())
	existing := filepath.Join(h.fm.OutputDir(), "a_out.jpg")
	assert.NoError(t, os.WriteFile(existing, []byte("already retouched"), 0644))

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		t.Fatal("skipped task must not reach the backend")
		return nil, nil
	}

	h.begin(t, "remove the sky", "a.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskSucceeded, run.Tasks[0].Status)
	assert.True(t, run.Tasks[0].Skipped)
	assert.Equal(t, existing, run.Tasks[0].OutputPath)
	assert.Equal(t, 0, h.backend.callCount())
}

func TestRunnerAutoRetryDisabled(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	h.cfg.SetAutoRetry(false)

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		return nil, &transformer.RateLimitError{Reason: "quota exceeded"}
	}

	h.begin(t, "remove the sky", "a.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskFailed, run.Tasks[0].Status)
	assert.Equal(t, 1, run.Tasks[0].Attempts)
	assert.Equal(t, 1, h.backend.callCount())
	assert.Empty(t, h.delays)
}

func TestRunnerUnreadableSourceFails(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})
	modelOutput := encodeTestPNG(t, color.RGBA{G: 255, A: 255})

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		return &transformer.Result{Image: modelOutput, MIMEType: "image/png"}, nil
	}

	// missing.jpg was deleted between selection and processing
	h.begin(t, "remove the sky", "missing.jpg", "a.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, _ := h.store.Current()
	assert.Equal(t, TaskFailed, run.Tasks[0].Status)
	assert.Contains(t, run.Tasks[0].ErrMessage, "failed to read image")
	assert.Equal(t, TaskSucceeded, run.Tasks[1].Status)
	assert.Equal(t, 1, h.backend.callCount())
}

func TestRunnerJPEGResultSavedVerbatim(t *testing.T) {
	h := newRunnerHarness(t)
	h.addImage(t, "a.jpg", color.RGBA{R: 255, A: 255})

	// The model answered in JPEG already, no transcode should happen
	src := encodeTestPNG(t, color.RGBA{G: 255, A: 255})
	img, _, err := image.Decode(bytes.NewReader(src))
	assert.NoError(t, err)
	var buf bytes.Buffer
	assert.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: OutputJPEGQuality}))
	jpegOutput := buf.Bytes()

	h.backend.fn = func(req transformer.Request) (*transformer.Result, error) {
		return &transformer.Result{Image: jpegOutput, MIMEType: "image/jpeg"}, nil
	}

	h.begin(t, "remove the sky", "a.jpg")
	status, err := h.r.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, RunCompleted, status)

	run, _ := h.store.Current()
	saved, err := os.ReadFile(run.Tasks[0].OutputPath)
	assert.NoError(t, err)
	assert.Equal(t, jpegOutput, saved)
}
