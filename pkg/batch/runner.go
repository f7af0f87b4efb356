package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dixieflatline76/Retouch/pkg/transformer"
	"github.com/dixieflatline76/Retouch/util"
	"github.com/dixieflatline76/Retouch/util/log"
	"golang.org/x/time/rate"
)

// runner drives a single batch run to completion. Tasks are processed one at
// a time in selection order; a failed task never stops the run. Cancellation
// is cooperative and takes effect between tasks.
type runner struct {
	cfg       *Config
	store     *RunStore
	fm        *FileManager
	processor ImageProcessor
	backend   transformer.Transformer
	interrupt *util.SafeFlag
	limiter   *rate.Limiter

	// Testing hook
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func newRunner(cfg *Config, store *RunStore, fm *FileManager, processor ImageProcessor, backend transformer.Transformer, interrupt *util.SafeFlag) *runner {
	return &runner{
		cfg:       cfg,
		store:     store,
		fm:        fm,
		processor: processor,
		backend:   backend,
		interrupt: interrupt,
		limiter:   rate.NewLimiter(rate.Every(cfg.GetAPITier().Delay()), 1),
		sleepFunc: sleepCtx,
	}
}

// Run executes every task of the current run in order and returns the
// terminal run status. The store broadcasts an update after each transition,
// so observers see progress as it happens.
func (r *runner) Run(ctx context.Context) (RunStatus, error) {
	run, ok := r.store.Current()
	if !ok {
		return RunIdle, errors.New("no run to execute")
	}

	status := RunCompleted
	for _, task := range run.Tasks {
		if r.interrupted(ctx) {
			status = RunCancelled
			break
		}
		r.processTask(ctx, task)
	}

	if err := r.store.Finish(status); err != nil {
		return status, err
	}

	succeeded, failed, pending, _ := r.store.Counts()
	log.Printf("Run %s: %d retouched, %d failed, %d pending", status, succeeded, failed, pending)
	return status, nil
}

// interrupted reports whether the run should stop before the next task.
func (r *runner) interrupted(ctx context.Context) bool {
	return r.interrupt.Value() || ctx.Err() != nil
}

// processTask takes one image through prepare, transform and save. Every exit
// path leaves the task in a terminal state, except a hard cancel mid-flight
// which puts it back to Pending so the run reports it as never attempted.
func (r *runner) processTask(ctx context.Context, task Task) {
	outputPath, err := r.fm.OutputPathFor(task.SourcePath)
	if err != nil {
		r.store.MarkTaskFailed(task.ID, err.Error())
		return
	}

	if r.cfg.GetSkipExisting() && r.fm.OutputExists(task.SourcePath) {
		log.Debugf("Skipping %s, output already exists", filepath.Base(task.SourcePath))
		r.store.MarkTaskSucceeded(task.ID, outputPath, true)
		return
	}

	r.store.MarkTaskRunning(task.ID)

	imgBytes, err := os.ReadFile(task.SourcePath)
	if err != nil {
		r.store.MarkTaskFailed(task.ID, fmt.Sprintf("failed to read image: %v", err))
		return
	}

	upload, mimeType, err := r.processor.PrepareUpload(ctx, imgBytes, r.cfg.GetMaxUploadSize().Pixels())
	if err != nil {
		r.taskFailed(ctx, task.ID, fmt.Sprintf("failed to prepare image: %v", err))
		return
	}

	result, err := r.transformWithRetry(ctx, task, upload, mimeType)
	if err != nil {
		r.taskFailed(ctx, task.ID, err.Error())
		return
	}

	savedPath, err := r.saveResult(ctx, task.SourcePath, result)
	if err != nil {
		r.taskFailed(ctx, task.ID, err.Error())
		return
	}

	r.store.MarkTaskSucceeded(task.ID, savedPath, false)
}

// taskFailed records a failure, unless the context was cancelled, in which
// case the task reverts to Pending.
func (r *runner) taskFailed(ctx context.Context, taskID int, msg string) {
	if ctx.Err() != nil {
		r.store.MarkTaskPending(taskID)
		return
	}
	r.store.MarkTaskFailed(taskID, msg)
}

// transformWithRetry performs the API call for one task, pacing calls to the
// configured tier. Throttled calls are retried with exponential backoff when
// auto retry is enabled; all other failures surface immediately.
func (r *runner) transformWithRetry(ctx context.Context, task Task, image []byte, mimeType string) (*transformer.Result, error) {
	req := transformer.Request{
		Image:    image,
		MIMEType: mimeType,
		Prompt:   task.PromptText,
		Timeout:  TransformRequestTimeout,
	}

	maxAttempts := 1
	if r.cfg.GetAutoRetry() {
		maxAttempts = MaxTransformRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if attempt > 1 {
			r.store.IncrementTaskAttempt(task.ID)
		}

		result, err := r.backend.Transform(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !transformer.IsRateLimit(err) || attempt == maxAttempts {
			return nil, err
		}

		delay := RetryBaseDelay * (1 << (attempt - 1))
		log.Printf("Rate limited on %s, retrying in %v (attempt %d/%d)", filepath.Base(task.SourcePath), delay, attempt, maxAttempts)
		if err := r.sleepFunc(ctx, delay); err != nil {
			return nil, lastErr
		}
		if r.interrupt.Value() {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// saveResult writes the transformed image next to its source, transcoding to
// JPEG when the model answered in another format.
func (r *runner) saveResult(ctx context.Context, sourcePath string, result *transformer.Result) (string, error) {
	data := result.Image
	if result.MIMEType != "image/jpeg" {
		img, _, err := r.processor.DecodeImage(ctx, data, result.MIMEType)
		if err != nil {
			return "", fmt.Errorf("failed to decode result image: %w", err)
		}
		data, err = r.processor.EncodeImage(ctx, img, "image/jpeg")
		if err != nil {
			return "", fmt.Errorf("failed to encode result image: %w", err)
		}
	}

	savedPath, err := r.fm.SaveOutput(sourcePath, data)
	if err != nil {
		return "", fmt.Errorf("failed to save output: %w", err)
	}
	if w, h, err := r.fm.GetDimensions(savedPath); err == nil {
		log.Debugf("Saved %dx%d output to %s", w, h, filepath.Base(savedPath))
	}
	return savedPath, nil
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
