package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dixieflatline76/Retouch/util/log"
)

// ErrRunActive is returned when a new run is requested while one is running.
var ErrRunActive = errors.New("a batch run is already active")

// Task tracks one image through a batch run.
type Task struct {
	ID         int        `json:"id"`
	SourcePath string     `json:"source_path"`
	PromptText string     `json:"prompt_text"`
	Status     TaskStatus `json:"status"`
	ErrMessage string     `json:"error_message,omitempty"`
	OutputPath string     `json:"output_path,omitempty"`
	Attempts   int        `json:"attempts"`
	Skipped    bool       `json:"skipped,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// Run is one batch execution over a folder of images.
type Run struct {
	ID         string    `json:"id"`
	FolderPath string    `json:"folder_path"`
	PromptName string    `json:"prompt_name"`
	Status     RunStatus `json:"status"`
	Tasks      []Task    `json:"tasks"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunStore is thread-safe storage for the current batch run. At most one run
// is active at a time; a finished run stays readable until the next begins.
type RunStore struct {
	mu       sync.RWMutex
	run      *Run
	updateCh chan struct{}

	historyPath string

	// Testing hook
	saveFunc func()
}

// NewRunStore creates an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{
		updateCh: make(chan struct{}),
	}
}

// SetHistoryPath sets the file finished runs are persisted to.
func (s *RunStore) SetHistoryPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyPath = path
}

// notifyUpdateLocked signals that the store has been updated.
// CALLER MUST HOLD s.mu.Lock()
func (s *RunStore) notifyUpdateLocked() {
	// Close the current channel to broadcast to all waiters
	select {
	case <-s.updateCh:
		// Already closed, do nothing (shouldn't happen if we strictly renew)
	default:
		close(s.updateCh)
		// Immediately create a fresh channel for future waiters
		s.updateCh = make(chan struct{})
	}
}

// GetUpdateChannel returns a channel that signals when the run state changes.
func (s *RunStore) GetUpdateChannel() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updateCh
}

// Begin installs a new run in the Running state. It fails with ErrRunActive
// if a run is still in flight.
func (s *RunStore) Begin(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil && s.run.Status == RunRunning {
		return ErrRunActive
	}

	run.Status = RunRunning
	run.StartedAt = time.Now()
	for i := range run.Tasks {
		run.Tasks[i].ID = i
		run.Tasks[i].Status = TaskPending
	}
	s.run = &run
	s.notifyUpdateLocked()
	return nil
}

// Current returns a snapshot of the run, or false when none has started.
func (s *RunStore) Current() (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return Run{}, false
	}
	return s.snapshotLocked(), true
}

// snapshotLocked deep-copies the run so callers never share task slices.
// CALLER MUST HOLD s.mu (read or write).
func (s *RunStore) snapshotLocked() Run {
	run := *s.run
	run.Tasks = make([]Task, len(s.run.Tasks))
	copy(run.Tasks, s.run.Tasks)
	return run
}

// Status returns the overall run status, RunIdle when no run has started.
func (s *RunStore) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return RunIdle
	}
	return s.run.Status
}

// findTaskLocked returns a pointer into the live task slice.
// CALLER MUST HOLD s.mu.Lock()
func (s *RunStore) findTaskLocked(taskID int) (*Task, error) {
	if s.run == nil {
		return nil, errors.New("no active run")
	}
	if taskID < 0 || taskID >= len(s.run.Tasks) {
		return nil, fmt.Errorf("task %d not found", taskID)
	}
	return &s.run.Tasks[taskID], nil
}

// MarkTaskRunning transitions a task to Running and counts the attempt.
func (s *RunStore) MarkTaskRunning(taskID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTaskLocked(taskID)
	if err != nil {
		return err
	}
	task.Status = TaskRunning
	task.Attempts++
	if task.StartedAt.IsZero() {
		task.StartedAt = time.Now()
	}
	s.notifyUpdateLocked()
	return nil
}

// IncrementTaskAttempt counts a retry of a task that stays in flight.
func (s *RunStore) IncrementTaskAttempt(taskID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTaskLocked(taskID)
	if err != nil {
		return err
	}
	task.Attempts++
	s.notifyUpdateLocked()
	return nil
}

// MarkTaskSucceeded transitions a task to Succeeded and records its output.
func (s *RunStore) MarkTaskSucceeded(taskID int, outputPath string, skipped bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTaskLocked(taskID)
	if err != nil {
		return err
	}
	task.Status = TaskSucceeded
	task.OutputPath = outputPath
	task.ErrMessage = ""
	task.Skipped = skipped
	task.FinishedAt = time.Now()
	s.notifyUpdateLocked()
	return nil
}

// MarkTaskFailed transitions a task to Failed and records the reason.
func (s *RunStore) MarkTaskFailed(taskID int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTaskLocked(taskID)
	if err != nil {
		return err
	}
	task.Status = TaskFailed
	task.ErrMessage = errMsg
	task.FinishedAt = time.Now()
	s.notifyUpdateLocked()
	return nil
}

// MarkTaskPending puts an in-flight task back to Pending. Used when a hard
// cancel kills the task mid-attempt so it reads as never run.
func (s *RunStore) MarkTaskPending(taskID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.findTaskLocked(taskID)
	if err != nil {
		return err
	}
	task.Status = TaskPending
	task.ErrMessage = ""
	s.notifyUpdateLocked()
	return nil
}

// Finish closes out the run with the given terminal status. Tasks that never
// ran stay Pending, which is how a cancelled run reports its leftovers.
func (s *RunStore) Finish(status RunStatus) error {
	s.mu.Lock()

	if s.run == nil {
		s.mu.Unlock()
		return errors.New("no active run")
	}
	s.run.Status = status
	s.run.FinishedAt = time.Now()
	snapshot := s.snapshotLocked()
	s.notifyUpdateLocked()
	s.mu.Unlock()

	s.saveHistory(snapshot)
	return nil
}

// Counts returns the number of tasks per terminal and pending state.
func (s *RunStore) Counts() (succeeded, failed, pending, running int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return 0, 0, 0, 0
	}
	for _, t := range s.run.Tasks {
		switch t.Status {
		case TaskSucceeded:
			succeeded++
		case TaskFailed:
			failed++
		case TaskRunning:
			running++
		default:
			pending++
		}
	}
	return succeeded, failed, pending, running
}

// Reset discards the current run and its persisted summary. It fails while a
// run is still in flight.
func (s *RunStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil && s.run.Status == RunRunning {
		return ErrRunActive
	}
	s.run = nil
	if s.historyPath != "" {
		if err := os.Remove(s.historyPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Store: Failed to remove run history: %v", err)
		}
	}
	s.notifyUpdateLocked()
	return nil
}

// Restore installs a previously persisted run for display. A run recorded as
// Running is demoted to Cancelled, the process that owned it is gone.
func (s *RunStore) Restore(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		return errors.New("a run is already loaded")
	}
	if run.Status == RunRunning {
		run.Status = RunCancelled
	}
	s.run = &run
	s.notifyUpdateLocked()
	return nil
}

// saveHistory persists a finished run so the last summary survives restarts.
func (s *RunStore) saveHistory(run Run) {
	if s.saveFunc != nil {
		s.saveFunc()
	}

	s.mu.RLock()
	path := s.historyPath
	s.mu.RUnlock()
	if path == "" {
		return
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		log.Printf("Store: Failed to save run history: %v", err)
		return
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(run); err != nil {
		file.Close()
		log.Printf("Store: Failed to encode run history: %v", err)
		return
	}
	file.Close()

	if err := os.Rename(tmp, path); err != nil {
		log.Printf("Store: Failed to rename run history: %v", err)
	}
}

// LoadHistory reads the last persisted run, if any.
func (s *RunStore) LoadHistory() (Run, error) {
	s.mu.RLock()
	path := s.historyPath
	s.mu.RUnlock()

	var run Run
	if path == "" {
		return run, errors.New("no history path configured")
	}

	file, err := os.Open(path)
	if err != nil {
		return run, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&run); err != nil {
		return run, err
	}
	return run, nil
}
