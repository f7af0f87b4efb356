package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dixieflatline76/Retouch/config"
	"github.com/dixieflatline76/Retouch/pkg/batch"
	"github.com/dixieflatline76/Retouch/util/log"
)

// TaskDTO is the wire form of one task, with human readable status.
type TaskDTO struct {
	ID         int    `json:"id"`
	SourcePath string `json:"source_path"`
	Status     string `json:"status"`
	ErrMessage string `json:"error_message,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Attempts   int    `json:"attempts"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// RunDTO is the wire form of a batch run.
type RunDTO struct {
	ID         string    `json:"id,omitempty"`
	FolderPath string    `json:"folder_path,omitempty"`
	PromptName string    `json:"prompt_name,omitempty"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Pending    int       `json:"pending"`
	Running    int       `json:"running"`
	Tasks      []TaskDTO `json:"tasks"`
}

// runToDTO converts a run snapshot to its wire form.
func runToDTO(run batch.Run) RunDTO {
	dto := RunDTO{
		ID:         run.ID,
		FolderPath: run.FolderPath,
		PromptName: run.PromptName,
		Status:     run.Status.String(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Tasks:      make([]TaskDTO, 0, len(run.Tasks)),
	}
	for _, t := range run.Tasks {
		switch t.Status {
		case batch.TaskSucceeded:
			dto.Succeeded++
		case batch.TaskFailed:
			dto.Failed++
		case batch.TaskRunning:
			dto.Running++
		default:
			dto.Pending++
		}
		dto.Tasks = append(dto.Tasks, TaskDTO{
			ID:         t.ID,
			SourcePath: t.SourcePath,
			Status:     t.Status.String(),
			ErrMessage: t.ErrMessage,
			OutputPath: t.OutputPath,
			Attempts:   t.Attempts,
			Skipped:    t.Skipped,
		})
	}
	return dto
}

// currentRunDTO returns the wire form of the current run, or an idle
// placeholder when none has started.
func (s *Server) currentRunDTO() RunDTO {
	run, ok := s.store.Current()
	if !ok {
		return RunDTO{Status: batch.RunIdle.String(), Tasks: []TaskDTO{}}
	}
	return runToDTO(run)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version := config.AppVersion
	if version == "" {
		version = "dev"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "running",
		"version": version,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleStatus returns a snapshot of the current or last batch run.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.currentRunDTO()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleWebSocket upgrades the connection to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		// Read message (keepalive only, clients don't send commands)
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

// handleStartRun starts a batch run over the folder named in the request.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Folder string `json:"folder"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Folder == "" {
		http.Error(w, "Folder is required", http.StatusBadRequest)
		return
	}

	if s.onStartRun == nil {
		log.Println("No StartRun handler registered")
		http.Error(w, "Feature not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.onStartRun(req.Folder); err != nil {
		log.Printf("Failed to start batch run: %v", err)
		if errors.Is(err, batch.ErrRunActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleCancelRun requests a cooperative cancel of the active run.
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.onCancelRun == nil {
		log.Println("No CancelRun handler registered")
		http.Error(w, "Feature not available", http.StatusServiceUnavailable)
		return
	}

	s.onCancelRun()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
