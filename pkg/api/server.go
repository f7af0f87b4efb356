package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dixieflatline76/Retouch/pkg/batch"
	"github.com/dixieflatline76/Retouch/util/log"
)

// monitorAddr is the loopback address the monitor API binds to.
const monitorAddr = "127.0.0.1:49453"

// Server is the local REST/WebSocket monitor for batch runs. It reads run
// state from the store and delegates run control to registered callbacks.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	// WebSocket management
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex

	store    *batch.RunStore
	stopCh   chan struct{}
	stopOnce sync.Once

	// Callbacks
	onStartRun  func(folder string) error
	onCancelRun func()
	outputDir   func() string
}

// NewServer creates a monitor server over the given run store. The store
// watcher starts immediately so WebSocket clients see updates even when the
// handler is mounted on an external listener.
func NewServer(store *batch.RunStore) *Server {
	s := &Server{
		mux: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]bool),
		store:   store,
		stopCh:  make(chan struct{}),
	}
	s.setupRoutes()
	go s.watchStore()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.enableCORS(s.handleHealth))
	s.mux.HandleFunc("/status", s.enableCORS(s.handleStatus))
	s.mux.HandleFunc("/run/start", s.enableCORS(s.handleStartRun))
	s.mux.HandleFunc("/run/cancel", s.enableCORS(s.handleCancelRun))
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/outputs", s.enableCORS(s.handleOutputs))
	s.mux.HandleFunc("/outputs/", s.enableCORS(s.handleOutputs))
}

// enableCORS adds CORS headers to the handler.
func (s *Server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Allow browser dashboards to access localhost
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// SetStartRunHandler sets the callback used to start a batch run.
func (s *Server) SetStartRunHandler(handler func(folder string) error) {
	s.onStartRun = handler
}

// SetCancelRunHandler sets the callback used to cancel the active run.
func (s *Server) SetCancelRunHandler(handler func()) {
	s.onCancelRun = handler
}

// SetOutputDirProvider sets the callback that resolves the output folder
// served under /outputs.
func (s *Server) SetOutputDirProvider(provider func() string) {
	s.outputDir = provider
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the server.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    monitorAddr,
		Handler: s.mux,
	}
	// This is blocking
	return s.httpServer.ListenAndServe()
}

// Stop stops the server and the store watcher.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

// watchStore pushes a status frame to all clients whenever the run changes.
func (s *Server) watchStore() {
	for {
		// The update channel is renewed after every signal, so it must be
		// re-fetched each iteration.
		ch := s.store.GetUpdateChannel()
		select {
		case <-s.stopCh:
			return
		case <-ch:
			if err := s.BroadcastStatus(); err != nil {
				log.Printf("Monitor: Failed to broadcast run status: %v", err)
			}
		}
	}
}

// BroadcastStatus sends a "run_status" frame with the current run snapshot
// to all connected clients.
func (s *Server) BroadcastStatus() error {
	msg := map[string]interface{}{
		"type": "run_status",
		"run":  s.currentRunDTO(),
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		err := client.WriteJSON(msg)
		if err != nil {
			log.Printf("Failed to broadcast to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
	return nil
}
