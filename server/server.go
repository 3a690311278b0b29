// Package server is the HTTP/WebSocket front end: a Moonraker-style
// JSON-RPC API repurposed to submit gcode files for time estimation,
// stream progress while a large file is being processed, and browse
// the resulting job history — rather than to control a live printer.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/john/gcodetime/config"
	"github.com/john/gcodetime/files"
	"github.com/john/gcodetime/history"
	"github.com/john/gcodetime/store"
)

// Server is the estimate-service HTTP/WebSocket server.
type Server struct {
	cfg         *config.Config
	mux         *http.ServeMux
	httpServer  *http.Server
	fileManager *files.Manager
	store       *store.Store
	history     *history.Manager
	wsHub       *Hub
	log         *logrus.Logger
}

// New creates a Server wired to the given collaborators.
func New(cfg *config.Config, fm *files.Manager, st *store.Store, hist *history.Manager, log *logrus.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		mux:         http.NewServeMux(),
		fileManager: fm,
		store:       st,
		history:     hist,
		log:         log,
	}

	s.wsHub = newHub(s)
	s.registerRoutes()
	s.httpServer = &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: corsMiddleware(s.mux),
	}
	return s
}

// History returns the history manager for external access.
func (s *Server) History() *history.Manager { return s.history }

// Hub returns the WebSocket hub, so estimate jobs can push progress
// notifications as they run.
func (s *Server) Hub() *Hub { return s.wsHub }

func (s *Server) registerRoutes() {
	s.registerServerHandlers()
	s.registerEstimateHandlers()
	s.registerFileHandlers()
	s.registerHistoryHandlers()

	s.mux.HandleFunc("GET /websocket", s.wsHub.HandleWebSocket)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"result": "gcodetime estimate server"})
}

// Start begins serving HTTP requests; blocks until Shutdown or a
// listener error.
func (s *Server) Start() error {
	s.log.Infof("estimate server starting on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}

func (s *Server) serverInfo() map[string]interface{} {
	return map[string]interface{}{
		"state":                  "ready",
		"components":             []string{"estimate", "file_manager", "history"},
		"failed_components":      []string{},
		"registered_directories": []string{"gcodes"},
	}
}

func (s *Server) serverConfig() map[string]interface{} {
	return map[string]interface{}{
		"config": map[string]interface{}{
			"server": map[string]interface{}{
				"host": s.cfg.Server.Host,
				"port": s.cfg.Server.Port,
			},
			"profile": map[string]interface{}{
				"dialect":  s.cfg.Profile.Dialect,
				"junction": s.cfg.Profile.Junction,
			},
		},
	}
}
