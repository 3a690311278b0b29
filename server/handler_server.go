package server

import "net/http"

// registerServerHandlers sets up /server/info and /server/config.
func (s *Server) registerServerHandlers() {
	s.mux.HandleFunc("GET /server/info", s.handleServerInfo)
	s.mux.HandleFunc("GET /server/config", s.handleServerConfig)
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"result": s.serverInfo()})
}

func (s *Server) handleServerConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"result": s.serverConfig()})
}
