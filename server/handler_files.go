package server

import (
	"io"
	"net/http"
	"strings"
)

// registerFileHandlers sets up /files/* routes for browsing and
// uploading the gcode files available to be estimated.
func (s *Server) registerFileHandlers() {
	s.mux.HandleFunc("GET /files/list", s.handleFileList)
	s.mux.HandleFunc("GET /files/directory", s.handleFileDirectory)
	s.mux.HandleFunc("GET /files/metadata", s.handleFileMetadataHTTP)
	s.mux.HandleFunc("POST /files/upload", s.handleFileUpload)
	s.mux.HandleFunc("DELETE /files/{root}/{path...}", s.handleFileDelete)
	s.mux.HandleFunc("GET /files/{root}/{path...}", s.handleFileDownload)
	s.mux.HandleFunc("GET /files/roots", s.handleFileRoots)
}

func (s *Server) handleFileList(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		root = "gcodes"
	}
	writeJSON(w, map[string]interface{}{"result": s.fileManager.ListFiles(root)})
}

func (s *Server) handleFileDirectory(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	root := "gcodes"
	if strings.HasPrefix(path, "gcodes") {
		path = strings.TrimPrefix(strings.TrimPrefix(path, "gcodes"), "/")
	}
	writeJSON(w, map[string]interface{}{"result": s.fileManager.GetDirectory(root, path)})
}

func (s *Server) handleFileMetadataHTTP(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeJSONError(w, http.StatusBadRequest, "filename is required")
		return
	}
	meta, err := s.fileManager.GetMetadata("gcodes", filename)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "file not found")
		return
	}
	writeJSON(w, map[string]interface{}{"result": meta})
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(512 << 20); err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	filename := header.Filename
	if subdir := r.FormValue("path"); subdir != "" {
		filename = subdir + "/" + filename
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	if err := s.fileManager.SaveFile("gcodes", filename, data); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to save file: "+err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"result": map[string]interface{}{
			"item": map[string]interface{}{"path": filename, "root": "gcodes", "size": len(data)},
		},
	})
}

func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	root := r.PathValue("root")
	path := r.PathValue("path")
	if err := s.fileManager.DeleteFile(root, path); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"item": map[string]interface{}{"path": path, "root": root}}})
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	root := r.PathValue("root")
	path := r.PathValue("path")
	data, err := s.fileManager.ReadFile(root, path)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write(data)
}

func (s *Server) handleFileRoots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"result": []map[string]interface{}{{"name": "gcodes", "permissions": "rw"}},
	})
}

func (h *Hub) handleFileMetadata(params interface{}) interface{} {
	filename := extractStringParam(params, "filename")
	meta, err := h.server.fileManager.GetMetadata("gcodes", filename)
	if err != nil {
		return map[string]interface{}{"filename": filename, "size": 0, "modified": float64(0)}
	}
	return meta
}

func (h *Hub) handleFilesGetDirectory(params interface{}) interface{} {
	path := extractStringParam(params, "path")
	root := "gcodes"
	if strings.HasPrefix(path, "gcodes") {
		path = strings.TrimPrefix(strings.TrimPrefix(path, "gcodes"), "/")
	}
	return h.server.fileManager.GetDirectory(root, path)
}
