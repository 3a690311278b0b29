package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/john/gcodetime/dialect"
	"github.com/john/gcodetime/estimator"
	"github.com/john/gcodetime/gcode"
	"github.com/john/gcodetime/history"
	"github.com/john/gcodetime/store"
)

// registerEstimateHandlers sets up /estimate/* routes.
func (s *Server) registerEstimateHandlers() {
	s.mux.HandleFunc("POST /estimate", s.handleEstimate)
}

type estimateResponse struct {
	JobID            string  `json:"job_id"`
	Filename         string  `json:"filename"`
	Dialect          string  `json:"dialect"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
	EstimatedHMS     string  `json:"estimated_hms"`
	BlockCount       int     `json:"block_count"`
	CacheHit         bool    `json:"cache_hit"`
}

// handleEstimate accepts a raw gcode body (optionally multipart,
// field "file") and a "dialect" query parameter, runs the estimator
// over it, and returns the computed time. A cache hit by content hash
// skips re-running the planner entirely.
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body []byte
	var filename string

	if ct := r.Header.Get("Content-Type"); len(ct) >= 19 && ct[:19] == "multipart/form-data" {
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
		filename = header.Filename
		body, err = io.ReadAll(file)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read file")
			return
		}
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			filename = "upload.gcode"
		}
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, 512<<20))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
	}

	dialectName := r.URL.Query().Get("dialect")

	resp, err := s.runEstimate(filename, body, dialectName, nil)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"result": resp})
}

func (h *Hub) handleEstimateRun(params interface{}) (interface{}, error) {
	filename := extractStringParam(params, "filename")
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	dialectName := extractStringParam(params, "dialect")

	data, err := h.server.fileManager.ReadFile("gcodes", filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	jobID := extractStringParam(params, "job_id")
	var progress func(int)
	if jobID != "" {
		progress = func(lines int) { h.BroadcastEstimateProgress(jobID, lines) }
	}

	return h.server.runEstimate(filename, data, dialectName, progress)
}

func (s *Server) runEstimate(filename string, body []byte, dialectName string, progress func(lines int)) (estimateResponse, error) {
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])

	wantDialect := dialectName
	if wantDialect == "" {
		wantDialect = s.cfg.Profile.Dialect
	}
	if cached, ok := s.store.GetResult(hash); ok && cached.Dialect == normalizeDialect(wantDialect) {
		return estimateResponse{
			JobID:            cached.ContentHash,
			Filename:         cached.Filename,
			Dialect:          cached.Dialect,
			EstimatedSeconds: cached.EstimatedSeconds,
			EstimatedHMS:     formatHMS(cached.EstimatedSeconds),
			BlockCount:       cached.BlockCount,
			CacheHit:         true,
		}, nil
	}

	job := s.history.StartJob(filename, history.JobMeta{Size: int64(len(body))})

	e := estimator.New()
	s.cfg.Profile.Apply(e)
	if dialectName != "" {
		e.SetDialect(dialect.Parse(dialectName))
	}

	start := time.Now()
	if err := gcodeScan(body, e, progress); err != nil {
		s.history.FailJob(err)
		return estimateResponse{}, err
	}
	total := e.GetTime()
	wallClock := time.Since(start).Seconds()

	s.history.FinishJob(total, wallClock, e.BlockCount(), e.Dialect().String())
	if s.wsHub != nil {
		s.wsHub.BroadcastHistoryChanged("finished", job)
	}

	result := store.Result{
		Filename:         filename,
		ContentHash:      hash,
		Dialect:          e.Dialect().String(),
		EstimatedSeconds: total,
		BlockCount:       e.BlockCount(),
	}
	if err := s.store.PutResult(result); err != nil {
		s.log.WithError(err).Warn("failed to cache estimate result")
	}

	return estimateResponse{
		JobID:            job.JobID,
		Filename:         filename,
		Dialect:          e.Dialect().String(),
		EstimatedSeconds: total,
		EstimatedHMS:     formatHMS(total),
		BlockCount:       e.BlockCount(),
		CacheHit:         false,
	}, nil
}

func normalizeDialect(name string) string {
	if name == "" {
		return dialect.Marlin.String()
	}
	return dialect.Parse(name).String()
}

func formatHMS(totalSeconds float64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	total := int64(totalSeconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func gcodeScan(body []byte, e *estimator.Estimator, progress func(lines int)) error {
	r := bytes.NewReader(body)
	if progress == nil {
		return gcode.Scan(r, e)
	}
	return gcode.ScanLines(r, e, 500, progress)
}
