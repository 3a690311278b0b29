package server

import (
	"net/http"
	"strconv"
)

// registerHistoryHandlers sets up /history/* routes.
func (s *Server) registerHistoryHandlers() {
	s.mux.HandleFunc("GET /history/list", s.handleHistoryList)
	s.mux.HandleFunc("GET /history/job", s.handleHistoryGetJob)
	s.mux.HandleFunc("DELETE /history/job", s.handleHistoryDeleteJob)
	s.mux.HandleFunc("GET /history/totals", s.handleHistoryTotals)
	s.mux.HandleFunc("POST /history/reset_totals", s.handleHistoryResetTotals)
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, _ := strconv.Atoi(query.Get("start"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	before, _ := strconv.ParseFloat(query.Get("before"), 64)
	since, _ := strconv.ParseFloat(query.Get("since"), 64)
	order := query.Get("order")

	if limit == 0 {
		limit = 50
	}

	jobs, count := s.history.ListJobs(start, limit, before, since, order)
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"count": count, "jobs": jobs}})
}

func (s *Server) handleHistoryGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("uid")
	if jobID == "" {
		writeJSONError(w, http.StatusBadRequest, "uid is required")
		return
	}
	job := s.history.GetJob(jobID)
	if job == nil {
		writeJSONError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"job": job}})
}

func (s *Server) handleHistoryDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("uid")
	if jobID == "" {
		writeJSONError(w, http.StatusBadRequest, "uid is required")
		return
	}
	s.history.DeleteJob(jobID)
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"deleted_jobs": []string{jobID}}})
}

func (s *Server) handleHistoryTotals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"job_totals": s.history.GetTotals()}})
}

func (s *Server) handleHistoryResetTotals(w http.ResponseWriter, r *http.Request) {
	s.history.ResetTotals()
	writeJSON(w, map[string]interface{}{"result": map[string]interface{}{"last_totals": s.history.GetTotals()}})
}

func (h *Hub) handleHistoryList(params interface{}) interface{} {
	start := extractIntParam(params, "start")
	limit := extractIntParam(params, "limit")
	before := extractFloatParam(params, "before")
	since := extractFloatParam(params, "since")
	order := extractStringParam(params, "order")
	if limit == 0 {
		limit = 50
	}
	jobs, count := h.server.history.ListJobs(start, limit, before, since, order)
	return map[string]interface{}{"count": count, "jobs": jobs}
}

func (h *Hub) handleHistoryGetJob(params interface{}) interface{} {
	jobID := extractStringParam(params, "uid")
	job := h.server.history.GetJob(jobID)
	if job == nil {
		return map[string]interface{}{"error": "job not found"}
	}
	return map[string]interface{}{"job": job}
}

func (h *Hub) handleHistoryDeleteJob(params interface{}) interface{} {
	jobID := extractStringParam(params, "uid")
	h.server.history.DeleteJob(jobID)
	return map[string]interface{}{"deleted_jobs": []string{jobID}}
}

func (h *Hub) handleHistoryTotals() interface{} {
	return map[string]interface{}{"job_totals": h.server.history.GetTotals()}
}

func (h *Hub) handleHistoryResetTotals() interface{} {
	h.server.history.ResetTotals()
	return map[string]interface{}{"last_totals": h.server.history.GetTotals()}
}
