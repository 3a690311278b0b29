// Package history tracks the lifecycle of estimate jobs: one entry
// per gcode file submitted for estimation, from receipt through the
// computed result, persisted to disk so a restart doesn't lose it.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// JobStatus is the state of an estimate job.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusError     JobStatus = "error"
)

// Job is one estimate request tracked in history.
type Job struct {
	JobID    string    `json:"job_id"`
	Filename string    `json:"filename"`
	Status   JobStatus `json:"status"`

	StartTime float64 `json:"start_time"` // Unix timestamp
	EndTime   float64 `json:"end_time"`   // Unix timestamp

	// EstimatedSeconds is the computed print time, the Estimator's
	// output — set only once Status is StatusCompleted.
	EstimatedSeconds float64 `json:"estimated_seconds"`
	// WallClockToCompute is how long the estimator itself took to run
	// against this file, in seconds — useful for spotting files whose
	// size makes re-estimation worth caching (store.Result exists for
	// that; this is the observability counterpart).
	WallClockToCompute float64 `json:"wall_clock_to_compute"`
	BlockCount         int     `json:"block_count"`
	Dialect            string  `json:"dialect"`
	Error              string  `json:"error,omitempty"`

	Metadata JobMeta `json:"metadata"`
}

// JobMeta is metadata about the gcode file itself, independent of any
// particular estimate run.
type JobMeta struct {
	Size     int64   `json:"size"`
	Modified float64 `json:"modified"`
	Slicer   string  `json:"slicer,omitempty"`
}

// Totals is cumulative statistics across every completed/errored job.
type Totals struct {
	TotalJobs        int     `json:"total_jobs"`
	TotalEstimated   float64 `json:"total_estimated_seconds"`
	LongestEstimated float64 `json:"longest_estimated_seconds"`
	CompletedJobs    int     `json:"completed_jobs"`
	FailedJobs       int     `json:"failed_jobs"`
}

// ChangedAction is the action type for history change events.
type ChangedAction string

const (
	ActionAdded    ChangedAction = "added"
	ActionFinished ChangedAction = "finished"
)

// ChangedCallback is called whenever the history changes, so a server
// can push a notification over its websocket hub.
type ChangedCallback func(action ChangedAction, job *Job)

// Manager manages estimate job history.
type Manager struct {
	mu         sync.RWMutex
	jobs       []*Job
	dataPath   string
	nextJobID  int
	currentJob *Job
	callback   ChangedCallback
}

// NewManager creates a Manager persisting to dataDir/history.json.
func NewManager(dataDir string, callback ChangedCallback) (*Manager, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	m := &Manager{
		dataPath:  filepath.Join(dataDir, "history.json"),
		jobs:      make([]*Job, 0),
		nextJobID: 1,
		callback:  callback,
	}

	if err := m.load(); err != nil {
		logrus.WithError(err).Warn("history: failed to load, starting empty")
	}

	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.dataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var state struct {
		Jobs      []*Job `json:"jobs"`
		NextJobID int    `json:"next_job_id"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	m.jobs = state.Jobs
	m.nextJobID = state.NextJobID
	if m.nextJobID == 0 {
		m.nextJobID = len(m.jobs) + 1
	}
	return nil
}

func (m *Manager) save() error {
	state := struct {
		Jobs      []*Job `json:"jobs"`
		NextJobID int    `json:"next_job_id"`
	}{
		Jobs:      m.jobs,
		NextJobID: m.nextJobID,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.dataPath, data, 0644)
}

// StartJob begins tracking an estimate request.
func (m *Manager) StartJob(filename string, metadata JobMeta) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		JobID:     fmt.Sprintf("%06X", m.nextJobID),
		Filename:  filename,
		Status:    StatusRunning,
		StartTime: float64(time.Now().Unix()),
		Metadata:  metadata,
	}

	m.nextJobID++
	m.currentJob = job
	m.jobs = append(m.jobs, job)
	m.save()

	if m.callback != nil {
		m.callback(ActionAdded, job)
	}
	return job
}

// FinishJob completes the current job with the estimator's result.
func (m *Manager) FinishJob(estimatedSeconds, wallClock float64, blockCount int, dialect string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentJob == nil {
		return nil
	}

	job := m.currentJob
	job.Status = StatusCompleted
	job.EndTime = float64(time.Now().Unix())
	job.EstimatedSeconds = estimatedSeconds
	job.WallClockToCompute = wallClock
	job.BlockCount = blockCount
	job.Dialect = dialect

	m.currentJob = nil
	m.save()

	if m.callback != nil {
		m.callback(ActionFinished, job)
	}
	return job
}

// FailJob completes the current job as an error.
func (m *Manager) FailJob(err error) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentJob == nil {
		return nil
	}

	job := m.currentJob
	job.Status = StatusError
	job.EndTime = float64(time.Now().Unix())
	job.Error = err.Error()

	m.currentJob = nil
	m.save()

	if m.callback != nil {
		m.callback(ActionFinished, job)
	}
	return job
}

// GetCurrentJob returns the job currently running, if any.
func (m *Manager) GetCurrentJob() *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentJob
}

// ListJobs returns jobs with pagination and optional time filtering,
// newest first unless order is "asc".
func (m *Manager) ListJobs(start, limit int, before, since float64, order string) ([]*Job, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filtered := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if before > 0 && job.StartTime >= before {
			continue
		}
		if since > 0 && job.StartTime < since {
			continue
		}
		filtered = append(filtered, job)
	}

	if order == "asc" {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].StartTime < filtered[j].StartTime })
	} else {
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].StartTime > filtered[j].StartTime })
	}

	total := len(filtered)
	if start >= len(filtered) {
		return []*Job{}, total
	}
	filtered = filtered[start:]

	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, total
}

// GetJob retrieves a specific job by ID.
func (m *Manager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, job := range m.jobs {
		if job.JobID == jobID {
			return job
		}
	}
	return nil
}

// DeleteJob removes a job from history.
func (m *Manager) DeleteJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, job := range m.jobs {
		if job.JobID == jobID {
			m.jobs = append(m.jobs[:i], m.jobs[i+1:]...)
			m.save()
			return true
		}
	}
	return false
}

// GetTotals calculates cumulative statistics across finished jobs.
func (m *Manager) GetTotals() Totals {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totals := Totals{}
	for _, job := range m.jobs {
		if job.Status == StatusRunning {
			continue
		}

		totals.TotalJobs++
		totals.TotalEstimated += job.EstimatedSeconds
		if job.EstimatedSeconds > totals.LongestEstimated {
			totals.LongestEstimated = job.EstimatedSeconds
		}

		switch job.Status {
		case StatusCompleted:
			totals.CompletedJobs++
		case StatusError:
			totals.FailedJobs++
		}
	}
	return totals
}

// ResetTotals clears all history.
func (m *Manager) ResetTotals() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobs = make([]*Job, 0)
	m.currentJob = nil
	m.save()
}
