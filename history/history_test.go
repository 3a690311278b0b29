package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndFinishJobRecordsResult(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	job := m.StartJob("part.gcode", JobMeta{Size: 1024})
	assert.Equal(t, StatusRunning, job.Status)

	finished := m.FinishJob(123.5, 0.01, 4, "marlin")
	require.NotNil(t, finished)
	assert.Equal(t, StatusCompleted, finished.Status)
	assert.Equal(t, 123.5, finished.EstimatedSeconds)
	assert.Equal(t, 4, finished.BlockCount)
	assert.Nil(t, m.GetCurrentJob())
}

func TestFailJobRecordsError(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	m.StartJob("bad.gcode", JobMeta{})
	failed := m.FailJob(errors.New("boom"))
	require.NotNil(t, failed)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "boom", failed.Error)
}

func TestGetTotalsExcludesRunningJobs(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	m.StartJob("a.gcode", JobMeta{})
	m.FinishJob(10, 0.001, 1, "marlin")

	m.StartJob("b.gcode", JobMeta{})
	// b.gcode left running.

	totals := m.GetTotals()
	assert.Equal(t, 1, totals.TotalJobs)
	assert.Equal(t, 10.0, totals.TotalEstimated)
}

func TestDeleteJobRemovesIt(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	job := m.StartJob("a.gcode", JobMeta{})
	m.FinishJob(1, 0.001, 1, "marlin")

	assert.True(t, m.DeleteJob(job.JobID))
	assert.Nil(t, m.GetJob(job.JobID))
	assert.False(t, m.DeleteJob(job.JobID))
}

func TestListJobsPagination(t *testing.T) {
	m, err := NewManager(t.TempDir(), nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		m.StartJob("f.gcode", JobMeta{})
		m.FinishJob(float64(i), 0, 1, "marlin")
	}

	jobs, total := m.ListJobs(0, 2, 0, 0, "desc")
	assert.Equal(t, 5, total)
	assert.Len(t, jobs, 2)
}
