package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGetResultRoundTrips(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	r := Result{
		Filename:         "bench.gcode",
		ContentHash:      "abc123",
		Dialect:          "marlin",
		EstimatedSeconds: 42.5,
		BlockCount:       3,
	}
	require.NoError(t, s.PutResult(r))

	got, ok := s.GetResult("abc123")
	require.True(t, ok)
	assert.Equal(t, r, got)
}

func TestGetResultMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := s.GetResult("does-not-exist")
	assert.False(t, ok)
}

func TestSetItemPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.SetItem("ns", "key", "value"))

	s2, err := New(dir)
	require.NoError(t, err)
	v, ok := s2.GetItem("ns", "key")
	require.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestNestedKeyDotNotation(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SetItem("ns", "profile.dialect", "marlin"))
	v, ok := s.GetItem("ns", "profile.dialect")
	require.True(t, ok)
	assert.Equal(t, "marlin", v)

	require.NoError(t, s.DeleteItem("ns", "profile.dialect"))
	_, ok = s.GetItem("ns", "profile.dialect")
	assert.False(t, ok)
}
