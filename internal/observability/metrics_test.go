package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/feed", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/feed", "GET", 200, 30*time.Millisecond)
	m.RecordError("/logout", "GET", "INTERNAL_ERROR")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/feed|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMillis["/feed|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/logout|GET|INTERNAL_ERROR"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
