package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	var echo bytes.Buffer
	l.SetEcho(&echo)

	l.LogFallback("", "s1", "analyzer", "connection refused")
	l.LogAction("s1", 2, "execute_step", true)

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeFallback, events[0].Type)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, EventTypeAction, events[1].Type)
	assert.Equal(t, 2, strings.Count(echo.String(), "\n"))
}

func TestLoggerRotates(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(dir)
	l.maxSize = 10

	l.LogHeartbeat()
	l.LogHeartbeat()

	_, err := os.Stat(l.Path() + ".old")
	assert.NoError(t, err)
}

func TestNilLoggerAndMetrics(t *testing.T) {
	var l *Logger
	var m *Metrics
	assert.NotPanics(t, func() {
		l.LogHeartbeat()
		l.SetEcho(os.Stdout)
		m.IncFallback("x")
		m.IncGeneration("x", nil)
		m.IncPlan("completed")
	})
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncGeneration("reasoning", nil)
	m.IncGeneration("reasoning", errors.New("boom"))
	m.IncGeneration("reasoning", errors.New("boom"))
	m.IncFallback("analyzer")
	m.IncIteration()
	m.IncPlan("completed")
	m.IncReport("weather")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("reasoning", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues("reasoning", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("analyzer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.iterations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("weather")))

	// A second instance must not collide on registration.
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestTrackResetsStatus(t *testing.T) {
	done := Track(RolePlanner, "weekend plan")
	st := Current()
	assert.Equal(t, RolePlanner, st.Role)
	assert.Equal(t, "weekend plan", st.Task)
	assert.Contains(t, StatusLine(), "PLANNER")

	done()
	st = Current()
	assert.Equal(t, RoleIdle, st.Role)
	assert.Empty(t, st.Task)
}

func TestTrackRestoresOuterRole(t *testing.T) {
	outer := Track(RoleAssistant, "gateway chat")
	inner := Track(RoleReporter, "weather report")
	assert.Equal(t, RoleReporter, Current().Role)

	inner()
	st := Current()
	assert.Equal(t, RoleAssistant, st.Role)
	assert.Equal(t, "gateway chat", st.Task)

	outer()
	assert.Equal(t, RoleIdle, Current().Role)
}
