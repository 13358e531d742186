package progress

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VatsalSy/stepwatch/internal/errors"
)

func lines(buf *bytes.Buffer) []string {
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{3661 * time.Second, "1h1m"},
		{3600 * time.Second, "1h0m"},
		{7322 * time.Second, "2h2m"},
		{90 * time.Second, "1m30s"},
		{60 * time.Second, "1m"},
		{45 * time.Second, "45s"},
		{1500 * time.Millisecond, "2s"},
		{0, "0s"},
		{-time.Second, "0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatRemaining(tt.input), "FormatRemaining(%v)", tt.input)
	}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		expected string
	}{
		{
			name: "all clauses",
			snapshot: Snapshot{
				Description: "Copying rows", StepNumber: 2, StepTotal: 5,
				TickNumber: 20, TickTotal: 100, Remaining: 90 * time.Second,
			},
			expected: "Step 2 of 5: Copying rows (20/100 items; 1m30s remaining)",
		},
		{
			name: "unknown remaining",
			snapshot: Snapshot{
				Description: "Copying rows", StepNumber: 2, StepTotal: 5,
				TickNumber: 1, TickTotal: 100, Remaining: Unknown,
			},
			expected: "Step 2 of 5: Copying rows (1/100 items)",
		},
		{
			name: "no step total",
			snapshot: Snapshot{
				Description: "Copying rows", StepNumber: 2,
				TickNumber: 20, TickTotal: 100, Remaining: 3661 * time.Second,
			},
			expected: "Copying rows (20/100 items; 1h1m remaining)",
		},
		{
			name: "no tick total",
			snapshot: Snapshot{
				Description: "Vacuuming", StepNumber: 4, StepTotal: 5,
				TickNumber: 7, Remaining: 45 * time.Second,
			},
			expected: "Step 4 of 5: Vacuuming",
		},
		{
			name:     "description only",
			snapshot: Snapshot{Description: "Working", Remaining: Unknown},
			expected: "Working",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatLine(tt.snapshot))
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{
		"":      OutputFormatText,
		"text":  OutputFormatText,
		" JSON": OutputFormatJSON,
		"bar":   OutputFormatBar,
		"none":  OutputFormatNone,
	} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputFormat("xml")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeConfiguration, errors.GetErrorType(err))
}

func TestReporterPrintsLines(t *testing.T) {
	e, clock := newTestEstimator()
	buf := &bytes.Buffer{}
	r := NewReporter(e, ReporterConfig{Output: buf})
	defer r.Close()

	e.BeginStep("Copying rows", 2, 5, 100)
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}

	out := lines(buf)
	require.Len(t, out, 20)
	assert.Equal(t, "Step 2 of 5: Copying rows (1/100 items)", out[0])
	assert.Equal(t, "Step 2 of 5: Copying rows (20/100 items; 1m20s remaining)", out[19])
	assert.NoError(t, r.Err())
}

func TestReporterThrottles(t *testing.T) {
	e, clock := newTestEstimator()
	buf := &bytes.Buffer{}
	r := NewReporter(e, ReporterConfig{Output: buf, PrintInterval: time.Second})
	defer r.Close()

	e.BeginStep("step", 1, 1, 1000)

	e.Tick()
	clock.Advance(50 * time.Millisecond)
	e.Tick()
	clock.Advance(50 * time.Millisecond)
	e.Tick()
	assert.Len(t, lines(buf), 1, "ticks within 100ms print once")

	clock.Advance(900 * time.Millisecond)
	e.Tick()
	assert.Len(t, lines(buf), 2, "a full interval after the first line prints again")

	clock.Advance(999 * time.Millisecond)
	e.Tick()
	assert.Len(t, lines(buf), 2)
}

func TestReporterUpdateDirectly(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 0, 0, 0)
	buf := &bytes.Buffer{}
	r := NewReporter(e, ReporterConfig{Output: buf})
	defer r.Close()

	r.Update()
	clock.Advance(100 * time.Millisecond)
	r.Update()

	assert.Equal(t, []string{"step"}, lines(buf))
}

func TestReporterJSON(t *testing.T) {
	e, clock := newTestEstimator()
	buf := &bytes.Buffer{}
	r := NewReporter(e, ReporterConfig{Output: buf, Format: OutputFormatJSON, PrintInterval: 10 * time.Second})
	defer r.Close()

	e.BeginStep("Copying rows", 1, 2, 40)
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}

	out := lines(buf)
	require.Len(t, out, 2)

	var first, last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(out[1]), &last))

	assert.Equal(t, "Copying rows", first["description"])
	assert.Equal(t, float64(1), first["tick_number"])
	assert.NotContains(t, first, "remaining_seconds")

	assert.Equal(t, float64(11), last["tick_number"])
	assert.Equal(t, float64(40), last["tick_total"])
	assert.Equal(t, float64(1), last["step_number"])
	assert.Equal(t, float64(2), last["step_total"])
	assert.Equal(t, float64(29), last["remaining_seconds"])
	assert.Equal(t, false, last["paused"])
	assert.Equal(t, float64(epoch.Add(11*time.Second).Unix()), last["timestamp"])
}

func TestReporterFlushesBufferedOutput(t *testing.T) {
	e, _ := newTestEstimator()
	buf := &bytes.Buffer{}
	w := bufio.NewWriterSize(buf, 4096)
	r := NewReporter(e, ReporterConfig{Output: w})
	defer r.Close()

	e.BeginStep("step", 1, 1, 2)
	e.Tick()

	assert.Equal(t, "Step 1 of 1: step (1/2 items)\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, stderrors.New("broken pipe")
}

func TestReporterRecordsFirstWriteError(t *testing.T) {
	e, clock := newTestEstimator()
	r := NewReporter(e, ReporterConfig{Output: failingWriter{}})
	defer r.Close()

	e.BeginStep("step", 1, 1, 2)
	e.Tick()
	clock.Advance(time.Second)
	e.Tick()

	err := r.Err()
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeOutput, errors.GetErrorType(err))
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestReporterClose(t *testing.T) {
	e, _ := newTestEstimator()
	buf := &bytes.Buffer{}
	r := NewReporter(e, ReporterConfig{Output: buf})
	require.Equal(t, 1, e.Subscribers())

	r.Close()
	assert.Zero(t, e.Subscribers())

	e.BeginStep("step", 1, 1, 1)
	e.Tick()
	assert.Empty(t, buf.String())
}
