/**
 * Progress Reporter
 * Throttled human-readable and JSON progress lines for an Estimator
 *
 * Features:
 * - Subscribes to estimator ticks and prints at most once per interval
 * - "Step n of N: desc (i/t items; 1m30s remaining)" text lines
 * - JSON lines for programmatic consumption
 * - Flushes buffered sinks after every line
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/VatsalSy/stepwatch/internal/errors"
)

// DefaultPrintInterval is the minimum time between two printed lines.
const DefaultPrintInterval = time.Second

// OutputFormat defines the output format for progress reporting.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatBar  OutputFormat = "bar"
	OutputFormatNone OutputFormat = "none"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputFormatText, OutputFormatJSON, OutputFormatBar, OutputFormatNone:
		return f, nil
	case "":
		return OutputFormatText, nil
	default:
		return "", errors.New(errors.ErrorTypeConfiguration, "parse_output_format",
			fmt.Errorf("unknown output format %q", s))
	}
}

// ReporterConfig configures a progress reporter.
type ReporterConfig struct {
	// Output is the sink lines are written to. Default: os.Stdout
	Output io.Writer

	// Clock is read for throttling. Default: the estimator's clock
	Clock Clock

	// Format selects text or JSON lines. Default: text
	Format OutputFormat

	// PrintInterval is the minimum time between two lines. Default: 1s
	PrintInterval time.Duration
}

// Reporter prints the state of an Estimator whenever it ticks, at most
// once per print interval.
type Reporter struct {
	estimator *Estimator
	output    io.Writer
	clock     Clock
	limiter   *rate.Limiter
	err       error
	format    OutputFormat
	sub       Subscription
}

type flusher interface {
	Flush() error
}

// NewReporter creates a reporter and subscribes it to the estimator.
func NewReporter(estimator *Estimator, config ReporterConfig) *Reporter {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Clock == nil {
		config.Clock = estimator.Clock()
	}
	if config.Format == "" {
		config.Format = OutputFormatText
	}
	if config.PrintInterval == 0 {
		config.PrintInterval = DefaultPrintInterval
	}

	r := &Reporter{
		estimator: estimator,
		output:    config.Output,
		clock:     config.Clock,
		format:    config.Format,
		limiter:   rate.NewLimiter(rate.Every(config.PrintInterval), 1),
	}
	r.sub = estimator.Subscribe(r.Update)

	return r
}

// Update is the tick handler. It prints the current state unless a line
// was printed less than one interval ago.
func (r *Reporter) Update() {
	if !r.limiter.AllowN(r.clock.Now(), 1) {
		return
	}

	snapshot := r.estimator.Snapshot()

	var line string
	switch r.format {
	case OutputFormatJSON:
		line = r.formatJSON(snapshot)
	default:
		line = FormatLine(snapshot)
	}

	r.write(line)
}

// Err returns the first error met while writing to the output.
func (r *Reporter) Err() error {
	return r.err
}

// Close unsubscribes the reporter from its estimator.
func (r *Reporter) Close() {
	r.estimator.Unsubscribe(r.sub)
}

func (r *Reporter) write(line string) {
	if _, err := fmt.Fprintln(r.output, line); err != nil {
		r.recordErr("write", err)
		return
	}
	if f, ok := r.output.(flusher); ok {
		if err := f.Flush(); err != nil {
			r.recordErr("flush", err)
		}
	}
}

func (r *Reporter) recordErr(op string, err error) {
	if r.err == nil {
		r.err = errors.New(errors.ErrorTypeOutput, op, err)
	}
}

// formatJSON renders a snapshot as a single JSON object.
func (r *Reporter) formatJSON(snapshot Snapshot) string {
	output := map[string]interface{}{
		"timestamp":   r.clock.Now().Unix(),
		"description": snapshot.Description,
		"step_number": snapshot.StepNumber,
		"step_total":  snapshot.StepTotal,
		"tick_number": snapshot.TickNumber,
		"tick_total":  snapshot.TickTotal,
		"paused":      snapshot.Paused,
	}
	if snapshot.TickTotal > 0 {
		output["percent"] = snapshot.PercentComplete()
	}
	if snapshot.RemainingKnown() {
		output["remaining_seconds"] = int64(snapshot.Remaining / time.Second)
	}

	data, _ := json.Marshal(output)
	return string(data)
}

// FormatLine renders a snapshot as
// "Step <n> of <total>: <description> (<tick>/<total> items; <eta> remaining)".
// The step clause is omitted when StepTotal is 0, the items clause when
// TickTotal is 0, and the remaining clause when no estimate is known.
func FormatLine(s Snapshot) string {
	var step string
	if s.StepTotal > 0 {
		step = fmt.Sprintf("Step %d of %d: ", s.StepNumber, s.StepTotal)
	}

	var ticks string
	if s.TickTotal > 0 {
		ticks = fmt.Sprintf("%d/%d items", s.TickNumber, s.TickTotal)
	}

	var remain string
	if s.RemainingKnown() {
		remain = fmt.Sprintf("; %s remaining", FormatRemaining(s.Remaining))
	}

	par := ticks + remain
	if par != "" {
		par = " (" + par + ")"
	}

	return step + s.Description + par
}

// FormatRemaining renders a duration using its two coarsest units: hours
// and minutes once an hour is reached, otherwise minutes and seconds.
// Partial seconds round up.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}

	total := int64(d / time.Second)
	if d%time.Second != 0 {
		total++
	}

	h := total / 3600
	m := total / 60 % 60
	s := total % 60

	var b strings.Builder
	if h > 0 {
		b.WriteString(strconv.FormatInt(h, 10))
		b.WriteByte('h')
	}
	if h > 0 || m > 0 {
		b.WriteString(strconv.FormatInt(m, 10))
		b.WriteByte('m')
	}
	if h == 0 && s > 0 {
		b.WriteString(strconv.FormatInt(s, 10))
		b.WriteByte('s')
	}

	return b.String()
}
