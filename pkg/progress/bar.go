package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// BarReporter renders the current step of an Estimator as a terminal
// progress bar. A new bar is started whenever the step changes.
type BarReporter struct {
	estimator *Estimator
	output    io.Writer
	bar       *progressbar.ProgressBar
	desc      string
	step      int
	sub       Subscription
}

// NewBarReporter creates a bar reporter and subscribes it to the estimator.
func NewBarReporter(estimator *Estimator, output io.Writer) *BarReporter {
	if output == nil {
		output = os.Stdout
	}

	b := &BarReporter{
		estimator: estimator,
		output:    output,
	}
	b.sub = estimator.Subscribe(b.Update)

	return b
}

// Update is the tick handler.
func (b *BarReporter) Update() {
	snapshot := b.estimator.Snapshot()

	if b.bar == nil || snapshot.StepNumber != b.step || snapshot.Description != b.desc {
		b.finish()
		b.bar = b.newBar(snapshot)
		b.step = snapshot.StepNumber
		b.desc = snapshot.Description
	}

	b.bar.Describe(barDescription(snapshot))
	_ = b.bar.Set(snapshot.TickNumber)
}

// Close finishes the current bar and unsubscribes.
func (b *BarReporter) Close() {
	b.finish()
	b.estimator.Unsubscribe(b.sub)
}

func (b *BarReporter) finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}

func (b *BarReporter) newBar(snapshot Snapshot) *progressbar.ProgressBar {
	limit := snapshot.TickTotal
	if limit <= 0 {
		limit = -1
	}

	output := b.output
	return progressbar.NewOptions(
		limit,
		progressbar.OptionSetWriter(output),
		progressbar.OptionSetDescription(barDescription(snapshot)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(output, "\n")
		}),
	)
}

// barDescription is the label shown left of the bar.
func barDescription(s Snapshot) string {
	desc := s.Description
	if s.StepTotal > 0 {
		desc = fmt.Sprintf("[%d/%d] %s", s.StepNumber, s.StepTotal, desc)
	}
	if s.RemainingKnown() {
		desc = fmt.Sprintf("%s (%s left)", desc, FormatRemaining(s.Remaining))
	}
	return desc
}
