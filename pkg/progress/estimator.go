/**
 * Progress Estimator
 * Step/tick progress tracking with a windowed time-remaining estimate
 *
 * Features:
 * - Step and per-step item counters
 * - Sliding window of tick timestamps for throughput estimation
 * - Pause/resume aware clock so waiting time never counts as work
 * - Synchronous, ordered notification of subscribers on every tick
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package progress

import (
	"math"
	"time"

	"github.com/VatsalSy/stepwatch/internal/errors"
)

// Unknown is returned by StepTimeRemaining when the estimator has not yet
// seen enough history to trust an estimate.
const Unknown time.Duration = math.MaxInt64

// DefaultMinDurationForEstimate is how much tick history must accumulate
// before StepTimeRemaining reports a number.
const DefaultMinDurationForEstimate = 10 * time.Second

// maxEstimateSeconds keeps the rounded estimate inside time.Duration.
const maxEstimateSeconds = float64(math.MaxInt64 / int64(time.Second))

// Estimator tracks the step and item progress of a single long-running
// operation and estimates how long the current step has left.
//
// An Estimator is not safe for concurrent use. All methods run on the
// caller's goroutine, and subscribers are invoked synchronously from Tick.
type Estimator struct {
	clock       Clock
	pausedAt    time.Time
	description string
	window      []time.Time
	subscribers subscriberList

	minDurationForEstimate time.Duration
	estimateWindow         time.Duration
	pauseOffset            time.Duration

	stepNumber int
	stepTotal  int
	tickCount  int
	tickTotal  int
	started    bool
	paused     bool
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithMinDurationForEstimate sets how much tick history is required before
// an estimate is produced. Negative values are treated as zero.
func WithMinDurationForEstimate(d time.Duration) Option {
	return func(e *Estimator) {
		if d < 0 {
			d = 0
		}
		e.minDurationForEstimate = d
	}
}

// WithEstimateWindow bounds the tick history used for the rate calculation.
// Zero or a negative value means the whole history of the current step.
func WithEstimateWindow(d time.Duration) Option {
	return func(e *Estimator) {
		if d < 0 {
			d = 0
		}
		e.estimateWindow = d
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(e *Estimator) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEstimator creates an estimator. Until BeginStep is called it reports
// no step and an Unknown remaining time.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		clock:                  SystemClock{},
		minDurationForEstimate: DefaultMinDurationForEstimate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BeginStep starts a new step. The tick counter is reset, the timestamp
// window is cleared and seeded with the current time. Subscribers are not
// notified.
func (e *Estimator) BeginStep(description string, stepNumber, stepTotal, tickTotal int) {
	e.description = description
	e.stepNumber = stepNumber
	e.stepTotal = stepTotal
	e.tickCount = 0
	e.tickTotal = tickTotal
	e.started = true

	e.window = e.window[:0]
	e.window = append(e.window, e.adjustedNow())
}

// Tick records one completed item and notifies every subscriber in
// registration order. A panic raised by a subscriber propagates to the
// caller. Tick panics if no step has been started.
func (e *Estimator) Tick() {
	if !e.started {
		panic(errors.Precondition("tick", errors.ErrStepNotStarted))
	}

	if !e.paused {
		e.window = append(e.window, e.adjustedNow())
		e.evict()
	}

	e.tickCount++

	e.subscribers.dispatch()
}

// evict drops timestamps that fall outside the estimate window. The newest
// timestamp outside the window is kept as the oldest reference point, so
// the window never shrinks below two entries once a tick has happened.
func (e *Estimator) evict() {
	if e.estimateWindow <= 0 {
		return
	}

	last := e.window[len(e.window)-1]
	first := 0
	for first < len(e.window)-1 && last.Sub(e.window[first+1]) > e.estimateWindow {
		first++
	}
	if first > 0 {
		e.window = append(e.window[:0], e.window[first:]...)
	}
}

// Pause stops the clock used for rate calculations. Calling Pause while
// already paused restarts the paused interval from now; the earlier,
// unresumed interval is not excluded.
func (e *Estimator) Pause() {
	e.pausedAt = e.clock.Now()
	e.paused = true
}

// Resume adds the time since the matching Pause to the pause offset.
// Resume panics when the estimator is not paused.
func (e *Estimator) Resume() {
	if !e.paused {
		panic(errors.Precondition("resume", errors.ErrNotPaused))
	}

	e.pauseOffset += e.clock.Now().Sub(e.pausedAt)
	e.pausedAt = time.Time{}
	e.paused = false
}

// Paused reports whether the estimator is between Pause and Resume.
func (e *Estimator) Paused() bool {
	return e.paused
}

// PauseOffset returns the total time excluded by completed pauses.
func (e *Estimator) PauseOffset() time.Duration {
	return e.pauseOffset
}

// StepTimeRemaining estimates the time left in the current step, rounded
// up to a whole second. It returns Unknown when the window holds a single
// timestamp or spans less than the minimum estimate duration. Ticks past
// the step total yield zero. The value is only meaningful when TickTotal
// is positive.
func (e *Estimator) StepTimeRemaining() time.Duration {
	n := len(e.window)
	if n <= 1 {
		return Unknown
	}

	span := e.window[n-1].Sub(e.window[0])
	if span < e.minDurationForEstimate {
		return Unknown
	}

	rate := float64(span) / float64(n-1)
	remaining := float64(e.tickTotal-e.tickCount) * rate
	if remaining <= 0 {
		return 0
	}

	seconds := math.Ceil(remaining / float64(time.Second))
	if seconds >= maxEstimateSeconds {
		return Unknown
	}
	return time.Duration(seconds) * time.Second
}

// Subscribe registers fn to run after every Tick. Subscribing from inside a
// callback takes effect from the next Tick.
func (e *Estimator) Subscribe(fn func()) Subscription {
	if fn == nil {
		panic(errors.Precondition("subscribe", errors.ErrNilSubscriber))
	}
	return e.subscribers.add(fn)
}

// Unsubscribe removes a subscription. It reports whether the subscription
// was registered. Unsubscribing from inside a callback takes effect from
// the next Tick.
func (e *Estimator) Unsubscribe(s Subscription) bool {
	return e.subscribers.remove(s)
}

// Subscribers returns the number of registered subscriptions.
func (e *Estimator) Subscribers() int {
	return e.subscribers.len()
}

// StepDescription returns the current step's label.
func (e *Estimator) StepDescription() string { return e.description }

// StepNumber returns the 1-based index of the current step.
func (e *Estimator) StepNumber() int { return e.stepNumber }

// StepTotal returns the number of steps, or 0 when steps are not reported.
func (e *Estimator) StepTotal() int { return e.stepTotal }

// TickNumber returns the items completed in the current step.
func (e *Estimator) TickNumber() int { return e.tickCount }

// TickTotal returns the items expected in the current step, or 0 when
// items are not reported.
func (e *Estimator) TickTotal() int { return e.tickTotal }

// Clock returns the clock the estimator reads.
func (e *Estimator) Clock() Clock { return e.clock }

// Snapshot returns the current state as a value.
func (e *Estimator) Snapshot() Snapshot {
	return Snapshot{
		Description: e.description,
		StepNumber:  e.stepNumber,
		StepTotal:   e.stepTotal,
		TickNumber:  e.tickCount,
		TickTotal:   e.tickTotal,
		Remaining:   e.StepTimeRemaining(),
		Paused:      e.paused,
	}
}

// adjustedNow is the current time with all completed pauses removed.
func (e *Estimator) adjustedNow() time.Time {
	return e.clock.Now().Add(-e.pauseOffset)
}

// Snapshot is a point-in-time view of an Estimator.
type Snapshot struct {
	Description string
	StepNumber  int
	StepTotal   int
	TickNumber  int
	TickTotal   int
	Remaining   time.Duration
	Paused      bool
}

// RemainingKnown reports whether Remaining holds an estimate worth showing.
func (s Snapshot) RemainingKnown() bool {
	return s.TickTotal > 0 && s.Remaining != Unknown
}

// PercentComplete returns the share of the step's items completed.
func (s Snapshot) PercentComplete() float64 {
	if s.TickTotal <= 0 {
		return 0
	}
	return float64(s.TickNumber) / float64(s.TickTotal) * 100
}
