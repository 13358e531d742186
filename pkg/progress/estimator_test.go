/**
 * Progress Estimator Tests
 *
 * Author: StepWatch Team
 * Update History:
 * - 2026-10-15: Initial implementation
 */

package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VatsalSy/stepwatch/internal/errors"
)

var epoch = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newTestEstimator(opts ...Option) (*Estimator, *ManualClock) {
	clock := NewManualClock(epoch)
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewEstimator(opts...), clock
}

// requirePanicsWith asserts that fn panics with an error wrapping target.
func requirePanicsWith(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.True(t, errors.Is(err, target), "got %v", err)
		assert.Equal(t, errors.ErrorTypePrecondition, errors.GetErrorType(err))
	}()
	fn()
}

func TestNewEstimatorDefaults(t *testing.T) {
	e := NewEstimator()

	assert.Equal(t, DefaultMinDurationForEstimate, e.minDurationForEstimate)
	assert.Zero(t, e.estimateWindow)
	assert.IsType(t, SystemClock{}, e.Clock())
	assert.Equal(t, Unknown, e.StepTimeRemaining())
	assert.Zero(t, e.StepTotal())
	assert.Zero(t, e.TickTotal())
}

func TestEstimatorOptions(t *testing.T) {
	e := NewEstimator(
		WithMinDurationForEstimate(-time.Second),
		WithEstimateWindow(-time.Second),
		WithClock(nil),
	)
	assert.Zero(t, e.minDurationForEstimate)
	assert.Zero(t, e.estimateWindow)
	assert.IsType(t, SystemClock{}, e.Clock())

	e = NewEstimator(WithMinDurationForEstimate(time.Second), WithEstimateWindow(time.Minute))
	assert.Equal(t, time.Second, e.minDurationForEstimate)
	assert.Equal(t, time.Minute, e.estimateWindow)
}

func TestBeginStep(t *testing.T) {
	e, clock := newTestEstimator()

	e.BeginStep("Copying rows", 2, 5, 100)

	assert.Equal(t, "Copying rows", e.StepDescription())
	assert.Equal(t, 2, e.StepNumber())
	assert.Equal(t, 5, e.StepTotal())
	assert.Equal(t, 0, e.TickNumber())
	assert.Equal(t, 100, e.TickTotal())
	require.Len(t, e.window, 1)
	assert.Equal(t, epoch, e.window[0])

	clock.Advance(time.Second)
	e.Tick()
	e.Tick()
	e.BeginStep("Rebuilding indexes", 3, 5, 10)

	assert.Equal(t, 0, e.TickNumber())
	assert.Equal(t, 10, e.TickTotal())
	require.Len(t, e.window, 1)
	assert.Equal(t, epoch.Add(time.Second), e.window[0])
}

func TestBeginStepDoesNotNotify(t *testing.T) {
	e, _ := newTestEstimator()
	calls := 0
	e.Subscribe(func() { calls++ })

	e.BeginStep("step", 1, 1, 1)
	assert.Zero(t, calls)

	e.Tick()
	assert.Equal(t, 1, calls)
}

func TestTickCountsMonotonically(t *testing.T) {
	e, clock := newTestEstimator(WithMinDurationForEstimate(0))
	e.BeginStep("step", 1, 1, 5)

	for i := 1; i <= 8; i++ {
		clock.Advance(time.Second)
		e.Tick()
		assert.Equal(t, i, e.TickNumber())
	}

	// ticks past the total are accepted and the estimate bottoms out at zero
	assert.Equal(t, 8, e.TickNumber())
	assert.Equal(t, time.Duration(0), e.StepTimeRemaining())
}

func TestTickBeforeBeginStepPanics(t *testing.T) {
	e, _ := newTestEstimator()
	requirePanicsWith(t, errors.ErrStepNotStarted, e.Tick)
}

func TestRemainingUnknownUntilWarm(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, 100)

	assert.Equal(t, Unknown, e.StepTimeRemaining(), "right after BeginStep")

	clock.Advance(time.Second)
	e.Tick()
	assert.Equal(t, Unknown, e.StepTimeRemaining(), "after one tick")

	for i := 0; i < 8; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}
	assert.Equal(t, Unknown, e.StepTimeRemaining(), "span of 9s is below the 10s minimum")

	clock.Advance(time.Second)
	e.Tick()
	// 10 ticks over 10s, 90 items left at 1s each
	assert.Equal(t, 90*time.Second, e.StepTimeRemaining())
}

func TestRemainingRoundsUp(t *testing.T) {
	e, clock := newTestEstimator(WithMinDurationForEstimate(0))
	e.BeginStep("step", 0, 0, 4)

	for i := 0; i < 3; i++ {
		clock.Advance(3*time.Second + 333*time.Millisecond)
		e.Tick()
	}

	// rate is 3.333s per item with one item left
	assert.Equal(t, 4*time.Second, e.StepTimeRemaining())
}

func TestRemainingWithZeroMinimum(t *testing.T) {
	e, _ := newTestEstimator(WithMinDurationForEstimate(0))
	e.BeginStep("step", 1, 1, 10)
	assert.Equal(t, Unknown, e.StepTimeRemaining(), "a single timestamp never yields an estimate")

	e.Tick()
	assert.Equal(t, time.Duration(0), e.StepTimeRemaining(), "zero span means zero rate")
}

func TestRemainingOverflowIsUnknown(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, int(^uint(0)>>1))

	clock.Advance(100 * 365 * 24 * time.Hour)
	e.Tick()

	assert.Equal(t, Unknown, e.StepTimeRemaining())
}

func TestPauseExcludesDuration(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, 3)

	clock.Set(epoch.Add(20 * time.Second))
	e.Pause()
	assert.True(t, e.Paused())

	clock.Set(epoch.Add(80 * time.Second))
	e.Resume()
	assert.False(t, e.Paused())
	assert.Equal(t, 60*time.Second, e.PauseOffset())

	clock.Set(epoch.Add(100 * time.Second))
	e.Tick()

	require.Len(t, e.window, 2)
	assert.Equal(t, 40*time.Second, e.window[1].Sub(e.window[0]))
	// two items left at 40s each
	assert.Equal(t, 80*time.Second, e.StepTimeRemaining())
}

func TestPauseOffsetAccumulates(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, 10)

	for i := 0; i < 3; i++ {
		e.Pause()
		clock.Advance(5 * time.Second)
		e.Resume()
		clock.Advance(time.Second)
	}

	assert.Equal(t, 15*time.Second, e.PauseOffset())
}

func TestDoublePauseLastCallWins(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, 10)

	clock.Set(epoch.Add(10 * time.Second))
	e.Pause()
	clock.Set(epoch.Add(30 * time.Second))
	e.Pause()
	clock.Set(epoch.Add(50 * time.Second))
	e.Resume()

	assert.Equal(t, 20*time.Second, e.PauseOffset())
}

func TestResumeWithoutPausePanics(t *testing.T) {
	e, _ := newTestEstimator()
	requirePanicsWith(t, errors.ErrNotPaused, e.Resume)

	e.Pause()
	e.Resume()
	requirePanicsWith(t, errors.ErrNotPaused, e.Resume)
}

func TestTickWhilePausedRecordsNoTimestamp(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("step", 1, 1, 10)

	clock.Advance(time.Second)
	e.Pause()
	clock.Advance(time.Second)
	e.Tick()

	assert.Equal(t, 1, e.TickNumber())
	assert.Len(t, e.window, 1)
}

func TestWindowEvictionKeepsReferencePoint(t *testing.T) {
	e, clock := newTestEstimator(WithEstimateWindow(time.Second))
	e.BeginStep("step", 1, 1, 10)

	clock.Advance(5 * time.Second)
	e.Tick()
	// the only older point lies outside the window but is kept as reference
	require.Len(t, e.window, 2)
	assert.Equal(t, epoch, e.window[0])

	clock.Advance(5 * time.Second)
	e.Tick()
	require.Len(t, e.window, 2)
	assert.Equal(t, epoch.Add(5*time.Second), e.window[0])
	assert.Equal(t, epoch.Add(10*time.Second), e.window[1])
}

func TestWindowEvictionNeverEmpties(t *testing.T) {
	e, clock := newTestEstimator(WithEstimateWindow(time.Second), WithMinDurationForEstimate(time.Second))
	e.BeginStep("step", 1, 1, 200)

	for i := 1; i <= 100; i++ {
		clock.Advance(time.Second)
		e.Tick()

		require.GreaterOrEqual(t, len(e.window), 2)
		assert.LessOrEqual(t, len(e.window), 3)
		assert.Equal(t, time.Duration(200-i)*time.Second, e.StepTimeRemaining())
	}
}

func TestWindowAdaptsToRateChange(t *testing.T) {
	e, clock := newTestEstimator(WithEstimateWindow(10*time.Second), WithMinDurationForEstimate(0))
	e.BeginStep("step", 1, 1, 100)

	for i := 0; i < 20; i++ {
		clock.Advance(10 * time.Second)
		e.Tick()
	}
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}

	// only the fast tail is inside the window
	assert.Equal(t, 60*time.Second, e.StepTimeRemaining())
}

func TestUnboundedWindowAveragesWholeStep(t *testing.T) {
	e, clock := newTestEstimator(WithMinDurationForEstimate(0))
	e.BeginStep("step", 1, 1, 4)

	clock.Advance(9 * time.Second)
	e.Tick()
	clock.Advance(time.Second)
	e.Tick()

	require.Len(t, e.window, 3)
	// 10s over two intervals, two items left
	assert.Equal(t, 10*time.Second, e.StepTimeRemaining())
}

func TestSubscribersRunInOrder(t *testing.T) {
	e, _ := newTestEstimator()
	var calls []string
	e.Subscribe(func() { calls = append(calls, "a") })
	e.Subscribe(func() { calls = append(calls, "b") })
	e.Subscribe(func() { calls = append(calls, "c") })

	e.BeginStep("step", 1, 1, 1)
	e.Tick()

	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.Equal(t, 3, e.Subscribers())
}

func TestSubscribersSeeUpdatedCounter(t *testing.T) {
	e, _ := newTestEstimator()
	var seen []int
	e.Subscribe(func() { seen = append(seen, e.TickNumber()) })

	e.BeginStep("step", 1, 1, 3)
	e.Tick()
	e.Tick()

	assert.Equal(t, []int{1, 2}, seen)
}

func TestUnsubscribe(t *testing.T) {
	e, _ := newTestEstimator()
	var calls []string
	a := e.Subscribe(func() { calls = append(calls, "a") })
	e.Subscribe(func() { calls = append(calls, "b") })

	assert.True(t, e.Unsubscribe(a))
	assert.False(t, e.Unsubscribe(a))
	assert.False(t, e.Unsubscribe(Subscription(0)))

	e.BeginStep("step", 1, 1, 1)
	e.Tick()
	assert.Equal(t, []string{"b"}, calls)
}

func TestSubscribeNilPanics(t *testing.T) {
	e, _ := newTestEstimator()
	requirePanicsWith(t, errors.ErrNilSubscriber, func() { e.Subscribe(nil) })
}

func TestMutationDuringDispatchAppliesToNextTick(t *testing.T) {
	e, _ := newTestEstimator()
	var calls []string

	var self Subscription
	self = e.Subscribe(func() {
		calls = append(calls, "once")
		e.Unsubscribe(self)
		e.Subscribe(func() { calls = append(calls, "late") })
	})
	e.Subscribe(func() { calls = append(calls, "steady") })

	e.BeginStep("step", 1, 1, 3)
	e.Tick()
	assert.Equal(t, []string{"once", "steady"}, calls)

	calls = nil
	e.Tick()
	assert.Equal(t, []string{"steady", "late"}, calls)
}

func TestSubscriberPanicPropagates(t *testing.T) {
	e, _ := newTestEstimator()
	e.Subscribe(func() { panic("subscriber failed") })

	e.BeginStep("step", 1, 1, 1)
	assert.PanicsWithValue(t, "subscriber failed", e.Tick)
	assert.Equal(t, 1, e.TickNumber(), "counter is updated before dispatch")
}

func TestSnapshot(t *testing.T) {
	e, clock := newTestEstimator()
	e.BeginStep("Migrating users", 1, 3, 40)
	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}
	e.Pause()

	s := e.Snapshot()
	assert.Equal(t, Snapshot{
		Description: "Migrating users",
		StepNumber:  1,
		StepTotal:   3,
		TickNumber:  20,
		TickTotal:   40,
		Remaining:   20 * time.Second,
		Paused:      true,
	}, s)
	assert.True(t, s.RemainingKnown())
	assert.InDelta(t, 50.0, s.PercentComplete(), 1e-9)

	assert.False(t, Snapshot{Remaining: time.Second}.RemainingKnown(), "no tick total")
	assert.False(t, Snapshot{TickTotal: 1, Remaining: Unknown}.RemainingKnown())
	assert.Zero(t, Snapshot{TickNumber: 3}.PercentComplete())
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(time.Minute)
	assert.Equal(t, epoch.Add(time.Minute), c.Now())

	c.Set(epoch)
	assert.Equal(t, epoch, c.Now())
}
