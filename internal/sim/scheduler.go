package sim

import (
	"sync"
	"time"
)

// TickFunc receives the elapsed milliseconds since the previous tick.
type TickFunc func(dtMs float64)

// Scheduler hands the simulator its next tick. Cancel stops any pending
// callback; a callback that already fired before Cancel is harmless because
// the simulator discards ticks carrying a stale run ID.
type Scheduler interface {
	ScheduleNextTick(fn TickFunc)
	Cancel()
}

// TickerScheduler schedules ticks on a wall-clock timer and measures real
// elapsed time between callbacks, so the integration step stays
// frame-rate independent even when the timer drifts.
type TickerScheduler struct {
	Interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	last  time.Time
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	return &TickerScheduler{Interval: interval}
}

func (t *TickerScheduler) ScheduleNextTick(fn TickFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last.IsZero() {
		t.last = time.Now()
	}
	t.timer = time.AfterFunc(t.Interval, func() {
		t.mu.Lock()
		now := time.Now()
		dt := now.Sub(t.last)
		t.last = now
		t.mu.Unlock()
		fn(float64(dt.Milliseconds()))
	})
}

func (t *TickerScheduler) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.last = time.Time{}
}

// Runner drives a Simulator from a Scheduler for server-paced play. It
// re-arms after every tick while the run it started is still the current
// one; a Runner left behind by a newer Start simply stops re-arming.
type Runner struct {
	sim   *Simulator
	sched Scheduler

	mu    sync.Mutex
	runID string
}

func NewRunner(s *Simulator, sched Scheduler) *Runner {
	return &Runner{sim: s, sched: sched}
}

// Start begins a fresh run and returns its ID.
func (r *Runner) Start() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sched.Cancel()
	r.runID = r.sim.Start()
	r.armLocked(r.runID)
	return r.runID
}

func (r *Runner) armLocked(runID string) {
	r.sched.ScheduleNextTick(func(dtMs float64) {
		if !r.sim.Tick(runID, dtMs) {
			return
		}
		r.mu.Lock()
		if r.runID == runID {
			r.armLocked(runID)
		}
		r.mu.Unlock()
	})
}

// Stop cancels the pending tick and ends the current run.
func (r *Runner) Stop() {
	r.mu.Lock()
	runID := r.runID
	r.runID = ""
	r.mu.Unlock()

	r.sched.Cancel()
	if runID != "" {
		r.sim.Stop(runID)
	}
}
