package flight

import (
	"time"

	"github.com/b3nn0/hoverfly/vehicle"
)

// Task runs at a sub-rate of the control loop, after the motor write. It
// receives a copy of the completed tick and must not block.
type Task interface {
	Run(s vehicle.Snapshot)
}

type TaskFunc func(s vehicle.Snapshot)

func (f TaskFunc) Run(s vehicle.Snapshot) { f(s) }

type scheduledTask struct {
	every time.Duration
	next  time.Time
	task  Task
}

// due reports whether the task should run at now and schedules the next run.
// A task that fell behind is not run repeatedly to catch up.
func (t *scheduledTask) due(now time.Time) bool {
	if t.next.IsZero() {
		t.next = now.Add(t.every)
		return true
	}
	if now.Before(t.next) {
		return false
	}
	t.next = t.next.Add(t.every)
	if !t.next.After(now) {
		t.next = now.Add(t.every)
	}
	return true
}

// TickStats describes the timing and outcome of one tick.
type TickStats struct {
	Tick     uint64
	Start    time.Time
	Busy     time.Duration // sensor read to last task, excluding the wait
	Overrun  bool          // Busy exceeded the loop period
	Fresh    bool          // the estimator advanced on a new sample
	Armed    bool
	Failsafe bool
	Motors   vehicle.Motors
}

type Observer interface {
	ObserveTick(TickStats)
}

type ObserverFunc func(TickStats)

func (f ObserverFunc) ObserveTick(s TickStats) { f(s) }
