// Package flight runs the control loop: one synchronous tick reads the
// sensors, advances the estimator, runs the controller pipeline, mixes and
// writes the motors, then waits out the rest of the loop period.
package flight

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/b3nn0/hoverfly/esc"
	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/rx"
	"github.com/b3nn0/hoverfly/sensors"
	"github.com/b3nn0/hoverfly/vehicle"
)

// Phase is the tick stage currently executing.
type Phase int32

const (
	Idle Phase = iota
	ReadSensors
	Estimate
	RunControllers
	Mix
	WriteMotors
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case ReadSensors:
		return "ReadSensors"
	case Estimate:
		return "Estimate"
	case RunControllers:
		return "RunControllers"
	case Mix:
		return "Mix"
	case WriteMotors:
		return "WriteMotors"
	}
	return "Unknown"
}

// Estimator turns calibrated IMU readings into a vehicle state.
type Estimator interface {
	Estimate(dt float64, gyro, accel vehicle.Axis3, rangefinder float64) vehicle.State
}

// Resetter is implemented by estimators that integrate state which must not
// carry across a disarm, such as a climb-rate integral.
type Resetter interface {
	Reset()
}

// Controller turns pilot demands into corrected demands. reset is set while
// disarmed or with the throttle down.
type Controller interface {
	Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands
}

// Mixer turns demands into normalized motor commands.
type Mixer interface {
	Mix(d vehicle.Demands) vehicle.Motors
}

// Parts are the collaborators a Sequencer drives. Range, Clock and Waiter
// are optional.
type Parts struct {
	IMU         sensors.IMUReader
	Range       sensors.RangeReader
	Receiver    rx.Receiver
	Calibration estimator.Calibration
	Estimator   Estimator
	Controller  Controller
	Mixer       Mixer
	ESC         esc.Writer
	Clock       Clock
	Waiter      Waiter
}

type Sequencer struct {
	cfg   Config
	parts Parts

	phase  atomic.Int32
	arming Arming

	state        vehicle.State
	height       float64
	lastEstimate time.Time
	estimated    bool
	tick         uint64

	sensorErrors uint64
	writeErrors  uint64

	tasks     []*scheduledTask
	observers []Observer

	mu   sync.Mutex
	snap vehicle.Snapshot
}

func NewSequencer(cfg Config, parts Parts) (*Sequencer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch {
	case parts.IMU == nil:
		return nil, errors.New("no IMU")
	case parts.Receiver == nil:
		return nil, errors.New("no receiver")
	case parts.Estimator == nil:
		return nil, errors.New("no estimator")
	case parts.Controller == nil:
		return nil, errors.New("no controller")
	case parts.Mixer == nil:
		return nil, errors.New("no mixer")
	case parts.ESC == nil:
		return nil, errors.New("no motor writer")
	}
	if parts.Clock == nil {
		parts.Clock = SystemClock{}
	}
	if parts.Waiter == nil {
		parts.Waiter = SleepWaiter{Clock: parts.Clock}
	}
	return &Sequencer{cfg: cfg, parts: parts}, nil
}

// AddTask schedules t at rateHz. Tasks are added before Run.
func (s *Sequencer) AddTask(rateHz float64, t Task) error {
	if !(rateHz > 0) || math.IsInf(rateHz, 1) {
		return errors.Errorf("invalid task rate %v Hz", rateHz)
	}
	every := time.Duration(float64(time.Second) / rateHz)
	if every < s.cfg.Period {
		every = s.cfg.Period
	}
	s.tasks = append(s.tasks, &scheduledTask{every: every, task: t})
	return nil
}

// AddObserver registers o for per-tick stats. Observers are added before Run.
func (s *Sequencer) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Sequencer) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Sequencer) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// Snapshot returns a copy of the last completed tick. Safe for concurrent
// use.
func (s *Sequencer) Snapshot() vehicle.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Failsafes is the number of failsafe events seen.
func (s *Sequencer) Failsafes() uint64 {
	return s.arming.Failsafes()
}

// Tick runs one control cycle and waits out the rest of the period.
func (s *Sequencer) Tick(ctx context.Context) TickStats {
	start := s.parts.Clock.Now()
	ctlDt := s.cfg.Period.Seconds()

	s.setPhase(ReadSensors)
	frame := s.parts.Receiver.Read()
	s.arming.Update(frame, s.cfg)
	armed := s.arming.Armed()
	demands := s.cfg.Demands(frame)

	sample, err := s.parts.IMU.Read()
	fresh := err == nil
	if err != nil && !errors.Is(err, sensors.ErrNotReady) {
		s.sensorErrors++
		if s.sensorErrors == 1 || s.sensorErrors%1000 == 0 {
			log.Printf("Flight Warning: IMU read failed (%d times): %s\n", s.sensorErrors, err.Error())
		}
	}
	if s.parts.Range != nil {
		if h, err := s.parts.Range.Distance(); err == nil {
			s.height = h
		}
	}

	s.setPhase(Estimate)
	if r, ok := s.parts.Estimator.(Resetter); ok && !armed {
		r.Reset()
	}
	if fresh {
		gyro, accel := s.parts.Calibration.Convert(sample)
		s.state = s.parts.Estimator.Estimate(s.estimateDt(start), gyro, accel, s.height)
		s.lastEstimate = start
		s.estimated = true
	}

	s.setPhase(RunControllers)
	reset := !armed || demands.Thrust < s.cfg.ThrottleDown
	out := s.parts.Controller.Run(ctlDt, reset, s.state, demands)

	s.setPhase(Mix)
	var motors vehicle.Motors
	if armed {
		motors = s.parts.Mixer.Mix(out)
	}

	s.setPhase(WriteMotors)
	if err := s.parts.ESC.Write(motors); err != nil {
		s.writeErrors++
		if s.writeErrors == 1 || s.writeErrors%1000 == 0 {
			log.Printf("Flight Error: motor write failed (%d times): %s\n", s.writeErrors, err.Error())
		}
	}
	s.setPhase(Idle)

	s.tick++
	snap := vehicle.Snapshot{
		Tick:     s.tick,
		Time:     start,
		State:    s.state,
		Demands:  out,
		Motors:   motors,
		Armed:    armed,
		Failsafe: s.arming.Failsafe(),
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	for _, t := range s.tasks {
		if t.due(start) {
			t.task.Run(snap)
		}
	}

	busy := s.parts.Clock.Now().Sub(start)
	stats := TickStats{
		Tick:     s.tick,
		Start:    start,
		Busy:     busy,
		Overrun:  busy > s.cfg.Period,
		Fresh:    fresh,
		Armed:    armed,
		Failsafe: snap.Failsafe,
		Motors:   motors,
	}
	for _, o := range s.observers {
		o.ObserveTick(stats)
	}

	s.parts.Waiter.WaitUntil(ctx, start.Add(s.cfg.Period))
	return stats
}

// estimateDt is the time since the estimator last advanced, bounded to
// (0, MaxDt]. The first step uses one loop period.
func (s *Sequencer) estimateDt(now time.Time) float64 {
	if !s.estimated {
		return s.cfg.Period.Seconds()
	}
	dt := now.Sub(s.lastEstimate)
	switch {
	case dt <= 0:
		dt = s.cfg.Period
	case dt > s.cfg.MaxDt:
		dt = s.cfg.MaxDt
	}
	return dt.Seconds()
}

// Run ticks until ctx is done, then stops the motors.
func (s *Sequencer) Run(ctx context.Context) error {
	log.Printf("Flight Info: control loop starting, period %v\n", s.cfg.Period)
	defer func() {
		if err := s.parts.ESC.Write(vehicle.Motors{}); err != nil {
			log.Printf("Flight Error: stopping motors: %s\n", err.Error())
		}
		s.setPhase(Idle)
		log.Printf("Flight Info: control loop stopped after %d ticks\n", s.tick)
	}()
	for ctx.Err() == nil {
		s.Tick(ctx)
	}
	return ctx.Err()
}
