package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/b3nn0/hoverfly/flight"
	"github.com/b3nn0/hoverfly/sim"
)

// flySim ticks the default vehicle against the simulator for d and returns
// the number of ticks with any motor at its limit.
func flySim(t *testing.T, seq *flight.Sequencer, period, d time.Duration) int {
	t.Helper()
	ctx := context.Background()
	saturated := 0
	for i := 0; i < int(d/period); i++ {
		st := seq.Tick(ctx)
		if !st.Armed {
			t.Fatalf("disarmed at tick %d", st.Tick)
		}
		for _, m := range st.Motors {
			if m <= 0 || m >= 1 {
				saturated++
				break
			}
		}
	}
	return saturated
}

func TestSimulatedRollStep(t *testing.T) {
	s := newDefaultSettings()
	s.Simulate = true
	vio := initSimulation(s)

	clock := flight.NewFakeClock(time.Unix(0, 0))
	seq, err := flight.NewSequencer(flight.DefaultConfig(), flight.Parts{
		IMU:        vio.imu,
		Range:      vio.rng,
		Receiver:   vio.receiver,
		Estimator:  vio.est,
		Controller: buildController(s),
		Mixer:      buildMixer(s),
		ESC:        vio.esc,
		Clock:      clock,
		Waiter:     clock,
	})
	if err != nil {
		t.Fatal(err)
	}

	simSticks.Set(sim.ChArm, 2000)
	for i := 0; i < 20; i++ {
		seq.Tick(context.Background())
	}

	// half throttle is just above hover; 1600 on roll asks for 6 degrees right
	simSticks.Set(sim.ChThrottle, 1500)
	simSticks.Set(sim.ChRoll, 1600)
	if n := flySim(t, seq, s.loopPeriod(), 2*time.Second); n > 0 {
		t.Errorf("%d ticks with a saturated motor during the roll step", n)
	}
	truth := simPlant.Truth()
	if math.Abs(truth.Phi-6) > 0.5 || math.Abs(truth.DPhi) > 1 {
		t.Errorf("roll step: phi %.2f deg, dphi %.2f deg/s, want 6 and 0", truth.Phi, truth.DPhi)
	}

	simSticks.Set(sim.ChRoll, 1500)
	if n := flySim(t, seq, s.loopPeriod(), 2*time.Second); n > 0 {
		t.Errorf("%d ticks with a saturated motor while leveling", n)
	}
	truth = simPlant.Truth()
	if math.Abs(truth.Phi) > 0.5 || math.Abs(truth.Theta) > 0.5 {
		t.Errorf("after release: phi %.2f theta %.2f deg, want level", truth.Phi, truth.Theta)
	}
}
