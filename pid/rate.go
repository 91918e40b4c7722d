package pid

import (
	"math"

	"github.com/b3nn0/hoverfly/vehicle"
)

// DefaultRateGains suit the DIYQuad frame at 2 kHz.
var DefaultRateGains = Gains{Kp: 0.225, Ki: 1.875, Kd: 0.375, WindupMax: 6}

// BigRate is the angular velocity (deg/s) above which the rate integrators
// are cleared.
const BigRate = 40.0

// Rate closes the roll and pitch angular-velocity loops. Demands are in deg/s.
type Rate struct {
	roll  axis
	pitch axis

	// ResetOnBigRate clears an axis integrator whenever its measured rate
	// exceeds BigRate.
	ResetOnBigRate bool
}

func NewRate(g Gains) *Rate {
	return &Rate{roll: newAxis(g), pitch: newAxis(g)}
}

func (r *Rate) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	rollRate := state.DPhi
	pitchRate := vehicle.PitchDemandFrame(state.DTheta)

	if r.ResetOnBigRate {
		if math.Abs(rollRate) > BigRate {
			r.roll.integral = 0
		}
		if math.Abs(pitchRate) > BigRate {
			r.pitch.integral = 0
		}
	}

	demands.Roll = r.roll.run(dt, reset, demands.Roll, rollRate)
	demands.Pitch = r.pitch.run(dt, reset, demands.Pitch, pitchRate)
	return demands
}

func (*Rate) stage() {}
