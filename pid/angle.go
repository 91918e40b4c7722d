package pid

import (
	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

var DefaultAngleGains = Gains{Kp: 6, Ki: 3, WindupMax: 20}

// DefaultMaxRate bounds the rate demand produced by Angle, deg/s.
const DefaultMaxRate = 70.0

// Angle turns roll and pitch angle demands (degrees) into rate demands
// (deg/s) for the Rate stage. It has no derivative term.
type Angle struct {
	roll    axis
	pitch   axis
	MaxRate float64
}

func NewAngle(g Gains) *Angle {
	g.Kd = 0
	return &Angle{roll: newAxis(g), pitch: newAxis(g), MaxRate: DefaultMaxRate}
}

func (a *Angle) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	roll := a.roll.run(dt, reset, demands.Roll, state.Phi)
	pitch := a.pitch.run(dt, reset, demands.Pitch, vehicle.PitchDemandFrame(state.Theta))

	demands.Roll = common.ConstrainAbs(roll, a.MaxRate)
	demands.Pitch = common.ConstrainAbs(pitch, a.MaxRate)
	return demands
}

func (*Angle) stage() {}
