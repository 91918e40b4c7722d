package pid

import (
	"math"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

var DefaultPositionGains = Gains{Kp: 4, Ki: 0.5, WindupMax: 2}

// Position damps horizontal drift by adding a velocity-hold correction to the
// roll and pitch angle demands. The correction fades out as the pilot moves
// the stick, reaching zero at StickRange degrees of demand.
type Position struct {
	x axis
	y axis

	StickRange float64 // degrees
	MaxTilt    float64 // degrees
}

func NewPosition(g Gains) *Position {
	g.Kd = 0
	return &Position{x: newAxis(g), y: newAxis(g), StickRange: 30, MaxTilt: 10}
}

func (p *Position) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	// Forward drift wants nose up (negative pitch demand); rightward drift
	// wants roll left.
	pitchCorr := common.ConstrainAbs(p.x.run(dt, reset, 0, state.DX), p.MaxTilt)
	rollCorr := common.ConstrainAbs(p.y.run(dt, reset, 0, state.DY), p.MaxTilt)

	demands.Pitch += p.weight(demands.Pitch) * pitchCorr
	demands.Roll += p.weight(demands.Roll) * rollCorr
	return demands
}

func (p *Position) weight(demand float64) float64 {
	if p.StickRange <= 0 {
		return 1
	}
	return 1 - common.Constrain(math.Abs(demand)/p.StickRange, 0, 1)
}

func (*Position) stage() {}
