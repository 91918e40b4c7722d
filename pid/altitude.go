package pid

import (
	"math"

	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

var DefaultAltitudeGains = Gains{Kp: 0.25, Ki: 0.15, WindupMax: 0.4}

// Altitude holds height with the throttle stick centered and turns stick
// deflection into climb or descent. The altitude error sets a climb-rate
// demand and a PI loop on the estimated climb rate trims thrust around Base.
type Altitude struct {
	climb axis

	Base      float64 // hover thrust, [0,1]
	KpZ       float64 // climb-rate demand per meter of error, 1/s
	MaxClimb  float64 // m/s
	StickRate float64 // target change at full stick, m/s
	Band      float64 // stick center band, fraction of half travel
	Takeoff   float64 // target after a reset, m

	target     float64
	inBandPrev bool
}

func NewAltitude(g Gains) *Altitude {
	g.Kd = 0
	return &Altitude{
		climb:      newAxis(g),
		Base:       0.55,
		KpZ:        1.0,
		MaxClimb:   1.0,
		StickRate:  0.5,
		Band:       0.2,
		Takeoff:    0.2,
		target:     0.2,
		inBandPrev: true,
	}
}

// Target is the altitude currently being held, in meters.
func (a *Altitude) Target() float64 {
	return a.target
}

func (a *Altitude) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	if reset {
		// Disarmed or throttle cut: the pilot's thrust passes through.
		a.target = a.Takeoff
		a.inBandPrev = true
		a.climb.run(dt, true, 0, state.DZ)
		return demands
	}

	stick := 2*demands.Thrust - 1
	inBand := math.Abs(stick) < a.Band

	switch {
	case !inBand:
		a.target += a.StickRate * stick * dt
	case !a.inBandPrev:
		// stick recentered: hold where we are
		a.target = state.Z
	}
	a.inBandPrev = inBand

	dzTarget := common.ConstrainAbs(a.KpZ*(a.target-state.Z), a.MaxClimb)
	offset := a.climb.run(dt, false, dzTarget, state.DZ)

	demands.Thrust = common.Constrain(a.Base+offset, 0, 1)
	return demands
}

func (*Altitude) stage() {}
