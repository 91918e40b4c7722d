// Package mixer turns thrust/roll/pitch/yaw demands into motor fractions for
// a quad-X frame.
package mixer

import (
	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

// Motor order follows Betaflight:
//
//	4   2
//	  X
//	3   1
var (
	rollSigns  = [vehicle.MotorCount]float64{-1, -1, +1, +1}
	pitchSigns = [vehicle.MotorCount]float64{+1, -1, +1, -1}
	yawSigns   = [vehicle.MotorCount]float64{-1, +1, +1, -1}
)

// DefaultOutputScale maps rate controller output onto motor fractions: the
// controllers work in thousandths of full throttle, as Betaflight does.
const DefaultOutputScale = 0.001

// QuadX is stateless. RollPitchScale and YawScale convert controller output
// units into motor fractions; zero means 1.
type QuadX struct {
	RollPitchScale float64
	YawScale       float64
}

// NewQuadX returns a mixer with the given output scales.
func NewQuadX(rollPitch, yaw float64) QuadX {
	return QuadX{RollPitchScale: rollPitch, YawScale: yaw}
}

func (QuadX) Count() int { return vehicle.MotorCount }

func (QuadX) Roll(i int) float64 { return rollSigns[i] }

func (QuadX) Pitch(i int) float64 { return pitchSigns[i] }

func (QuadX) Yaw(i int) float64 { return yawSigns[i] }

// Mix returns motor commands clamped to [0,1].
func (q QuadX) Mix(d vehicle.Demands) vehicle.Motors {
	rp := scale(q.RollPitchScale)
	y := scale(q.YawScale)

	var m vehicle.Motors
	for i := range m {
		v := d.Thrust + rp*d.Roll*rollSigns[i] + rp*d.Pitch*pitchSigns[i] + y*d.Yaw*yawSigns[i]
		m[i] = common.Constrain(v, 0, 1)
	}
	return m
}

func scale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}
