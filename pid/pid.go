// Package pid implements the cascaded flight controllers. Each controller owns
// its integrator state and is run once per tick with an explicit reset flag
// supplied by the caller.
package pid

import (
	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

// Controller is one stage of the cascade. Run consumes the demands produced
// by the previous stage and returns them modified.
type Controller interface {
	Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands
	stage()
}

// Gains for a single degree of freedom. A zero WindupMax disables the
// integrator.
type Gains struct {
	Kp        float64 `json:"kp"`
	Ki        float64 `json:"ki"`
	Kd        float64 `json:"kd"`
	WindupMax float64 `json:"windup_max"`
}

// axis is the PID primitive shared by every variant.
type axis struct {
	Gains
	integral  float64
	prevError float64
}

func newAxis(g Gains) axis {
	return axis{Gains: g}
}

// run returns Kp*e + Ki*integral + Kd*(e - previous e). The derivative is not
// divided by dt; the loop period is fixed and folded into Kd.
func (a *axis) run(dt float64, reset bool, demand, measured float64) float64 {
	err := demand - measured

	if reset {
		a.integral = 0
		a.prevError = err
		return a.Kp * err
	}

	a.integral = common.ConstrainAbs(a.integral+err*dt, a.WindupMax)
	deriv := err - a.prevError
	a.prevError = err

	return a.Kp*err + a.Ki*a.integral + a.Kd*deriv
}

// Pipeline runs its stages in order, passing the same reset flag to each.
type Pipeline []Controller

func (p Pipeline) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	for _, c := range p {
		demands = c.Run(dt, reset, state, demands)
	}
	return demands
}

func (Pipeline) stage() {}
