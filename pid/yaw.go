package pid

import "github.com/b3nn0/hoverfly/vehicle"

var DefaultYawGains = Gains{Kp: 2.0, Ki: 0.1, WindupMax: 0.4}

// Yaw closes the yaw-rate loop; demand and measurement are nose-right
// positive deg/s.
type Yaw struct {
	yaw axis
}

func NewYaw(g Gains) *Yaw {
	g.Kd = 0
	return &Yaw{yaw: newAxis(g)}
}

func (y *Yaw) Run(dt float64, reset bool, state vehicle.State, demands vehicle.Demands) vehicle.Demands {
	demands.Yaw = y.yaw.run(dt, reset, demands.Yaw, state.DPsi)
	return demands
}

func (*Yaw) stage() {}
