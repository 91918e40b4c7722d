// Package dynamics is a 12-state rigid-body quadrotor model (Bouabdallah,
// Murrieri and Siegwart, ICRA 2004) integrated with forward Euler. It drives
// the simulator and serves as ground truth in tests.
package dynamics

import (
	"math"

	"github.com/b3nn0/hoverfly/vehicle"
)

const (
	DefaultGravity    = 9.80665 // m/s^2
	DefaultAirDensity = 1.225   // kg/m^3
)

// State vector indices.
const (
	ix = iota
	idx
	iy
	idy
	iz
	idz
	iphi
	idphi
	itheta
	idtheta
	ipsi
	idpsi
)

// Dynamics integrates the body state in a right-handed x-forward, y-left,
// z-up frame. Use State for the vehicle convention.
type Dynamics struct {
	params  vehicle.Params
	dt      float64
	gravity float64
	rho     float64

	x        [12]float64
	airborne bool

	// thrust acceleration u1/m from the last update
	thrustAccel float64
}

// New returns a model at rest on the ground, stepped at dt seconds.
func New(params vehicle.Params, dt float64) *Dynamics {
	return NewWithEnvironment(params, dt, DefaultGravity, DefaultAirDensity)
}

func NewWithEnvironment(params vehicle.Params, dt, gravity, airDensity float64) *Dynamics {
	return &Dynamics{
		params:  params,
		dt:      dt,
		gravity: gravity,
		rho:     airDensity,
	}
}

// Update advances the model one step. omegas are rotor speeds in rad/s, in
// the rotor order of g.
func (d *Dynamics) Update(omegas []float64, g vehicle.Geometry) {
	var u1, u2, u3, u4 float64
	n := g.Count()
	if len(omegas) < n {
		n = len(omegas)
	}
	for i := 0; i < n; i++ {
		omega2 := d.rho * omegas[i] * omegas[i]
		u1 += d.params.B * omega2
		u2 += d.params.B * omega2 * g.Roll(i)
		u3 += d.params.B * omega2 * g.Pitch(i)
		// reaction torque opposes net rotor spin
		u4 -= d.params.D * omega2 * g.Yaw(i)
	}

	m := d.params.M
	d.thrustAccel = u1 / m

	phi, theta, psi := d.x[iphi], d.x[itheta], d.x[ipsi]
	accel := bodyZToInertial(u1/m, phi, theta, psi)

	// Latched: once net vertical acceleration has been positive we stay in
	// free flight.
	if accel[2]-d.gravity > 0 {
		d.airborne = true
	}
	if !d.airborne {
		return
	}

	l, inertia := d.params.L, d.params.I
	var dxdt [12]float64
	dxdt[ix] = d.x[idx]
	dxdt[idx] = (math.Cos(phi)*math.Sin(theta)*math.Cos(psi) + math.Sin(phi)*math.Sin(psi)) * u1 / m
	dxdt[iy] = d.x[idy]
	dxdt[idy] = (math.Cos(phi)*math.Sin(theta)*math.Sin(psi) - math.Sin(phi)*math.Cos(psi)) * u1 / m
	dxdt[iz] = d.x[idz]
	dxdt[idz] = -d.gravity + math.Cos(phi)*math.Cos(theta)*u1/m
	dxdt[iphi] = d.x[idphi]
	dxdt[idphi] = l / inertia * u2
	dxdt[itheta] = d.x[idtheta]
	dxdt[idtheta] = l / inertia * u3
	dxdt[ipsi] = d.x[idpsi]
	dxdt[idpsi] = l / inertia * u4

	for i := range d.x {
		d.x[i] += d.dt * dxdt[i]
	}
}

// State returns the model state in the vehicle convention (degrees, y
// rightward).
func (d *Dynamics) State() vehicle.State {
	return vehicle.FromBody(d.x)
}

// Airborne reports whether the vehicle has ever left the ground.
func (d *Dynamics) Airborne() bool {
	return d.airborne
}

// Dt is the integration step in seconds.
func (d *Dynamics) Dt() float64 {
	return d.dt
}

// BodyRates returns the body angular rates in rad/s, in the model frame.
func (d *Dynamics) BodyRates() vehicle.Axis3 {
	return vehicle.Axis3{X: d.x[idphi], Y: d.x[idtheta], Z: d.x[idpsi]}
}

// Attitude returns phi, theta and psi in radians, in the model frame.
func (d *Dynamics) Attitude() (phi, theta, psi float64) {
	return d.x[iphi], d.x[itheta], d.x[ipsi]
}

// SpecificForce is what an accelerometer fixed to the body would read, in g.
// In free flight only rotor thrust acts along body z; at rest the ground
// reaction cancels gravity.
func (d *Dynamics) SpecificForce() vehicle.Axis3 {
	if d.airborne {
		return vehicle.Axis3{Z: d.thrustAccel / d.gravity}
	}
	phi, theta := d.x[iphi], d.x[itheta]
	return vehicle.Axis3{
		X: -math.Sin(theta),
		Y: math.Cos(theta) * math.Sin(phi),
		Z: math.Cos(theta) * math.Cos(phi),
	}
}

// Range is the slant distance a downward rangefinder would measure.
func (d *Dynamics) Range() float64 {
	z := d.x[iz]
	if z <= 0 {
		return 0
	}
	c := math.Cos(d.x[iphi]) * math.Cos(d.x[itheta])
	if c < 0.1 {
		c = 0.1
	}
	return z / c
}

// bodyZToInertial rotates a body-z vector into the inertial frame; this is
// the rightmost column of the body-to-inertial rotation matrix.
func bodyZToInertial(bodyZ, phi, theta, psi float64) [3]float64 {
	cph, sph := math.Cos(phi), math.Sin(phi)
	cth, sth := math.Cos(theta), math.Sin(theta)
	cps, sps := math.Cos(psi), math.Sin(psi)

	return [3]float64{
		bodyZ * (sph*sps + cph*cps*sth),
		bodyZ * (cph*sps*sth - cps*sph),
		bodyZ * (cph * cth),
	}
}
