// Package estimator turns gyro, accelerometer and rangefinder samples into
// the vehicle state used by the controllers.
package estimator

import (
	"github.com/b3nn0/hoverfly/common"
	"github.com/b3nn0/hoverfly/vehicle"
)

// Attitude supplies the orientation quaternion. gyro is in rad/s.
type Attitude interface {
	Update(dt float64, gyro, accel vehicle.Axis3) vehicle.Quaternion
}

// Complementary is the flight estimator: rates straight from the gyro,
// angles from the attitude source, altitude and climb rate from Vertical.
type Complementary struct {
	attitude Attitude
	vertical Vertical
}

func NewComplementary(attitude Attitude) *Complementary {
	return &Complementary{attitude: attitude}
}

// Estimate advances the filter by dt seconds. gyro (deg/s) and accel (g) are
// calibrated IMU-frame readings; rangefinder is the slant range in meters.
func (c *Complementary) Estimate(dt float64, gyro, accel vehicle.Axis3, rangefinder float64) vehicle.State {
	gyroRad := vehicle.Axis3{
		X: common.Deg2Rad(gyro.X),
		Y: common.Deg2Rad(gyro.Y),
		Z: common.Deg2Rad(gyro.Z),
	}
	q := c.attitude.Update(dt, gyroRad, accel)

	phi, theta, psi := vehicle.SensorAttitude(Euler(q))
	dphi, dtheta, dpsi := vehicle.SensorRates(gyro)
	z, dz := c.vertical.Update(dt, accel, q, rangefinder)

	return vehicle.State{
		Phi:    common.Rad2Deg(phi),
		Theta:  common.Rad2Deg(theta),
		Psi:    common.Rad2Deg(psi),
		DPhi:   dphi,
		DTheta: dtheta,
		DPsi:   dpsi,
		Z:      z,
		DZ:     dz,
	}
}

// Reset clears the climb-rate integral. The attitude is kept.
func (c *Complementary) Reset() {
	c.vertical.Reset()
}
