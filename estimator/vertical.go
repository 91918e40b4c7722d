package estimator

import "github.com/b3nn0/hoverfly/vehicle"

// Vertical fuses accelerometer z with a rangefinder into altitude and climb
// rate. It has no tunable gain: climb rate is the tilt-projected integral of
// vertical acceleration and altitude is the projected range.
type Vertical struct {
	integral float64
}

// Update returns altitude z and climb rate dz. accel is in g in the body
// frame, q is the current attitude and h the rangefinder slant distance.
func (v *Vertical) Update(dt float64, accel vehicle.Axis3, q vehicle.Quaternion, h float64) (z, dz float64) {
	// body z axis projected onto world z; 1 - 2(x^2 + y^2) for a unit
	// quaternion
	rz := q.W*q.W - q.X*q.X - q.Y*q.Y + q.Z*q.Z

	v.integral += dt * (accel.Z - 1) * rz

	return h * rz, v.integral
}

func (v *Vertical) Reset() {
	v.integral = 0
}
