package estimator

import (
	"math"

	"github.com/b3nn0/hoverfly/vehicle"
)

// DefaultBeta is the Madgwick gradient step gain. Values of 0.02 or 0.025
// have also been suggested.
const DefaultBeta = 0.1

// Madgwick is a gradient-descent IMU orientation filter. It provides the
// attitude quaternion consumed by the vertical filter.
type Madgwick struct {
	Beta float64
	q    vehicle.Quaternion
}

func NewMadgwick(beta float64) *Madgwick {
	return &Madgwick{Beta: beta, q: vehicle.Identity}
}

// Update integrates one sample. gyro is in rad/s, accel in any unit; both in
// the IMU frame.
func (m *Madgwick) Update(dt float64, gyro, accel vehicle.Axis3) vehicle.Quaternion {
	q0, q1, q2, q3 := m.q.W, m.q.X, m.q.Y, m.q.Z
	gx, gy, gz := gyro.X, gyro.Y, gyro.Z
	ax, ay, az := accel.X, accel.Y, accel.Z

	// Rate of change of quaternion from gyroscope
	qDot1 := 0.5 * (-q1*gx - q2*gy - q3*gz)
	qDot2 := 0.5 * (q0*gx + q2*gz - q3*gy)
	qDot3 := 0.5 * (q0*gy - q1*gz + q3*gx)
	qDot4 := 0.5 * (q0*gz + q1*gy - q2*gx)

	// Accelerometer feedback only with a valid measurement
	if n := norm(ax, ay, az, 0); n > 0 {
		ax /= n
		ay /= n
		az /= n

		_2q0 := 2.0 * q0
		_2q1 := 2.0 * q1
		_2q2 := 2.0 * q2
		_2q3 := 2.0 * q3
		_4q0 := 4.0 * q0
		_4q1 := 4.0 * q1
		_4q2 := 4.0 * q2
		_8q1 := 8.0 * q1
		_8q2 := 8.0 * q2
		q0q0 := q0 * q0
		q1q1 := q1 * q1
		q2q2 := q2 * q2
		q3q3 := q3 * q3

		// Gradient descent corrective step
		s0 := _4q0*q2q2 + _2q2*ax + _4q0*q1q1 - _2q1*ay
		s1 := _4q1*q3q3 - _2q3*ax + 4.0*q0q0*q1 - _2q0*ay - _4q1 + _8q1*q1q1 + _8q1*q2q2 + _4q1*az
		s2 := 4.0*q0q0*q2 + _2q0*ax + _4q2*q3q3 - _2q3*ay - _4q2 + _8q2*q1q1 + _8q2*q2q2 + _4q2*az
		s3 := 4.0*q1q1*q3 - _2q1*ax + 4.0*q2q2*q3 - _2q2*ay

		// A zero step means the estimate already agrees with gravity.
		if sn := norm(s0, s1, s2, s3); sn > 0 {
			qDot1 -= m.Beta * s0 / sn
			qDot2 -= m.Beta * s1 / sn
			qDot3 -= m.Beta * s2 / sn
			qDot4 -= m.Beta * s3 / sn
		}
	}

	q0 += qDot1 * dt
	q1 += qDot2 * dt
	q2 += qDot3 * dt
	q3 += qDot4 * dt

	n := norm(q0, q1, q2, q3)
	m.q = vehicle.Quaternion{W: q0 / n, X: q1 / n, Y: q2 / n, Z: q3 / n}
	return m.q
}

// Euler returns roll, pitch and yaw in radians, in the IMU frame.
func Euler(q vehicle.Quaternion) (phi, theta, psi float64) {
	phi = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	theta = math.Asin(clampUnit(2 * (q.W*q.Y - q.Z*q.X)))
	psi = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return
}

func norm(a, b, c, d float64) float64 {
	return math.Sqrt(a*a + b*b + c*c + d*d)
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
