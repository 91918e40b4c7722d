package vehicle

import "math"

// Sign conversions between frames. The IMU and the dynamics model both work in
// a right-handed body frame with x forward, y left and z up (FLU). State uses
// y rightward, pitch nose-up and yaw nose-right, so y, pitch and yaw flip.
// Roll is right-wing-down positive in every frame.

const degPerRad = 180 / math.Pi

// SensorRates converts FLU body rates to State rates.
func SensorRates(g Axis3) (dphi, dtheta, dpsi float64) {
	return g.X, -g.Y, -g.Z
}

// SensorAttitude converts FLU Euler angles to State angles.
func SensorAttitude(phi, theta, psi float64) (float64, float64, float64) {
	return phi, -theta, -psi
}

// FromBody converts a dynamics state vector (x, dx, y, dy, z, dz, phi, dphi,
// theta, dtheta, psi, dpsi), FLU and in radians, to a State.
func FromBody(x [12]float64) State {
	phi, theta, psi := SensorAttitude(x[6], x[8], x[10])
	dphi, dtheta, dpsi := SensorRates(Axis3{X: x[7], Y: x[9], Z: x[11]})
	return State{
		X:      x[0],
		DX:     x[1],
		Y:      -x[2],
		DY:     -x[3],
		Z:      x[4],
		DZ:     x[5],
		Phi:    phi * degPerRad,
		DPhi:   dphi * degPerRad,
		Theta:  theta * degPerRad,
		DTheta: dtheta * degPerRad,
		Psi:    psi * degPerRad,
		DPsi:   dpsi * degPerRad,
	}
}

// PitchDemandFrame moves a measured pitch angle or rate into the nose-down
// positive convention of pitch demands. Apply exactly once per controller.
func PitchDemandFrame(v float64) float64 {
	return -v
}
