// Package vehicle defines the values exchanged by the flight packages each
// tick and the single place where coordinate-frame signs are converted.
package vehicle

import "time"

// MotorCount is fixed by the quad-X frame.
const MotorCount = 4

// State is the estimated (or simulated) vehicle state. Angles are in degrees
// and rates in degrees/second; positions in meters.
//
// Conventions: x forward, y rightward, z up, Phi positive right wing down,
// Theta positive nose up, Psi positive nose right.
type State struct {
	X, DX         float64
	Y, DY         float64
	Z, DZ         float64
	Phi, DPhi     float64
	Theta, DTheta float64
	Psi, DPsi     float64
}

// Demands carries pilot or autopilot intent through the controller stages.
// Thrust is in [0,1]. Pitch is nose-down positive.
type Demands struct {
	Thrust float64
	Roll   float64
	Pitch  float64
	Yaw    float64
}

// Motors holds normalized [0,1] motor commands, in mixer order.
type Motors [MotorCount]float64

// Params are the physical constants of the airframe.
type Params struct {
	M float64 // mass, kg
	L float64 // arm length, m
	B float64 // thrust coefficient
	D float64 // drag coefficient
	I float64 // body inertia, kg m^2
}

// DIYQuad is a small 100 g frame.
var DIYQuad = Params{
	M: 0.1,
	L: 0.05,
	B: 3.6e-5,
	D: 7e-6,
	I: 2e-5,
}

// Geometry exposes the per-rotor sign factors of a frame. The mixer and the
// dynamics model read the same table.
type Geometry interface {
	Count() int
	Roll(i int) float64
	Pitch(i int) float64
	Yaw(i int) float64
}

// Axis3 is a three-axis sensor reading.
type Axis3 struct {
	X, Y, Z float64
}

// Quaternion is a unit attitude quaternion.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the level, north-facing attitude.
var Identity = Quaternion{W: 1}

// Snapshot is a copy of one completed tick. It is the only flight value that
// is handed to other goroutines.
type Snapshot struct {
	Tick     uint64
	Time     time.Time
	State    State
	Demands  Demands
	Motors   Motors
	Armed    bool
	Failsafe bool
}
