// Package sensors provides the flight core's interface to the inertial and
// ranging sensors.
package sensors

import (
	"errors"
	"time"

	"github.com/b3nn0/hoverfly/vehicle"
)

// ErrNotReady means no new sample has arrived since the last read. It is not
// a fault; the caller reuses its previous estimate.
var ErrNotReady = errors.New("sensor not ready")

// IMUSample is one raw reading in the IMU body frame (x forward, y left,
// z up). Counts divided by the scale give deg/s and g.
type IMUSample struct {
	T          time.Time
	Gyro       vehicle.Axis3
	Accel      vehicle.Axis3
	GyroScale  float64 // counts per deg/s
	AccelScale float64 // counts per g
}

// IMUReader provides an interface to Inertial Measurement Units. It is a
// light abstraction on top of the goflying drivers and the simulator.
type IMUReader interface {
	// Read returns the newest sample, or ErrNotReady.
	Read() (IMUSample, error)
	// Close stops reading the IMU.
	Close()
}

// RangeReader is a downward-facing distance sensor.
type RangeReader interface {
	// Distance returns the slant range in meters, or ErrNotReady.
	Distance() (float64, error)
	Close()
}
