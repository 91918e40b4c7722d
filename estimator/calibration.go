package estimator

import (
	"github.com/b3nn0/hoverfly/sensors"
	"github.com/b3nn0/hoverfly/vehicle"
)

// MPU-6x00 full-scale settings used by most small flight controllers.
const (
	GyroScale250DPS = 131.0   // counts per deg/s
	AccelScale2G    = 16384.0 // counts per g
)

// Calibration holds fixed sensor offsets in physical units. They are
// subtracted once per sample and never adapted in flight.
type Calibration struct {
	GyroOffset  vehicle.Axis3 // deg/s
	AccelOffset vehicle.Axis3 // g
}

// Convert turns raw counts into deg/s and g with the offsets removed. The
// result stays in the IMU frame.
func (c Calibration) Convert(s sensors.IMUSample) (gyro, accel vehicle.Axis3) {
	gs := nonZero(s.GyroScale)
	as := nonZero(s.AccelScale)
	gyro = vehicle.Axis3{
		X: s.Gyro.X/gs - c.GyroOffset.X,
		Y: s.Gyro.Y/gs - c.GyroOffset.Y,
		Z: s.Gyro.Z/gs - c.GyroOffset.Z,
	}
	accel = vehicle.Axis3{
		X: s.Accel.X/as - c.AccelOffset.X,
		Y: s.Accel.Y/as - c.AccelOffset.Y,
		Z: s.Accel.Z/as - c.AccelOffset.Z,
	}
	return
}

// MeasureOffsets averages samples taken while the vehicle sits level and
// still. The accelerometer should read +1 g on z.
func MeasureOffsets(samples []sensors.IMUSample) Calibration {
	var cal Calibration
	if len(samples) == 0 {
		return cal
	}
	zero := Calibration{}
	for _, s := range samples {
		g, a := zero.Convert(s)
		cal.GyroOffset.X += g.X
		cal.GyroOffset.Y += g.Y
		cal.GyroOffset.Z += g.Z
		cal.AccelOffset.X += a.X
		cal.AccelOffset.Y += a.Y
		cal.AccelOffset.Z += a.Z
	}
	n := float64(len(samples))
	cal.GyroOffset = vehicle.Axis3{X: cal.GyroOffset.X / n, Y: cal.GyroOffset.Y / n, Z: cal.GyroOffset.Z / n}
	cal.AccelOffset = vehicle.Axis3{X: cal.AccelOffset.X / n, Y: cal.AccelOffset.Y / n, Z: cal.AccelOffset.Z/n - 1}
	return cal
}

func nonZero(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}
