package estimator

import (
	"math"
	"testing"

	"github.com/b3nn0/hoverfly/sensors"
	"github.com/b3nn0/hoverfly/vehicle"
)

type fixedAttitude vehicle.Quaternion

func (f fixedAttitude) Update(float64, vehicle.Axis3, vehicle.Axis3) vehicle.Quaternion {
	return vehicle.Quaternion(f)
}

func TestVerticalLevelAndStill(t *testing.T) {
	var v Vertical
	ranges := []float64{0, 0.2, 0.35, 1.5, 1.5, 0.01}
	for i, h := range ranges {
		z, dz := v.Update(0.002, vehicle.Axis3{Z: 1}, vehicle.Identity, h)
		if dz != 0 {
			t.Errorf("tick %d: dz = %v, want 0", i, dz)
		}
		if z != h {
			t.Errorf("tick %d: z = %v, want %v", i, z, h)
		}
	}
}

func TestVerticalIntegratesExcessAcceleration(t *testing.T) {
	var v Vertical
	var dz float64
	for i := 0; i < 10; i++ {
		_, dz = v.Update(0.01, vehicle.Axis3{Z: 1.5}, vehicle.Identity, 1)
	}
	if math.Abs(dz-0.05) > 1e-12 {
		t.Errorf("dz = %v, want 0.05", dz)
	}
	v.Reset()
	if _, dz = v.Update(0.01, vehicle.Axis3{Z: 1}, vehicle.Identity, 1); dz != 0 {
		t.Errorf("dz after reset = %v", dz)
	}
}

func TestVerticalTiltProjection(t *testing.T) {
	// 60 degrees of roll
	half := math.Pi / 6
	q := vehicle.Quaternion{W: math.Cos(half), X: math.Sin(half)}
	var v Vertical
	z, _ := v.Update(0.01, vehicle.Axis3{Z: 1}, q, 2)
	if math.Abs(z-1) > 1e-12 {
		t.Errorf("z = %v, want 1", z)
	}
}

func TestMadgwickLevelStaysIdentity(t *testing.T) {
	m := NewMadgwick(DefaultBeta)
	var q vehicle.Quaternion
	for i := 0; i < 1000; i++ {
		q = m.Update(0.002, vehicle.Axis3{}, vehicle.Axis3{Z: 1})
	}
	if q != vehicle.Identity {
		t.Errorf("level filter drifted to %+v", q)
	}
}

func TestMadgwickGyroIntegration(t *testing.T) {
	m := NewMadgwick(0)
	var q vehicle.Quaternion
	for i := 0; i < 100; i++ {
		q = m.Update(0.001, vehicle.Axis3{X: 1}, vehicle.Axis3{})
	}
	phi, theta, psi := Euler(q)
	if math.Abs(phi-0.1) > 1e-3 || math.Abs(theta) > 1e-9 || math.Abs(psi) > 1e-9 {
		t.Errorf("got phi=%v theta=%v psi=%v, want phi=0.1", phi, theta, psi)
	}
}

func TestMadgwickConvergesToGravity(t *testing.T) {
	m := NewMadgwick(0.5)
	// IMU rolled 30 degrees right: gravity appears on +y (FLU frame)
	roll := math.Pi / 6
	accel := vehicle.Axis3{Y: math.Sin(roll), Z: math.Cos(roll)}
	var q vehicle.Quaternion
	for i := 0; i < 5000; i++ {
		q = m.Update(0.002, vehicle.Axis3{}, accel)
	}
	phi, _, _ := Euler(q)
	if math.Abs(phi-roll) > 0.01 {
		t.Errorf("phi = %v, want %v", phi, roll)
	}
}

func TestEstimateLevelAndStill(t *testing.T) {
	c := NewComplementary(NewMadgwick(DefaultBeta))
	for i := 0; i < 500; i++ {
		s := c.Estimate(0.0005, vehicle.Axis3{}, vehicle.Axis3{Z: 1}, 0.42)
		if s.DZ != 0 || s.Z != 0.42 {
			t.Fatalf("tick %d: z=%v dz=%v", i, s.Z, s.DZ)
		}
	}
}

func TestEstimateRateSigns(t *testing.T) {
	c := NewComplementary(fixedAttitude(vehicle.Identity))
	s := c.Estimate(0.001, vehicle.Axis3{X: 10, Y: 20, Z: 30}, vehicle.Axis3{Z: 1}, 1)
	if s.DPhi != 10 || s.DTheta != -20 || s.DPsi != -30 {
		t.Errorf("rates %v %v %v", s.DPhi, s.DTheta, s.DPsi)
	}
}

func TestComplementaryResetKeepsAttitude(t *testing.T) {
	c := NewComplementary(NewMadgwick(0))
	var s vehicle.State
	for i := 0; i < 100; i++ {
		// rolling right at 10 deg/s while accelerating upward
		s = c.Estimate(0.01, vehicle.Axis3{X: 10}, vehicle.Axis3{Z: 1.2}, 1)
	}
	if s.DZ <= 0 || s.Phi < 9 {
		t.Fatalf("before reset: dz=%v phi=%v", s.DZ, s.Phi)
	}
	c.Reset()
	s = c.Estimate(0.01, vehicle.Axis3{}, vehicle.Axis3{}, 1)
	if s.DZ > 0 {
		t.Errorf("climb rate survived reset: %v", s.DZ)
	}
	if math.Abs(s.Phi-10) > 0.5 {
		t.Errorf("attitude lost on reset: phi=%v", s.Phi)
	}
}

func TestEstimateUsesSuppliedAttitude(t *testing.T) {
	// 90 degrees of yaw to the left in the IMU frame is nose-left, so the
	// vehicle heading reads -90
	half := math.Pi / 4
	c := NewComplementary(fixedAttitude(vehicle.Quaternion{W: math.Cos(half), Z: math.Sin(half)}))
	s := c.Estimate(0.001, vehicle.Axis3{}, vehicle.Axis3{Z: 1}, 1)
	if math.Abs(s.Psi+90) > 1e-9 {
		t.Errorf("psi = %v, want -90", s.Psi)
	}
	if math.Abs(s.Z-1) > 1e-12 {
		t.Errorf("yaw must not change altitude projection: z=%v", s.Z)
	}
}

func TestCalibrationConvert(t *testing.T) {
	cal := Calibration{
		GyroOffset:  vehicle.Axis3{X: 1, Y: -1, Z: 0.5},
		AccelOffset: vehicle.Axis3{Z: 0.02},
	}
	sample := sensors.IMUSample{
		Gyro:       vehicle.Axis3{X: 131, Y: 262, Z: -131},
		Accel:      vehicle.Axis3{Z: 16384},
		GyroScale:  GyroScale250DPS,
		AccelScale: AccelScale2G,
	}
	g, a := cal.Convert(sample)
	if g != (vehicle.Axis3{X: 0, Y: 3, Z: -1.5}) {
		t.Errorf("gyro %+v", g)
	}
	if math.Abs(a.Z-0.98) > 1e-12 || a.X != 0 || a.Y != 0 {
		t.Errorf("accel %+v", a)
	}
}

func TestMeasureOffsets(t *testing.T) {
	samples := []sensors.IMUSample{
		{Gyro: vehicle.Axis3{X: 2, Y: 0, Z: -1}, Accel: vehicle.Axis3{Z: 1.1}, GyroScale: 1, AccelScale: 1},
		{Gyro: vehicle.Axis3{X: 4, Y: 0, Z: -3}, Accel: vehicle.Axis3{Z: 1.3}, GyroScale: 1, AccelScale: 1},
	}
	cal := MeasureOffsets(samples)
	if cal.GyroOffset != (vehicle.Axis3{X: 3, Y: 0, Z: -2}) {
		t.Errorf("gyro offset %+v", cal.GyroOffset)
	}
	if math.Abs(cal.AccelOffset.Z-0.2) > 1e-12 {
		t.Errorf("accel offset %+v", cal.AccelOffset)
	}
	if (MeasureOffsets(nil) != Calibration{}) {
		t.Error("empty input should give zero offsets")
	}
}
