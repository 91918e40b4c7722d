package sim

import (
	"math"
	"testing"
	"time"

	"github.com/b3nn0/hoverfly/estimator"
	"github.com/b3nn0/hoverfly/mixer"
	"github.com/b3nn0/hoverfly/rx"
	"github.com/b3nn0/hoverfly/vehicle"
)

func TestPlantAtRest(t *testing.T) {
	p := NewPlant(vehicle.DIYQuad, mixer.QuadX{}, 500*time.Microsecond, 50)
	for i := 0; i < 100; i++ {
		p.Write(vehicle.Motors{})
	}
	s, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if s.Accel.Z != estimator.AccelScale2G || s.Gyro != (vehicle.Axis3{}) {
		t.Errorf("resting sample %+v", s)
	}
	gyro, accel := estimator.Calibration{}.Convert(s)
	if gyro != (vehicle.Axis3{}) || accel.Z != 1 {
		t.Errorf("converted %+v %+v", gyro, accel)
	}
	if d, _ := p.Distance(); d != 0 {
		t.Errorf("range %v", d)
	}
	if p.Airborne() {
		t.Error("airborne with motors off")
	}
}

func TestPlantTakesOff(t *testing.T) {
	p := NewPlant(vehicle.DIYQuad, mixer.QuadX{}, time.Millisecond, 10)
	for i := 0; i < 500; i++ {
		p.Write(vehicle.Motors{0.7, 0.7, 0.7, 0.7})
	}
	truth := p.Truth()
	if !p.Airborne() || truth.Z <= 0 {
		t.Fatalf("no takeoff: %+v", truth)
	}
	d, _ := p.Distance()
	if math.Abs(d-truth.Z) > 1e-9 {
		t.Errorf("level range %v != altitude %v", d, truth.Z)
	}
	s, _ := p.Read()
	// 1.764e-3 * (0.7*150)^2 / g
	want := 1.764e-3 * 105 * 105 / 9.80665
	if math.Abs(s.Accel.Z/s.AccelScale-want) > 1e-6 {
		t.Errorf("accel z = %v g, want %v", s.Accel.Z/s.AccelScale, want)
	}
}

func TestSticks(t *testing.T) {
	s := NewSticks()
	f := s.Read()
	if f.Channels[ChThrottle] != 1000 || f.Channels[ChArm] != 1000 || f.Failsafe {
		t.Errorf("initial frame %+v", f)
	}
	s.Set(ChArm, 2000)
	s.Set(42, 1234)
	s.SetFailsafe(true)
	f = s.Read()
	if f.Channels[ChArm] != 2000 || !f.Failsafe {
		t.Errorf("frame %+v", f)
	}
	var _ rx.Receiver = s
}
