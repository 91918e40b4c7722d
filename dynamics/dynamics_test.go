package dynamics

import (
	"math"
	"testing"

	"github.com/b3nn0/hoverfly/mixer"
	"github.com/b3nn0/hoverfly/vehicle"
)

const (
	testDt = 1e-3
	// rad/s; gives roughly 1.8 g of thrust on the DIYQuad frame
	hover = 100.0
)

func spin(w float64) []float64 {
	return []float64{w, w, w, w}
}

func TestZeroThrustStaysGrounded(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	for i := 0; i < 10000; i++ {
		d.Update(spin(0), mixer.QuadX{})
		if d.Airborne() {
			t.Fatalf("airborne after %d zero-thrust steps", i+1)
		}
	}
	if s := d.State(); s != (vehicle.State{}) {
		t.Errorf("state moved without thrust: %+v", s)
	}
}

func TestAirborneLatch(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	sequence := []float64{0, 0, hover, hover, 0}
	want := []bool{false, false, true, true, true}
	for i, w := range sequence {
		d.Update(spin(w), mixer.QuadX{})
		if d.Airborne() != want[i] {
			t.Errorf("step %d (omega %v): airborne = %v, want %v", i, w, d.Airborne(), want[i])
		}
	}
}

func TestBelowHoverThrustDoesNotLatch(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	// 1.764e-3 * 70^2 = 8.64 m/s^2, less than gravity
	for i := 0; i < 100; i++ {
		d.Update(spin(70), mixer.QuadX{})
	}
	if d.Airborne() {
		t.Error("airborne with thrust below weight")
	}
}

func TestClimb(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	for i := 0; i < 100; i++ {
		d.Update(spin(hover), mixer.QuadX{})
	}
	s := d.State()
	if s.Z <= 0 || s.DZ <= 0 {
		t.Errorf("expected climb, got z=%v dz=%v", s.Z, s.DZ)
	}
	if s.Phi != 0 || s.Theta != 0 || s.Psi != 0 {
		t.Errorf("symmetric thrust produced rotation: %+v", s)
	}
	// u1/m = 17.64; net 7.83 m/s^2 over 100 integrated steps
	want := (1.764e-3*hover*hover - DefaultGravity) * 0.1
	if math.Abs(s.DZ-want) > 0.01 {
		t.Errorf("dz = %v, want about %v", s.DZ, want)
	}
}

func TestAxisSigns(t *testing.T) {
	cases := []struct {
		name   string
		omegas []float64
		check  func(s vehicle.State) bool
	}{
		// left rotors (3, 4) faster: roll right, drift right
		{"roll", []float64{hover, hover, hover + 5, hover + 5}, func(s vehicle.State) bool {
			return s.Phi > 0 && s.DPhi > 0 && s.DY > 0
		}},
		// rear rotors (1, 3) faster: nose down, drift forward
		{"pitch", []float64{hover + 5, hover, hover + 5, hover}, func(s vehicle.State) bool {
			return s.Theta < 0 && s.DTheta < 0 && s.DX > 0
		}},
		// rotors 2 and 3 faster: nose right
		{"yaw", []float64{hover, hover + 5, hover + 5, hover}, func(s vehicle.State) bool {
			return s.Psi > 0 && s.DPsi > 0
		}},
	}
	for _, c := range cases {
		d := New(vehicle.DIYQuad, testDt)
		for i := 0; i < 20; i++ {
			d.Update(c.omegas, mixer.QuadX{})
		}
		if s := d.State(); !c.check(s) {
			t.Errorf("%s: unexpected state %+v", c.name, s)
		}
	}
}

func TestSpecificForceAtRest(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	if f := d.SpecificForce(); f != (vehicle.Axis3{Z: 1}) {
		t.Errorf("resting accelerometer reads %+v", f)
	}
	if d.Range() != 0 {
		t.Errorf("range on the ground = %v", d.Range())
	}
}

func TestSpecificForceInFlight(t *testing.T) {
	d := New(vehicle.DIYQuad, testDt)
	d.Update(spin(hover), mixer.QuadX{})
	f := d.SpecificForce()
	want := 1.764e-3 * hover * hover / DefaultGravity
	if f.X != 0 || f.Y != 0 || math.Abs(f.Z-want) > 1e-9 {
		t.Errorf("got %+v, want z=%v", f, want)
	}
}
