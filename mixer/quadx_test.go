package mixer

import (
	"testing"

	"github.com/b3nn0/hoverfly/vehicle"
)

func TestMixIsPure(t *testing.T) {
	q := QuadX{RollPitchScale: 0.01, YawScale: 0.002}
	d := vehicle.Demands{Thrust: 0.5, Roll: 3, Pitch: -7, Yaw: 20}
	first := q.Mix(d)
	second := q.Mix(d)
	if first != second {
		t.Errorf("Mix not repeatable: %v vs %v", first, second)
	}
}

func TestMixSigns(t *testing.T) {
	q := QuadX{}
	cases := []struct {
		name string
		d    vehicle.Demands
		want vehicle.Motors
	}{
		{"hover", vehicle.Demands{Thrust: 0.5}, vehicle.Motors{0.5, 0.5, 0.5, 0.5}},
		// roll right: left motors (3, 4) speed up
		{"roll", vehicle.Demands{Thrust: 0.5, Roll: 0.1}, vehicle.Motors{0.4, 0.4, 0.6, 0.6}},
		// pitch nose down: rear motors (1, 3) speed up
		{"pitch", vehicle.Demands{Thrust: 0.5, Pitch: 0.1}, vehicle.Motors{0.6, 0.4, 0.6, 0.4}},
		{"yaw", vehicle.Demands{Thrust: 0.5, Yaw: 0.1}, vehicle.Motors{0.4, 0.6, 0.6, 0.4}},
	}
	for _, c := range cases {
		got := q.Mix(c.d)
		for i := range got {
			if diff := got[i] - c.want[i]; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("%s: motor %d = %v, want %v", c.name, i+1, got[i], c.want[i])
			}
		}
	}
}

func TestMixClamps(t *testing.T) {
	m := QuadX{}.Mix(vehicle.Demands{Thrust: 0.9, Roll: 0.5, Pitch: 0.5, Yaw: 0.5})
	for i, v := range m {
		if v < 0 || v > 1 {
			t.Errorf("motor %d out of range: %v", i+1, v)
		}
	}
	if m[2] != 1 {
		t.Errorf("saturated motor should read 1, got %v", m[2])
	}
	if d := m[1] - 0.4; d > 1e-12 || d < -1e-12 {
		t.Errorf("motor 2 = %v, want 0.4", m[1])
	}
}

func TestGeometryIsBalanced(t *testing.T) {
	var g vehicle.Geometry = QuadX{}
	var r, p, y float64
	for i := 0; i < g.Count(); i++ {
		r += g.Roll(i)
		p += g.Pitch(i)
		y += g.Yaw(i)
	}
	if r != 0 || p != 0 || y != 0 {
		t.Errorf("sign table not balanced: %v %v %v", r, p, y)
	}
}
