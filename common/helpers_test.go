package common

import (
	"math"
	"testing"
)

func TestConstrain(t *testing.T) {
	cases := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-2, 0, 1, 0},
		{3, 0, 1, 1},
		{1, 1, 1, 1},
	}
	for _, c := range cases {
		if got := Constrain(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Constrain(%v, %v, %v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
	if got := Constrain(1200, 1000, 2000); got != 1200 {
		t.Errorf("integer Constrain = %v", got)
	}
}

func TestConstrainAbs(t *testing.T) {
	if got := ConstrainAbs(7.0, 6.0); got != 6 {
		t.Errorf("got %v, want 6", got)
	}
	if got := ConstrainAbs(-7.0, 6.0); got != -6 {
		t.Errorf("got %v, want -6", got)
	}
	if got := ConstrainAbs(-0.25, 6.0); got != -0.25 {
		t.Errorf("got %v, want -0.25", got)
	}
}

func TestMapRange(t *testing.T) {
	cases := []struct {
		x, inLo, inHi, outLo, outHi, want float64
	}{
		{1000, 1000, 2000, 0, 1, 0},
		{2000, 1000, 2000, 0, 1, 1},
		{1500, 1000, 2000, -1, 1, 0},
		{1750, 1000, 2000, -1, 1, 0.5},
		{900, 1000, 2000, -1, 1, -1},
		{2100, 1000, 2000, 0, 1, 1},
		{0.25, 0, 1, 1, 0, 0.75},
	}
	for _, c := range cases {
		if got := MapRange(c.x, c.inLo, c.inHi, c.outLo, c.outHi); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("MapRange(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestAngleConversion(t *testing.T) {
	if math.Abs(Deg2Rad(180)-math.Pi) > 1e-12 {
		t.Fail()
	}
	if math.Abs(Rad2Deg(math.Pi/2)-90) > 1e-12 {
		t.Fail()
	}
}
