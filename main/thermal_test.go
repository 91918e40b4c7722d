package main

import "testing"

func TestFanDuty(t *testing.T) {
	for _, tc := range []struct {
		out  float64
		min  uint32
		want uint32
	}{
		{0, 50, 0},
		{5, 50, 0},
		{10, 50, 55},
		{100, 50, 100},
		{50, 0, 50},
	} {
		if got := fanDuty(tc.out, tc.min); got != tc.want {
			t.Errorf("fanDuty(%v, %d) = %d, want %d", tc.out, tc.min, got, tc.want)
		}
	}
}
