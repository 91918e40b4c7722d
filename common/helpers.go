// Package common holds the small numeric and host helpers shared by the
// flight packages.
package common

import (
	"math"
	"os/user"

	"golang.org/x/exp/constraints"
)

const (
	degPerRad = 180.0 / math.Pi
	radPerDeg = math.Pi / 180.0
)

func IsRunningAsRoot() bool {
	usr, err := user.Current()
	if err != nil {
		return false
	}
	return usr.Username == "root"
}

// Constrain clamps v into [lo, hi].
func Constrain[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConstrainAbs clamps v into [-lim, +lim].
func ConstrainAbs[T constraints.Float](v, lim T) T {
	return Constrain(v, -lim, lim)
}

// MapRange linearly maps x from [inLo, inHi] onto [outLo, outHi] and clamps
// the result to the output range.
func MapRange[T constraints.Float](x, inLo, inHi, outLo, outHi T) T {
	y := (x-inLo)*(outHi-outLo)/(inHi-inLo) + outLo
	if outLo < outHi {
		return Constrain(y, outLo, outHi)
	}
	return Constrain(y, outHi, outLo)
}

func Deg2Rad(deg float64) float64 {
	return deg * radPerDeg
}

func Rad2Deg(rad float64) float64 {
	return rad * degPerRad
}
