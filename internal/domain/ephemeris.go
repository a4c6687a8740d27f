package domain

import (
	"math"
	"time"
)

// Epoch is the origin of the ephemeris day count: 1899-12-31 12:00:00 UTC.
var Epoch = time.Date(1899, time.December, 31, 12, 0, 0, 0, time.UTC)

const secondsPerDay = 86400.0

// Positions of the orbital elements inside an AstroVector.
// Doodson vectors index into the vector in this order.
const (
	AstroTau = iota // Mean lunar time.
	AstroS          // Mean longitude of the moon.
	AstroH          // Mean longitude of the sun.
	AstroP          // Longitude of lunar perigee.
	AstroN          // Longitude of the moon's ascending node.
	AstroP1         // Longitude of solar perigee.
)

// AstroVector holds the six fundamental astronomical arguments as fractions
// of a cycle in [0, 1).
type AstroVector [6]float64

// ephemerisCoeffs are the cubic fits (degrees) for s, h, p, N and p1 from the
// Explanatory Supplement to the Astronomical Ephemeris.
// Each row is evaluated as c0 + c1*days + c2*D^2 + c3*D^3 with D = days/10000.
var ephemerisCoeffs = [5][4]float64{
	{270.434164, 13.1763965268, -0.000085, 0.000000039},
	{279.696678, 0.9856473354, 0.00002267, 0.0},
	{334.329556, 0.1114040803, -0.0007739, -0.00000026},
	{-259.183275, 0.0529539222, -0.0001557, -0.000000050},
	{281.220844, 0.0000470684, 0.0000339, 0.000000070},
}

// Ephemeris evaluates the astronomical arguments at t.
//
// Times before Epoch are valid; every element is reduced into [0, 1).
func Ephemeris(t time.Time) AstroVector {
	secs := unixSeconds(t)
	days := (secs - unixSeconds(Epoch)) / secondsPerDay
	d := days / 10000
	args := [4]float64{1, days, d * d, d * d * d}

	var astro AstroVector
	for i, c := range ephemerisCoeffs {
		sum := 0.0
		for j, a := range args {
			sum += c[j] * a
		}
		astro[i+1] = frac(sum / 360.0)
	}

	// Lunar time is the solar day fraction (from 00:00 UT) shifted by h - s.
	astro[AstroTau] = frac(frac(secs/secondsPerDay) + astro[AstroH] - astro[AstroS])

	return astro
}

// unixSeconds converts t into fractional seconds since the Unix epoch.
// time.Duration overflows beyond ~292 years, so Sub is avoided.
func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// frac returns x - floor(x), which lies in [0, 1) for negative x as well.
func frac(x float64) float64 {
	f := x - math.Floor(x)
	if f >= 1 {
		// x slightly below an integer can round up to exactly 1.
		return 0
	}
	return f
}
