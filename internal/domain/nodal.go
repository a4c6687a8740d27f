package domain

import "math"

// latitudeClass selects how a satellite amplitude ratio scales with latitude.
type latitudeClass int

const (
	latitudeNone latitudeClass = iota
	latitudeDiurnal
	latitudeSemidiurnal
)

// MinLatitudeDeg is the smallest latitude magnitude used for nodal
// corrections. The diurnal factor divides by sin(lat).
const MinLatitudeDeg = 5.0

// satellite is one perturbation term of a main constituent (Foreman 1977).
type satellite struct {
	Main     string
	AmpRatio float64
	PhCorr   float64 // Cycles.
	LatClass latitudeClass
	DelDood  [3]float64 // Offsets on [p, N, p1].
}

// satelliteTable holds the satellite terms for the nine main constituents.
//
//nolint:gochecknoglobals // Read-only table.
var satelliteTable = []satellite{
	{"O1", 0.0003, 0.25, latitudeDiurnal, [3]float64{-1, 0, 0}},
	{"O1", 0.0058, 0.5, latitudeNone, [3]float64{0, -2, 0}},
	{"O1", 0.1885, 0, latitudeNone, [3]float64{0, -1, 0}},
	{"O1", 0.0004, 0.25, latitudeDiurnal, [3]float64{1, -1, 0}},
	{"O1", 0.0029, 0.75, latitudeDiurnal, [3]float64{1, 0, 0}},
	{"O1", 0.0004, 0.25, latitudeDiurnal, [3]float64{1, 1, 0}},
	{"O1", 0.0064, 0.5, latitudeNone, [3]float64{2, 0, 0}},
	{"O1", 0.001, 0.5, latitudeNone, [3]float64{2, 1, 0}},
	{"P1", 0.0008, 0, latitudeNone, [3]float64{0, -2, 0}},
	{"P1", 0.0112, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"P1", 0.0004, 0.5, latitudeNone, [3]float64{0, 0, 2}},
	{"P1", 0.0004, 0.75, latitudeDiurnal, [3]float64{1, 0, 0}},
	{"P1", 0.0015, 0.5, latitudeNone, [3]float64{2, 0, 0}},
	{"P1", 0.0003, 0.5, latitudeNone, [3]float64{2, 1, 0}},
	{"K1", 0.0002, 0, latitudeNone, [3]float64{-2, -1, 0}},
	{"K1", 0.0001, 0.75, latitudeDiurnal, [3]float64{-1, -1, 0}},
	{"K1", 0.0007, 0.25, latitudeDiurnal, [3]float64{-1, 0, 0}},
	{"K1", 0.0001, 0.75, latitudeDiurnal, [3]float64{-1, 1, 0}},
	{"K1", 0.0001, 0, latitudeNone, [3]float64{0, -2, 0}},
	{"K1", 0.0198, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"K1", 0.1356, 0, latitudeNone, [3]float64{0, 1, 0}},
	{"K1", 0.0029, 0.5, latitudeNone, [3]float64{0, 2, 0}},
	{"K1", 0.0002, 0.25, latitudeDiurnal, [3]float64{1, 0, 0}},
	{"K1", 0.0001, 0.25, latitudeDiurnal, [3]float64{1, 1, 0}},
	{"N2", 0.0039, 0.5, latitudeNone, [3]float64{-2, -2, 0}},
	{"N2", 0.0008, 0, latitudeNone, [3]float64{-1, 0, 1}},
	{"N2", 0.0005, 0, latitudeNone, [3]float64{0, -2, 0}},
	{"N2", 0.0373, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"M2", 0.0001, 0.75, latitudeSemidiurnal, [3]float64{-1, -1, 0}},
	{"M2", 0.0004, 0.75, latitudeSemidiurnal, [3]float64{-1, 0, 0}},
	{"M2", 0.0005, 0, latitudeNone, [3]float64{0, -2, 0}},
	{"M2", 0.0373, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"M2", 0.0001, 0.25, latitudeSemidiurnal, [3]float64{1, -1, 0}},
	{"M2", 0.0009, 0.75, latitudeSemidiurnal, [3]float64{1, 0, 0}},
	{"M2", 0.0002, 0.75, latitudeSemidiurnal, [3]float64{1, 1, 0}},
	{"M2", 0.0006, 0, latitudeNone, [3]float64{2, 0, 0}},
	{"M2", 0.0002, 0, latitudeNone, [3]float64{2, 1, 0}},
	{"L2", 0.0366, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"L2", 0.0047, 0, latitudeNone, [3]float64{2, -1, 0}},
	{"L2", 0.2505, 0.5, latitudeNone, [3]float64{2, 0, 0}},
	{"L2", 0.1102, 0.5, latitudeNone, [3]float64{2, 1, 0}},
	{"L2", 0.0156, 0.5, latitudeNone, [3]float64{2, 2, 0}},
	{"S2", 0.0022, 0, latitudeNone, [3]float64{0, -1, 0}},
	{"S2", 0.0001, 0.75, latitudeSemidiurnal, [3]float64{1, 0, 0}},
	{"S2", 0.0001, 0, latitudeNone, [3]float64{2, 0, 0}},
	{"K2", 0.0024, 0.75, latitudeSemidiurnal, [3]float64{-1, 0, 0}},
	{"K2", 0.0004, 0.75, latitudeSemidiurnal, [3]float64{-1, 1, 0}},
	{"K2", 0.0128, 0.5, latitudeNone, [3]float64{0, -1, 0}},
	{"K2", 0.298, 0, latitudeNone, [3]float64{0, 1, 0}},
	{"K2", 0.0324, 0, latitudeNone, [3]float64{0, 2, 0}},
}

// ClampLatitude maps lat into the range used by the nodal formulas:
// NaN becomes 5°, magnitudes above 90° are limited to ±90° and magnitudes
// below 5° are pushed out to ±5° (zero counts as positive).
func ClampLatitude(lat float64) float64 {
	switch {
	case math.IsNaN(lat):
		return MinLatitudeDeg
	case lat > 90:
		return 90
	case lat < -90:
		return -90
	case lat >= 0 && lat < MinLatitudeDeg:
		return MinLatitudeDeg
	case lat < 0 && lat > -MinLatitudeDeg:
		return -MinLatitudeDeg
	}
	return lat
}

// NodalCorrections returns the phase correction u (radians) and amplitude
// factor f for each name. Without a latitude every constituent gets u = 0 and
// f = 1. Constituents without satellite terms keep u = 0 and f = 1.
func NodalCorrections(names []string, astro AstroVector, lat *float64) (u, f []float64) {
	u = make([]float64, len(names))
	f = make([]float64, len(names))
	for i := range f {
		f[i] = 1
	}
	if lat == nil {
		return u, f
	}

	slat := math.Sin(Deg2Rad(ClampLatitude(*lat)))
	diurnal := 0.36309 * (1.0 - 5.0*slat*slat) / slat
	semidiurnal := 2.59808 * slat

	index := make(map[string][]int, len(names))
	for i, name := range names {
		index[name] = append(index[name], i)
	}

	re := make([]float64, len(names))
	im := make([]float64, len(names))
	for i := range re {
		re[i] = 1
	}

	for _, sat := range satelliteTable {
		targets, ok := index[sat.Main]
		if !ok {
			continue
		}

		ratio := sat.AmpRatio
		switch sat.LatClass {
		case latitudeDiurnal:
			ratio *= diurnal
		case latitudeSemidiurnal:
			ratio *= semidiurnal
		case latitudeNone:
		}

		phase := sat.PhCorr
		for j, d := range sat.DelDood {
			phase += d * astro[AstroP+j]
		}
		phase = 2 * math.Pi * frac(phase)

		for _, i := range targets {
			re[i] += ratio * math.Cos(phase)
			im[i] += ratio * math.Sin(phase)
		}
	}

	for i := range names {
		f[i] = math.Hypot(re[i], im[i])
		u[i] = math.Atan2(im[i], re[i])
	}
	return u, f
}
