package domain

import (
	"math"
	"time"
)

// AstroState holds the per-constituent astronomical argument V (radians),
// nodal phase correction U (radians) and amplitude factor F, parallel to
// the requested names. Unresolved[i] is true when names[i] is not in the
// registry; such entries carry V = U = F = 0.
type AstroState struct {
	V          []float64
	U          []float64
	F          []float64
	Unresolved []bool
}

// UnresolvedNames returns the names flagged as unresolved.
func (s AstroState) UnresolvedNames(names []string) []string {
	var out []string
	for i, bad := range s.Unresolved {
		if bad {
			out = append(out, names[i])
		}
	}
	return out
}

// Astro computes V, u and f for names at t. A nil lat disables the nodal
// correction.
func Astro(names []string, t time.Time, lat *float64) AstroState {
	return registry.Astro(names, t, lat)
}

// Astro computes V, u and f for names at t using r.
func (r *Registry) Astro(names []string, t time.Time, lat *float64) AstroState {
	astro := Ephemeris(t)
	v, unresolved := r.Arguments(names, astro)
	u, f := NodalCorrections(names, astro, lat)

	for i, bad := range unresolved {
		if bad {
			u[i] = 0
			f[i] = 0
		}
	}

	return AstroState{V: v, U: u, F: f, Unresolved: unresolved}
}

// Arguments returns the astronomical argument V (radians) for each name and
// flags the names the registry cannot resolve.
func (r *Registry) Arguments(names []string, astro AstroVector) (v []float64, unresolved []bool) {
	v = make([]float64, len(names))
	unresolved = make([]bool, len(names))
	for i, name := range names {
		d, ok := r.Resolve(name)
		if !ok {
			unresolved[i] = true
			continue
		}
		sum := d.PhaseCorrection
		for j, c := range d.Doodson {
			sum += c * astro[j]
		}
		v[i] = 2 * math.Pi * frac(sum)
	}
	return v, unresolved
}
