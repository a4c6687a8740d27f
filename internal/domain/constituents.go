package domain

import (
	"fmt"
	"maps"
	"math"
	"sort"
	"time"
)

// Definition describes a tidal constituent after compound expansion.
type Definition struct {
	Name               string
	FrequencyRadPerDay float64    // Angular frequency in radians per day.
	Doodson            [6]float64 // Coefficients on [tau, s, h, p, N, p1].
	PhaseCorrection    float64    // Phase offset as a fraction of a cycle.

	// Components is set for compound (shallow-water) constituents and maps
	// each contributing constituent to its integer multiplier.
	Components map[string]int
}

// Compound reports whether d was derived from other constituents.
func (d Definition) Compound() bool {
	return len(d.Components) > 0
}

// SpeedDegPerHr returns the angular speed in degrees per hour.
func (d Definition) SpeedDegPerHr() float64 {
	return Rad2Deg(d.FrequencyRadPerDay) / 24.0
}

// Period returns the duration of one full cycle, or zero for Z0.
func (d Definition) Period() time.Duration {
	if d.FrequencyRadPerDay == 0 {
		return 0
	}
	days := 2 * math.Pi / d.FrequencyRadPerDay
	return time.Duration(days * secondsPerDay * float64(time.Second))
}

// primaryConstituents lists frequency (rad/day), Doodson numbers and phase
// correction (cycles) for the astronomically forced constituents.
var primaryConstituents = []Definition{
	{Name: "Z0", FrequencyRadPerDay: 0.000000000, Doodson: [6]float64{0, 0, 0, 0, 0, 0}},
	{Name: "SA", FrequencyRadPerDay: 0.017201969, Doodson: [6]float64{0, 0, 1, 0, 0, -1}},
	{Name: "SSA", FrequencyRadPerDay: 0.034405582, Doodson: [6]float64{0, 0, 2, 0, 0, 0}},
	{Name: "MSM", FrequencyRadPerDay: 0.197510291, Doodson: [6]float64{0, 1, -2, 1, 0, 0}},
	{Name: "MM", FrequencyRadPerDay: 0.228027119, Doodson: [6]float64{0, 1, 0, -1, 0, 0}},
	{Name: "MSF", FrequencyRadPerDay: 0.425537426, Doodson: [6]float64{0, 2, -2, 0, 0, 0}},
	{Name: "MF", FrequencyRadPerDay: 0.459943008, Doodson: [6]float64{0, 2, 0, 0, 0, 0}},

	{Name: "Q1", FrequencyRadPerDay: 5.612417969, Doodson: [6]float64{1, -2, 0, 1, 0, 0}, PhaseCorrection: -0.25},
	{Name: "O1", FrequencyRadPerDay: 5.840445088, Doodson: [6]float64{1, -1, 0, 0, 0, 0}, PhaseCorrection: -0.25},
	{Name: "P1", FrequencyRadPerDay: 6.265982514, Doodson: [6]float64{1, 1, -2, 0, 0, 0}, PhaseCorrection: -0.25},
	{Name: "S1", FrequencyRadPerDay: 6.283186127, Doodson: [6]float64{1, 1, -1, 0, 0, 1}, PhaseCorrection: -0.75},
	{Name: "K1", FrequencyRadPerDay: 6.300388096, Doodson: [6]float64{1, 1, 0, 0, 0, 0}, PhaseCorrection: -0.75},

	{Name: "EPS2", FrequencyRadPerDay: 11.487268638, Doodson: [6]float64{2, -3, 2, 1, 0, 0}},
	{Name: "2N2", FrequencyRadPerDay: 11.684778945, Doodson: [6]float64{2, -2, 0, 2, 0, 0}},
	{Name: "MU2", FrequencyRadPerDay: 11.715295773, Doodson: [6]float64{2, -2, 2, 0, 0, 0}},
	{Name: "N2", FrequencyRadPerDay: 11.912806064, Doodson: [6]float64{2, -1, 0, 1, 0, 0}},
	{Name: "NU2", FrequencyRadPerDay: 11.943322892, Doodson: [6]float64{2, -1, 2, -1, 0, 0}},
	{Name: "M2", FrequencyRadPerDay: 12.140833199, Doodson: [6]float64{2, 0, 0, 0, 0, 0}},
	{Name: "LDA2", FrequencyRadPerDay: 12.338343490, Doodson: [6]float64{2, 1, -2, 1, 0, 0}, PhaseCorrection: -0.5},
	{Name: "L2", FrequencyRadPerDay: 12.368860318, Doodson: [6]float64{2, 1, 0, -1, 0, 0}, PhaseCorrection: -0.5},
	{Name: "T2", FrequencyRadPerDay: 12.549168640, Doodson: [6]float64{2, 2, -3, 0, 0, 1}},
	{Name: "S2", FrequencyRadPerDay: 12.566370609, Doodson: [6]float64{2, 2, -2, 0, 0, 0}},
	{Name: "K2", FrequencyRadPerDay: 12.600776191, Doodson: [6]float64{2, 2, 0, 0, 0, 0}},

	{Name: "M3", FrequencyRadPerDay: 18.211249790, Doodson: [6]float64{3, 0, 0, 0, 0, 0}, PhaseCorrection: -0.5},
}

// compoundConstituents are shallow-water terms expressed as integer
// combinations of other constituents.
var compoundConstituents = map[string]map[string]int{
	"M4":   {"M2": 2},
	"M6":   {"M2": 3},
	"MN4":  {"M2": 1, "N2": 1},
	"MS4":  {"M2": 1, "S2": 1},
	"2MS6": {"M2": 2, "S2": 1},
	"SK3":  {"S2": 1, "K1": 1},
}

// DefaultConstituents is the constituent set used when a station does not
// name its own.
var DefaultConstituents = []string{"Z0", "M2", "S2", "N2", "K2", "K1", "O1", "P1", "Q1"}

// registry is the expanded, read-only constituent table.
//
//nolint:gochecknoglobals // Read-only after package initialisation.
var registry = mustBuildRegistry(primaryConstituents, compoundConstituents)

// Registry is a closed table of constituent definitions.
type Registry struct {
	defs  map[string]Definition
	names []string
}

// NewRegistry expands compound definitions against the primary table.
// Compound entries may reference other compound entries; cycles and unknown
// contributors are rejected.
func NewRegistry(primary []Definition, compound map[string]map[string]int) (*Registry, error) {
	defs := make(map[string]Definition, len(primary)+len(compound))
	for _, d := range primary {
		if _, dup := defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate constituent %s", d.Name)
		}
		defs[d.Name] = d
	}

	var expand func(name string, visiting map[string]bool) (Definition, error)
	expand = func(name string, visiting map[string]bool) (Definition, error) {
		if d, ok := defs[name]; ok {
			return d, nil
		}
		parts, ok := compound[name]
		if !ok {
			return Definition{}, fmt.Errorf("unknown constituent %s", name)
		}
		if visiting[name] {
			return Definition{}, fmt.Errorf("compound constituent %s is self-referential", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		out := Definition{Name: name, Components: make(map[string]int, len(parts))}
		for contributor, mult := range parts {
			out.Components[contributor] = mult
			c, err := expand(contributor, visiting)
			if err != nil {
				return Definition{}, fmt.Errorf("expanding %s: %w", name, err)
			}
			m := float64(mult)
			out.FrequencyRadPerDay += m * c.FrequencyRadPerDay
			for i := range out.Doodson {
				out.Doodson[i] += m * c.Doodson[i]
			}
			out.PhaseCorrection += m * c.PhaseCorrection
		}
		defs[name] = out
		return out, nil
	}

	for name := range compound {
		if _, err := expand(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{defs: defs, names: names}, nil
}

func mustBuildRegistry(primary []Definition, compound map[string]map[string]int) *Registry {
	r, err := NewRegistry(primary, compound)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up a constituent by name. The returned definition is a copy
// and may be modified freely.
func (r *Registry) Resolve(name string) (Definition, bool) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return d.clone(), true
}

func (r *Registry) known(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Names returns the sorted constituent vocabulary.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// DefaultRegistry returns the built-in constituent table.
func DefaultRegistry() *Registry {
	return registry
}

// Resolve looks up a constituent in the built-in table.
func Resolve(name string) (Definition, bool) {
	return registry.Resolve(name)
}

// Frequency returns the angular frequency of a constituent in rad/s, or 0
// when the name is unknown.
func Frequency(name string) float64 {
	d, ok := registry.Resolve(name)
	if !ok {
		return 0
	}
	return d.FrequencyRadPerDay / secondsPerDay
}

// GetAllConstituents returns every built-in definition in name order.
func GetAllConstituents() []Definition {
	out := make([]Definition, 0, len(registry.names))
	for _, name := range registry.names {
		out = append(out, registry.defs[name].clone())
	}
	return out
}

func (d Definition) clone() Definition {
	d.Components = maps.Clone(d.Components)
	return d
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
