// Package interp provides bilinear interpolation of harmonic grids.
package interp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// ErrNoData is returned when every corner of the enclosing cell is missing.
var ErrNoData = errors.New("no valid grid values around point")

// ErrOutOfRange is returned when a point lies outside a grid's axes.
var ErrOutOfRange = errors.New("point outside grid range")

// GridCell represents a cell in a regular grid with four corner values.
type GridCell struct {
	X0, X1 float64 // X boundaries (e.g., longitude).
	Y0, Y1 float64 // Y boundaries (e.g., latitude).

	// V00 at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
	V00, V10, V01, V11 float64
}

// weights returns the bilinear corner weights for (x, y) in V00, V10, V01,
// V11 order:
//
//	w = [(1-t)(1-u), t(1-u), (1-t)u, tu]
//
// where t = (x - x0) / (x1 - x0) and u = (y - y0) / (y1 - y0).
func (c GridCell) weights(x, y float64) ([4]float64, error) {
	if c.X1 <= c.X0 {
		return [4]float64{}, fmt.Errorf("invalid grid cell: X1 must be > X0")
	}
	if c.Y1 <= c.Y0 {
		return [4]float64{}, fmt.Errorf("invalid grid cell: Y1 must be > Y0")
	}

	const epsilon = 1e-9
	if x < c.X0-epsilon || x > c.X1+epsilon {
		return [4]float64{}, fmt.Errorf("x coordinate %.6f is outside grid cell [%.6f, %.6f]", x, c.X0, c.X1)
	}
	if y < c.Y0-epsilon || y > c.Y1+epsilon {
		return [4]float64{}, fmt.Errorf("y coordinate %.6f is outside grid cell [%.6f, %.6f]", y, c.Y0, c.Y1)
	}

	t := clamp01((x - c.X0) / (c.X1 - c.X0))
	u := clamp01((y - c.Y0) / (c.Y1 - c.Y0))
	return [4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u}, nil
}

func (c GridCell) values() [4]float64 {
	return [4]float64{c.V00, c.V10, c.V01, c.V11}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// BilinearInterpolate interpolates within a grid cell. Corners holding NaN
// are treated as missing and the remaining weights are renormalised.
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	w, err := cell.weights(x, y)
	if err != nil {
		return 0, err
	}

	var sum, total float64
	for i, v := range cell.values() {
		if math.IsNaN(v) || w[i] == 0 {
			continue
		}
		sum += w[i] * v
		total += w[i]
	}
	if total == 0 {
		return 0, ErrNoData
	}
	return sum / total, nil
}

// Grid2D represents a regular 2D grid for interpolation.
type Grid2D struct {
	X      []float64   // X coordinates (e.g., longitudes).
	Y      []float64   // Y coordinates (e.g., latitudes).
	Values [][]float64 // Values[i][j] corresponds to (X[j], Y[i]). NaN marks missing data.
}

// Validate checks if the grid is valid.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}
	if !strictlyIncreasing(g.X) {
		return fmt.Errorf("X coordinates must be strictly increasing")
	}
	if !strictlyIncreasing(g.Y) {
		return fmt.Errorf("Y coordinates must be strictly increasing")
	}
	return nil
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// SameAxes reports whether g and other share coordinates.
func (g *Grid2D) SameAxes(other *Grid2D) bool {
	if len(g.X) != len(other.X) || len(g.Y) != len(other.Y) {
		return false
	}
	for i := range g.X {
		if g.X[i] != other.X[i] {
			return false
		}
	}
	for i := range g.Y {
		if g.Y[i] != other.Y[i] {
			return false
		}
	}
	return true
}

// cellIndex returns i such that axis[i] <= v <= axis[i+1].
func cellIndex(axis []float64, v float64) (int, bool) {
	n := len(axis)
	if v < axis[0] || v > axis[n-1] || math.IsNaN(v) {
		return 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, true
}

// Cell returns the grid cell enclosing (x, y).
func (g *Grid2D) Cell(x, y float64) (GridCell, error) {
	xi, ok := cellIndex(g.X, x)
	if !ok {
		return GridCell{}, fmt.Errorf("%w: x coordinate %.6f not in [%.6f, %.6f]", ErrOutOfRange, x, g.X[0], g.X[len(g.X)-1])
	}
	yi, ok := cellIndex(g.Y, y)
	if !ok {
		return GridCell{}, fmt.Errorf("%w: y coordinate %.6f not in [%.6f, %.6f]", ErrOutOfRange, y, g.Y[0], g.Y[len(g.Y)-1])
	}
	return GridCell{
		X0:  g.X[xi],
		X1:  g.X[xi+1],
		Y0:  g.Y[yi],
		Y1:  g.Y[yi+1],
		V00: g.Values[yi][xi],
		V10: g.Values[yi][xi+1],
		V01: g.Values[yi+1][xi],
		V11: g.Values[yi+1][xi+1],
	}, nil
}

// InterpolateAt performs bilinear interpolation at a given point.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	cell, err := g.Cell(x, y)
	if err != nil {
		return 0, err
	}
	return BilinearInterpolate(cell, x, y)
}

// InterpolateHarmonic interpolates an amplitude grid and a phase grid
// (radians) at (x, y). The phasor A·e^{iφ} is interpolated rather than the
// phase itself so that cells straddling the 0/2π cut do not average to the
// opposite side of the circle. The returned phase is in [0, 2π).
func InterpolateHarmonic(amp, phase *Grid2D, x, y float64) (float64, float64, error) {
	if !amp.SameAxes(phase) {
		return 0, 0, fmt.Errorf("amplitude and phase grids must share axes")
	}

	ac, err := amp.Cell(x, y)
	if err != nil {
		return 0, 0, err
	}
	pc, err := phase.Cell(x, y)
	if err != nil {
		return 0, 0, err
	}
	w, err := ac.weights(x, y)
	if err != nil {
		return 0, 0, err
	}

	var z complex128
	var total float64
	av, pv := ac.values(), pc.values()
	for i := range w {
		if math.IsNaN(av[i]) || math.IsNaN(pv[i]) || w[i] == 0 {
			continue
		}
		z += complex(w[i], 0) * cmplx.Rect(av[i], pv[i])
		total += w[i]
	}
	if total == 0 {
		return 0, 0, ErrNoData
	}
	z /= complex(total, 0)

	ph := cmplx.Phase(z)
	if ph < 0 {
		ph += 2 * math.Pi
	}
	return cmplx.Abs(z), ph, nil
}
