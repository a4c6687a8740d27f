package interp

import (
	"errors"
	"math"
	"testing"
)

// TestBilinearInterpolate_CenterPoint tests interpolation at the center of a grid cell
func TestBilinearInterpolate_CenterPoint(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 2.0,
		Y0: 0.0, Y1: 2.0,
		V00: 1.0, V10: 3.0,
		V01: 5.0, V11: 7.0,
	}

	// 0.25 * (1 + 3 + 5 + 7) = 4.0
	result, err := BilinearInterpolate(cell, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result-4.0) > 1e-9 {
		t.Errorf("Center point: expected 4.0, got %.10f", result)
	}
}

// TestBilinearInterpolate_CornerPoints tests that corners return exact values
func TestBilinearInterpolate_CornerPoints(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 10.0,
		Y0: 0.0, Y1: 10.0,
		V00: 1.0, V10: 2.0,
		V01: 3.0, V11: 4.0,
	}

	tests := []struct {
		x, y     float64
		expected float64
		name     string
	}{
		{0.0, 0.0, 1.0, "bottom-left"},
		{10.0, 0.0, 2.0, "bottom-right"},
		{0.0, 10.0, 3.0, "top-left"},
		{10.0, 10.0, 4.0, "top-right"},
	}

	for _, tt := range tests {
		result, err := BilinearInterpolate(cell, tt.x, tt.y)
		if err != nil {
			t.Fatalf("Unexpected error for %s: %v", tt.name, err)
		}
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("%s corner: expected %.10f, got %.10f", tt.name, tt.expected, result)
		}
	}
}

// TestBilinearInterpolate_MissingCorner renormalises around NaN corners.
func TestBilinearInterpolate_MissingCorner(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 1.0,
		Y0: 0.0, Y1: 1.0,
		V00: 2.0, V10: 4.0,
		V01: math.NaN(), V11: math.NaN(),
	}

	result, err := BilinearInterpolate(cell, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result-3.0) > 1e-9 {
		t.Errorf("expected 3.0 from the two valid corners, got %.10f", result)
	}

	// Point sitting on the missing edge has no valid weight.
	if _, err := BilinearInterpolate(cell, 0.5, 1.0); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData on missing edge, got %v", err)
	}
}

// TestBilinearInterpolate_OutOfBounds tests error handling for out-of-bounds points
func TestBilinearInterpolate_OutOfBounds(t *testing.T) {
	cell := GridCell{
		X0: 0.0, X1: 10.0,
		Y0: 0.0, Y1: 10.0,
		V00: 1.0, V10: 2.0,
		V01: 3.0, V11: 4.0,
	}

	tests := []struct {
		x, y float64
		name string
	}{
		{-1.0, 5.0, "x too small"},
		{11.0, 5.0, "x too large"},
		{5.0, -1.0, "y too small"},
		{5.0, 11.0, "y too large"},
	}

	for _, tt := range tests {
		if _, err := BilinearInterpolate(cell, tt.x, tt.y); err == nil {
			t.Errorf("%s: expected error for point (%.1f, %.1f), got nil", tt.name, tt.x, tt.y)
		}
	}
}

// TestGrid2D_InterpolateAt tests 2D grid interpolation
func TestGrid2D_InterpolateAt(t *testing.T) {
	grid := &Grid2D{
		X: []float64{0.0, 1.0, 2.0},
		Y: []float64{0.0, 1.0, 2.0},
		Values: [][]float64{
			{1.0, 2.0, 3.0}, // y=0
			{4.0, 5.0, 6.0}, // y=1
			{7.0, 8.0, 9.0}, // y=2
		},
	}

	tests := []struct {
		x, y     float64
		expected float64
	}{
		{0.0, 0.0, 1.0},
		{1.0, 0.0, 2.0},
		{2.0, 0.0, 3.0},
		{0.0, 1.0, 4.0},
		{1.0, 1.0, 5.0},
		{2.0, 2.0, 9.0},
		{0.5, 0.5, 3.0},
		{1.5, 1.5, 7.0},
	}

	for _, tt := range tests {
		result, err := grid.InterpolateAt(tt.x, tt.y)
		if err != nil {
			t.Fatalf("Unexpected error at (%.1f, %.1f): %v", tt.x, tt.y, err)
		}
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("At (%.1f, %.1f): expected %.10f, got %.10f", tt.x, tt.y, tt.expected, result)
		}
	}

	for _, pt := range [][2]float64{{2.5, 1.0}, {1.0, -0.5}} {
		if _, err := grid.InterpolateAt(pt[0], pt[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("At (%.1f, %.1f): expected ErrOutOfRange, got %v", pt[0], pt[1], err)
		}
	}
}

// TestInterpolateHarmonic_PhaseWrap averages phases across the 0/2π cut.
func TestInterpolateHarmonic_PhaseWrap(t *testing.T) {
	deg := math.Pi / 180
	amp := &Grid2D{
		X:      []float64{0, 1},
		Y:      []float64{0, 1},
		Values: [][]float64{{1, 1}, {1, 1}},
	}
	phase := &Grid2D{
		X:      []float64{0, 1},
		Y:      []float64{0, 1},
		Values: [][]float64{{350 * deg, 10 * deg}, {350 * deg, 10 * deg}},
	}

	a, p, err := InterpolateHarmonic(amp, phase, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(p) > 1e-9 && math.Abs(p-2*math.Pi) > 1e-9 {
		t.Errorf("phase: expected 0 (mod 2π), got %.10f", p)
	}
	if want := math.Cos(10 * deg); math.Abs(a-want) > 1e-9 {
		t.Errorf("amplitude: expected %.10f, got %.10f", want, a)
	}

	// Corners take their own value.
	a, p, err = InterpolateHarmonic(amp, phase, 0, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(a-1) > 1e-9 || math.Abs(p-350*deg) > 1e-9 {
		t.Errorf("corner: expected (1, 350°), got (%.10f, %.10f)", a, p)
	}
}

// TestInterpolateHarmonic_Land skips cells with no ocean values.
func TestInterpolateHarmonic_Land(t *testing.T) {
	nan := math.NaN()
	amp := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{nan, nan}, {nan, nan}}}
	phase := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{0, 0}, {0, 0}}}

	if _, _, err := InterpolateHarmonic(amp, phase, 0.5, 0.5); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	other := &Grid2D{X: []float64{0, 2}, Y: []float64{0, 1}, Values: [][]float64{{0, 0}, {0, 0}}}
	if _, _, err := InterpolateHarmonic(amp, other, 0.5, 0.5); err == nil {
		t.Error("expected error for grids with different axes")
	}
}

// TestGrid2D_Validate tests grid validation
func TestGrid2D_Validate(t *testing.T) {
	tests := []struct {
		name    string
		grid    *Grid2D
		wantErr bool
	}{
		{
			name: "valid grid",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0, 2.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2, 3}, {4, 5, 6}},
			},
		},
		{
			name: "too few X coords",
			grid: &Grid2D{
				X:      []float64{0.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1}, {2}},
			},
			wantErr: true,
		},
		{
			name: "mismatched row count",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2}},
			},
			wantErr: true,
		},
		{
			name: "mismatched column count",
			grid: &Grid2D{
				X:      []float64{0.0, 1.0, 2.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2}, {3, 4}},
			},
			wantErr: true,
		},
		{
			name: "non-increasing X",
			grid: &Grid2D{
				X:      []float64{0.0, 2.0, 1.0},
				Y:      []float64{0.0, 1.0},
				Values: [][]float64{{1, 2, 3}, {4, 5, 6}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
