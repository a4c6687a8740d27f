package fes

import (
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/opsdash-tides/internal/adapter/interp"
)

// field selects which harmonic component a grid holds.
type field int

const (
	fieldAmplitude field = iota
	fieldPhase
)

func (f field) String() string {
	if f == fieldAmplitude {
		return "amplitude"
	}
	return "phase"
}

var (
	latNames = []string{"lat", "latitude", "y"}
	lonNames = []string{"lon", "longitude", "x"}

	amplitudeNames = []string{"amplitude", "Amplitude", "amp", "Amp", "HA", "Ha", "ha", "H", "h"}
	phaseNames     = []string{"phase", "Phase", "pha", "Pha", "Hg", "HG", "hg", "g", "G", "phi", "Phi", "PHI", "phase_deg"}

	realNames = []string{"hRe", "Hre", "hre", "Re", "RE", "real", "Real"}
	imagNames = []string{"hIm", "Him", "him", "Im", "IM", "imag", "Imag"}
)

// gridFile is an open NetCDF file with its lat/lon axes read.
type gridFile struct {
	path string
	nc   netcdf.Dataset
	lat  []float64
	lon  []float64
}

func openGridFile(path string) (*gridFile, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	g := &gridFile{path: path, nc: nc}

	if g.lat, err = g.axis(latNames); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("latitude: %w", err)
	}
	if g.lon, err = g.axis(lonNames); err != nil {
		_ = nc.Close()
		return nil, fmt.Errorf("longitude: %w", err)
	}
	return g, nil
}

func (g *gridFile) Close() error {
	return g.nc.Close()
}

func (g *gridFile) axis(names []string) ([]float64, error) {
	for _, name := range names {
		v, err := g.nc.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil || len(dims) != 1 {
			continue
		}
		n, err := dims[0].Len()
		if err != nil {
			return nil, err
		}
		return readFloats(v, int(n))
	}
	return nil, fmt.Errorf("variable not found (tried: %v)", names)
}

func (g *gridFile) firstVar(names []string) (netcdf.Var, bool) {
	for _, name := range names {
		if v, err := g.nc.Var(name); err == nil {
			return v, true
		}
	}
	return netcdf.Var{}, false
}

// grid reads the requested field as a lat/lon grid. Amplitudes are returned
// in meters and phases in radians. Fill values become NaN.
func (g *gridFile) grid(f field) (*interp.Grid2D, error) {
	names := amplitudeNames
	if f == fieldPhase {
		names = phaseNames
	}

	var values [][]float64
	if v, ok := g.firstVar(names); ok {
		var err error
		if values, err = g.read2D(v); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if f == fieldAmplitude {
			scale(values, g.amplitudeScale(v))
		} else if !isRadians(v) {
			scale(values, math.Pi/180)
		}
	} else {
		var err error
		if values, err = g.fromComplex(f); err != nil {
			return nil, err
		}
	}

	grid := &interp.Grid2D{X: g.lon, Y: g.lat, Values: values}
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	return grid, nil
}

// fromComplex derives amplitude or phase from a real/imaginary pair.
func (g *gridFile) fromComplex(f field) ([][]float64, error) {
	re, okRe := g.firstVar(realNames)
	im, okIm := g.firstVar(imagNames)
	if !okRe || !okIm {
		return nil, fmt.Errorf("%s variable not found and no complex pair detected", f)
	}

	reVals, err := g.read2D(re)
	if err != nil {
		return nil, fmt.Errorf("failed to read real component: %w", err)
	}
	imVals, err := g.read2D(im)
	if err != nil {
		return nil, fmt.Errorf("failed to read imag component: %w", err)
	}

	ampScale := g.amplitudeScale(re)
	out := make([][]float64, len(reVals))
	for i := range reVals {
		out[i] = make([]float64, len(reVals[i]))
		for j := range reVals[i] {
			r, m := reVals[i][j], imVals[i][j]
			if f == fieldAmplitude {
				out[i][j] = math.Hypot(r, m) * ampScale
				continue
			}
			ph := math.Atan2(m, r)
			if ph < 0 {
				ph += 2 * math.Pi
			}
			out[i][j] = ph
		}
	}
	return out, nil
}

// read2D reads v as [lat][lon], transposing [lon][lat] layouts.
func (g *gridFile) read2D(v netcdf.Var) ([][]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D data, got %dD", len(dims))
	}
	d0, err := dims[0].Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get dim0 length: %w", err)
	}
	d1, err := dims[1].Len()
	if err != nil {
		return nil, fmt.Errorf("failed to get dim1 length: %w", err)
	}

	nLat, nLon := len(g.lat), len(g.lon)
	var rows, cols int
	switch {
	case int(d0) == nLat && int(d1) == nLon:
		rows, cols = nLat, nLon
	case int(d0) == nLon && int(d1) == nLat:
		rows, cols = nLon, nLat
	default:
		return nil, fmt.Errorf("dimension mismatch: data is [%d, %d], expected [%d, %d] or [%d, %d]",
			d0, d1, nLat, nLon, nLon, nLat)
	}

	flat, err := readFloats(v, rows*cols)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if fv, ok := fillValue(v); ok {
		for i, x := range flat {
			if x == fv {
				flat[i] = math.NaN()
			}
		}
	}

	values := make([][]float64, rows)
	for i := range values {
		values[i] = flat[i*cols : (i+1)*cols]
	}
	if rows != nLat {
		values = transpose(values)
	}
	return values, nil
}

// amplitudeScale converts stored amplitudes to meters. FES ocean_tide files
// store centimeters; a units attribute takes precedence over the path.
func (g *gridFile) amplitudeScale(v netcdf.Var) float64 {
	switch strings.ToLower(textAttr(v, "units")) {
	case "m", "meter", "meters", "metre", "metres":
		return 1
	case "cm", "centimeter", "centimeters", "centimetre", "centimetres":
		return 0.01
	case "mm", "millimeter", "millimeters":
		return 0.001
	}
	if strings.Contains(strings.ToLower(g.path), "ocean_tide") {
		return 0.01
	}
	return 1
}

func isRadians(v netcdf.Var) bool {
	u := strings.ToLower(textAttr(v, "units"))
	return strings.HasPrefix(u, "rad")
}

func textAttr(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00 ")
}

func scale(values [][]float64, k float64) {
	if k == 1 {
		return
	}
	for i := range values {
		for j := range values[i] {
			values[i][j] *= k
		}
	}
}

// fillValue returns the _FillValue or missing_value attribute if present.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
	}
	return 0, false
}

// readFloats reads n values of a numeric variable as float64.
func readFloats(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, x := range tmp {
			out[i] = float64(x)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, x := range tmp {
			out[i] = float64(x)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, x := range tmp {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

func transpose(data [][]float64) [][]float64 {
	if len(data) == 0 {
		return data
	}
	out := make([][]float64, len(data[0]))
	for i := range out {
		out[i] = make([]float64, len(data))
		for j := range data {
			out[i][j] = data[j][i]
		}
	}
	return out
}
