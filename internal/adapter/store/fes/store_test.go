package fes

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/google/go-cmp/cmp"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
)

// createNC writes a 2x2 grid over lat 35..36, lon 139..140 with the given
// 2D float variables.
func createNC(t *testing.T, path string, vars map[string][2][2]float32) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer f.Close()

	latDim, _ := f.AddDim("lat", 2)
	lonDim, _ := f.AddDim("lon", 2)
	vlat, _ := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	vlon, _ := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})

	added := make(map[string]netcdf.Var, len(vars))
	for name := range vars {
		v, err := f.AddVar(name, netcdf.FLOAT, []netcdf.Dim{latDim, lonDim})
		if err != nil {
			t.Fatalf("add var %s: %v", name, err)
		}
		added[name] = v
	}

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vlat.WriteFloat64s([]float64{35.0, 36.0}); err != nil {
		t.Fatalf("write lat: %v", err)
	}
	if err := vlon.WriteFloat64s([]float64{139.0, 140.0}); err != nil {
		t.Fatalf("write lon: %v", err)
	}
	for name, v := range added {
		d := vars[name]
		if err := v.WriteFloat32s([]float32{d[0][0], d[0][1], d[1][0], d[1][1]}); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestGetAvailableConstituents_Recursive(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"m2_amplitude.nc",
		"m2_phase.nc",
		"ocean_tide/m4.nc",
		"ocean_tide/ms4.nc",
		"ocean_tide/lambda2.nc",
		"ocean_tide/s4.nc", // not in the registry
		"notes.txt",
	} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := NewStore(dir).GetAvailableConstituents()
	if err != nil {
		t.Fatalf("GetAvailableConstituents error: %v", err)
	}
	if diff := cmp.Diff([]string{"LDA2", "M2", "M4", "MS4"}, got); diff != "" {
		t.Errorf("constituents mismatch (-want +got):\n%s", diff)
	}
}

func TestGetAvailableConstituents_MissingDir(t *testing.T) {
	if _, err := NewStore(filepath.Join(t.TempDir(), "nope")).GetAvailableConstituents(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadConstituent_CombinedFile_CmToM(t *testing.T) {
	dir := t.TempDir()
	createNC(t, filepath.Join(dir, "ocean_tide", "m4.nc"), map[string][2][2]float32{
		"amplitude": {{100, 200}, {300, 400}},
		"phase":     {{0, 90}, {180, 270}},
	})

	grid, err := NewStore(dir).loadConstituent("M4")
	if err != nil {
		t.Fatalf("loadConstituent: %v", err)
	}
	if grid.Amplitude.Values[0][0] != 1.0 || grid.Amplitude.Values[1][1] != 4.0 {
		t.Errorf("amplitude not converted to meters: got %v", grid.Amplitude.Values)
	}
	if math.Abs(grid.Phase.Values[0][1]-math.Pi/2) > 1e-6 {
		t.Errorf("phase not converted to radians: got %v", grid.Phase.Values)
	}
}

func TestLoadConstituent_ComplexPair(t *testing.T) {
	dir := t.TempDir()
	createNC(t, filepath.Join(dir, "ocean_tide", "m6.nc"), map[string][2][2]float32{
		"hRe": {{3, 5}, {8, 7}},
		"hIm": {{4, 12}, {15, 24}},
	})

	grid, err := NewStore(dir).loadConstituent("M6")
	if err != nil {
		t.Fatalf("loadConstituent: %v", err)
	}
	// 5 cm -> 0.05 m.
	if got := grid.Amplitude.Values[0][0]; math.Abs(got-0.05) > 1e-6 {
		t.Errorf("expected ~0.05 m, got %v", got)
	}
	if got, want := grid.Phase.Values[0][0], math.Atan2(4, 3); math.Abs(got-want) > 1e-6 {
		t.Errorf("expected phase %v, got %v", want, got)
	}
}

func TestLoadConstituent_Cached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m2.nc")
	createNC(t, path, map[string][2][2]float32{
		"amplitude": {{1, 1}, {1, 1}},
		"phase":     {{0, 0}, {0, 0}},
	})

	s := NewStore(dir)
	first, err := s.loadConstituent("M2")
	if err != nil {
		t.Fatalf("loadConstituent: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := s.loadConstituent("M2")
	if err != nil {
		t.Fatalf("cached loadConstituent: %v", err)
	}
	if first != second {
		t.Error("expected cached grid to be reused")
	}
}

func TestLoadForLocation(t *testing.T) {
	dir := t.TempDir()
	createNC(t, filepath.Join(dir, "m2_amplitude.nc"), map[string][2][2]float32{
		"amplitude": {{1.0, 1.0}, {1.0, 1.0}},
	})
	createNC(t, filepath.Join(dir, "m2_phase.nc"), map[string][2][2]float32{
		"phase": {{350, 10}, {350, 10}},
	})
	createNC(t, filepath.Join(dir, "k1.nc"), map[string][2][2]float32{
		"amplitude": {{0.2, 0.4}, {0.2, 0.4}},
		"phase":     {{30, 30}, {30, 30}},
	})

	// -220.5°E wraps to 139.5°E.
	st, err := NewStore(dir).LoadForLocation(35.5, -220.5)
	if err != nil {
		t.Fatalf("LoadForLocation: %v", err)
	}
	if st.Latitude == nil || *st.Latitude != 35.5 {
		t.Errorf("latitude: got %v", st.Latitude)
	}

	m2, ok := st.Constituents["M2"]
	if !ok {
		t.Fatal("M2 missing")
	}
	if d := math.Min(m2.PhaseRad, 2*math.Pi-m2.PhaseRad); d > 1e-6 {
		t.Errorf("M2 phase: expected ~0, got %v", m2.PhaseRad)
	}
	if want := math.Cos(10 * math.Pi / 180); math.Abs(m2.AmplitudeM-want) > 1e-6 {
		t.Errorf("M2 amplitude: expected %v, got %v", want, m2.AmplitudeM)
	}

	k1 := st.Constituents["K1"]
	if math.Abs(k1.AmplitudeM-0.3) > 1e-6 || math.Abs(k1.PhaseRad-math.Pi/6) > 1e-6 {
		t.Errorf("K1: got %+v", k1)
	}
}

func TestLoadForLocation_OutsideGrid(t *testing.T) {
	dir := t.TempDir()
	createNC(t, filepath.Join(dir, "m2.nc"), map[string][2][2]float32{
		"amplitude": {{1.0, 1.0}, {1.0, 1.0}},
		"phase":     {{0, 0}, {0, 0}},
	})

	for _, pt := range [][2]float64{{10, 139.5}, {35.5, 150}, {-37.8, 174.87}} {
		_, err := NewStore(dir).LoadForLocation(pt[0], pt[1])
		if !errors.Is(err, store.ErrUnsupported) {
			t.Errorf("(%v, %v): expected ErrUnsupported, got %v", pt[0], pt[1], err)
		}
	}
}

func TestLoadForLocation_Empty(t *testing.T) {
	_, err := NewStore(t.TempDir()).LoadForLocation(0, 0)
	if !errors.Is(err, store.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for empty directory, got %v", err)
	}
}

func TestLoadStation_Unsupported(t *testing.T) {
	if _, err := NewStore(t.TempDir()).LoadStation("raglan"); !errors.Is(err, store.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestNormalizeLon360(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{174.87, 174.87},
		{-10, 350},
		{360, 0},
		{-370, 350},
	}
	for _, tt := range tests {
		if got := normalizeLon360(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeLon360(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
