package main

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.ngs.io/opsdash-tides/internal/adapter/store/fes"
	"go.ngs.io/opsdash-tides/internal/domain"
)

func TestRun_RoundTripThroughFESStore(t *testing.T) {
	dir := t.TempDir()
	station := filepath.Join(dir, "raglan.json")
	content := `{"name":"Raglan","latitude":-37.8,"longitude":174.87,"cons":[{"M2":[1.2,0.5],"K1":[0.1,2.0],"XX9":[0.2,0]}]}`
	if err := os.WriteFile(station, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "fes")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run([]string{"-station", station, "-out", out, "-radius", "1", "-resolution", "0.25", "-progress=false"}, logger); err != nil {
		t.Fatalf("run: %v", err)
	}

	grids := fes.NewStore(out)
	names, err := grids.GetAvailableConstituents()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"K1", "M2"}, names); diff != "" {
		t.Errorf("constituents mismatch (-want +got):\n%s", diff)
	}

	st, err := grids.LoadForLocation(-37.8, 174.87)
	if err != nil {
		t.Fatalf("LoadForLocation: %v", err)
	}
	want := map[string]domain.Harmonic{
		"M2": {AmplitudeM: 1.2, PhaseRad: 0.5},
		"K1": {AmplitudeM: 0.1, PhaseRad: 2.0},
	}
	for name, w := range want {
		got := st.Constituents[name]
		if math.Abs(got.AmplitudeM-w.AmplitudeM) > 1e-9 || math.Abs(got.PhaseRad-w.PhaseRad) > 1e-9 {
			t.Errorf("%s: got %+v, want %+v", name, got, w)
		}
	}

	// Off the centre the field still yields a usable constituent set.
	off, err := grids.LoadForLocation(-37.3, 175.2)
	if err != nil {
		t.Fatalf("LoadForLocation off centre: %v", err)
	}
	if a := off.Constituents["M2"].AmplitudeM; a <= 0.6 || a >= 1.6 {
		t.Errorf("M2 amplitude off centre = %v", a)
	}
}

func TestNewBox(t *testing.T) {
	b, err := newBox(89.5, 10, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{88.5, 89, 89.5, 90}, b.lat); diff != "" {
		t.Errorf("latitudes mismatch (-want +got):\n%s", diff)
	}
	if len(b.lon) != 5 {
		t.Errorf("expected 5 longitudes, got %d", len(b.lon))
	}

	if _, err := newBox(0, 0.5, 1, 0.5); err == nil {
		t.Error("expected error for a box crossing the prime meridian")
	}
}

func TestCentre(t *testing.T) {
	lat, lon := -37.8, -122.0
	st := domain.Station{Latitude: &lat, Longitude: &lon}

	gotLat, gotLon, err := centre(st, options{lat: math.NaN(), lon: math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	if gotLat != -37.8 || gotLon != 238 {
		t.Errorf("centre = (%v, %v), want (-37.8, 238)", gotLat, gotLon)
	}

	if _, _, err := centre(domain.Station{}, options{lat: math.NaN(), lon: math.NaN()}); err == nil {
		t.Error("expected error without a position")
	}
}

func TestParseFlags_Errors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-station", "x.csv", "-resolution", "0"},
		{"-station", "x.csv", "-radius", "180", "-resolution", "0.01"},
	} {
		if _, err := parseFlags(args); err == nil {
			t.Errorf("parseFlags(%v): expected error", args)
		}
	}
}
