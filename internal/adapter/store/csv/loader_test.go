package csv

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
)

const raglanCSV = `# name: Raglan Wharf
# latitude: -37.8
# longitude: 174.87
# datum_offset_m: 1.962
constituent,amplitude_m,phase_deg
M2, 1.20, 180
S2, 0.30, 90
XX7, 0.01, 0
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadStation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "raglan_constituents.csv", raglanCSV)

	s := NewStationStore(dir)
	st, err := s.LoadStation("Raglan")
	if err != nil {
		t.Fatalf("LoadStation: %v", err)
	}

	if st.ID != "raglan" || st.Name != "Raglan Wharf" {
		t.Errorf("unexpected id/name: %q %q", st.ID, st.Name)
	}
	if st.Latitude == nil || *st.Latitude != -37.8 {
		t.Errorf("latitude: got %v", st.Latitude)
	}
	if st.Longitude == nil || *st.Longitude != 174.87 {
		t.Errorf("longitude: got %v", st.Longitude)
	}
	if st.DatumOffsetM != 1.962 {
		t.Errorf("datum offset: expected 1.962, got %v", st.DatumOffsetM)
	}

	want := domain.Constituents{
		"M2":  {AmplitudeM: 1.2, PhaseRad: math.Pi},
		"S2":  {AmplitudeM: 0.3, PhaseRad: math.Pi / 2},
		"XX7": {AmplitudeM: 0.01, PhaseRad: 0},
	}
	if diff := cmp.Diff(want, st.Constituents, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("constituents mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStation_NotFound(t *testing.T) {
	s := NewStationStore(t.TempDir())

	for _, id := range []string{"missing", "../etc/passwd", ""} {
		if _, err := s.LoadStation(id); !errors.Is(err, store.ErrStationNotFound) {
			t.Errorf("%q: expected ErrStationNotFound, got %v", id, err)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"bad header", "name,amp,phase\nM2,1,0\n", "invalid CSV header"},
		{"bad amplitude", "constituent,amplitude_m,phase_deg\nM2,x,0\n", "invalid amplitude"},
		{"bad phase", "constituent,amplitude_m,phase_deg\nM2,1,y\n", "invalid phase"},
		{"negative amplitude", "constituent,amplitude_m,phase_deg\nM2,-1,0\n", "malformed"},
		{"duplicate", "constituent,amplitude_m,phase_deg\nM2,1,0\nM2,1,0\n", "duplicate constituent M2"},
		{"empty", "constituent,amplitude_m,phase_deg\n", "no constituents"},
		{"bad metadata", "# latitude: north\nconstituent,amplitude_m,phase_deg\nM2,1,0\n", "invalid latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_MalformedIsSentinel(t *testing.T) {
	_, err := Parse(strings.NewReader("constituent,amplitude_m,phase_deg\nM2,-1,0\n"))
	if !errors.Is(err, domain.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestListStations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "raglan_constituents.csv", raglanCSV)
	writeFile(t, dir, "manukau_constituents.csv", raglanCSV)
	writeFile(t, dir, "readme.txt", "ignored")

	got, err := NewStationStore(dir).ListStations()
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if diff := cmp.Diff([]string{"manukau", "raglan"}, got); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}
}

func TestListStations_MixedCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Raglan_constituents.csv", raglanCSV)
	writeFile(t, dir, "_constituents.csv", raglanCSV)
	s := NewStationStore(dir)

	ids, err := s.ListStations()
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if diff := cmp.Diff([]string{"raglan"}, ids); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"raglan", "RAGLAN"} {
		st, err := s.LoadStation(id)
		if err != nil {
			t.Fatalf("LoadStation(%q): %v", id, err)
		}
		if st.ID != "raglan" || st.Name != "Raglan Wharf" {
			t.Errorf("LoadStation(%q): got %q/%q", id, st.ID, st.Name)
		}
	}
}

func TestLoadForLocation_Unsupported(t *testing.T) {
	_, err := NewStationStore(t.TempDir()).LoadForLocation(0, 0)
	if !errors.Is(err, store.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}
