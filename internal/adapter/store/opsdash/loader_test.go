package opsdash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
)

const raglanJSON = `{
  "name": "Raglan",
  "latitude": -37.8,
  "longitude": 174.87,
  "datum_offset_m": 1.962,
  "cons": [{"M2": [1.2, 0.5], "S2": [0.3, 1.0], "K1": [0.1, 2.0]}]
}`

func TestLoadStation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "raglan.json"), []byte(raglanJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := NewStationStore(dir).LoadStation("raglan")
	if err != nil {
		t.Fatalf("LoadStation: %v", err)
	}

	lat, lon := -37.8, 174.87
	want := domain.Station{
		ID:           "raglan",
		Name:         "Raglan",
		Latitude:     &lat,
		Longitude:    &lon,
		DatumOffsetM: 1.962,
		Constituents: domain.Constituents{
			"M2": {AmplitudeM: 1.2, PhaseRad: 0.5},
			"S2": {AmplitudeM: 0.3, PhaseRad: 1.0},
			"K1": {AmplitudeM: 0.1, PhaseRad: 2.0},
		},
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("station mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStation_NotFound(t *testing.T) {
	_, err := NewStationStore(t.TempDir()).LoadStation("nowhere")
	if !errors.Is(err, store.ErrStationNotFound) {
		t.Errorf("expected ErrStationNotFound, got %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"syntax", `{"cons": [`, "failed to decode"},
		{"no cons", `{"name": "x"}`, "no constituents"},
		{"empty cons", `{"cons": [{}]}`, "no constituents"},
		{"negative amplitude", `{"cons": [{"M2": [-1, 0]}]}`, "malformed"},
		{"short pair", `{"cons": [{"M2": [1.2]}]}`, "M2 has 1 values"},
		{"long pair", `{"cons": [{"M2": [1.2, 0.5, 9]}]}`, "M2 has 3 values"},
		{"unknown short pair", `{"cons": [{"XX9": []}]}`, "XX9 has 0 values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecode_WrongPairLengthIsSentinel(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"cons": [{"M2": [1.2]}]}`))
	if !errors.Is(err, domain.ErrMalformedInput) {
		t.Errorf("expected ErrMalformedInput, got %v", err)
	}
}

func TestDecode_NoLatitude(t *testing.T) {
	st, err := Decode(strings.NewReader(`{"cons": [{"M2": [1, 0]}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.Latitude != nil {
		t.Errorf("expected nil latitude, got %v", *st.Latitude)
	}
}

func TestListStations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"raglan.json", "kawhia.json", "notes.txt", "Bad Name.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(raglanJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := NewStationStore(dir).ListStations()
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if diff := cmp.Diff([]string{"kawhia", "raglan"}, got); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}
}

func TestListStations_MixedCase(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Raglan.json", "Kawhia.JSON"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(raglanJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s := NewStationStore(dir)

	ids, err := s.ListStations()
	if err != nil {
		t.Fatalf("ListStations: %v", err)
	}
	if diff := cmp.Diff([]string{"kawhia", "raglan"}, ids); diff != "" {
		t.Errorf("stations mismatch (-want +got):\n%s", diff)
	}

	for _, id := range ids {
		st, err := s.LoadStation(id)
		if err != nil {
			t.Errorf("LoadStation(%q): %v", id, err)
			continue
		}
		if st.ID != id {
			t.Errorf("LoadStation(%q) returned ID %q", id, st.ID)
		}
	}
}
