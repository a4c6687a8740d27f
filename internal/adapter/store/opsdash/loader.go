// Package opsdash loads station harmonics from the dashboard's JSON files.
//
// A station file looks like:
//
//	{
//	  "name": "Raglan",
//	  "latitude": -37.8,
//	  "longitude": 174.87,
//	  "datum_offset_m": 1.962,
//	  "cons": [{"M2": [1.2, 0.5], "S2": [0.3, 1.0]}]
//	}
//
// Each constituent is an [amplitude_m, phase_rad] pair. Only the first entry
// of "cons" is used.
package opsdash

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
)

const fileExt = ".json"

type stationFile struct {
	Name         string                 `json:"name"`
	Latitude     *float64               `json:"latitude"`
	Longitude    *float64               `json:"longitude"`
	DatumOffsetM float64                `json:"datum_offset_m"`
	Cons         []map[string][]float64 `json:"cons"`
}

// StationStore reads stations from <dataDir>/<id>.json.
type StationStore struct {
	dataDir string
}

// NewStationStore creates a JSON station store.
func NewStationStore(dataDir string) *StationStore {
	return &StationStore{dataDir: dataDir}
}

// LoadStation loads the station file for stationID.
func (s *StationStore) LoadStation(stationID string) (domain.Station, error) {
	id, err := store.NormalizeID(stationID)
	if err != nil {
		return domain.Station{}, err
	}

	path, err := store.FindStationFile(s.dataDir, id, fileExt)
	if err != nil {
		return domain.Station{}, err
	}
	//nolint:gosec // G304: File path found under dataDir (config) for a validated station ID.
	f, err := os.Open(path)
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to open station file %s: %w", id, err)
	}
	defer func() { _ = f.Close() }()

	st, err := Decode(f)
	if err != nil {
		return domain.Station{}, fmt.Errorf("station %s: %w", id, err)
	}
	st.ID = id
	if st.Name == "" {
		st.Name = id
	}
	return st, nil
}

// Decode parses one station document.
func Decode(r io.Reader) (domain.Station, error) {
	var doc stationFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return domain.Station{}, fmt.Errorf("failed to decode station JSON: %w", err)
	}
	if len(doc.Cons) == 0 || len(doc.Cons[0]) == 0 {
		return domain.Station{}, fmt.Errorf("no constituents in station JSON")
	}

	cons := make(domain.Constituents, len(doc.Cons[0]))
	for name, pair := range doc.Cons[0] {
		if len(pair) != 2 {
			return domain.Station{}, fmt.Errorf("%w: constituent %s has %d values, want [amplitude, phase]", domain.ErrMalformedInput, name, len(pair))
		}
		cons[name] = domain.Harmonic{AmplitudeM: pair[0], PhaseRad: pair[1]}
	}
	if err := cons.Validate(); err != nil {
		return domain.Station{}, err
	}

	return domain.Station{
		Name:         doc.Name,
		Latitude:     doc.Latitude,
		Longitude:    doc.Longitude,
		DatumOffsetM: doc.DatumOffsetM,
		Constituents: cons,
	}, nil
}

// LoadForLocation is not supported; station files are addressed by ID.
func (s *StationStore) LoadForLocation(_, _ float64) (domain.Station, error) {
	return domain.Station{}, fmt.Errorf("%w: JSON store does not support lat/lon queries", store.ErrUnsupported)
}

// ListStations returns the normalized IDs of the JSON files in the data
// directory.
func (s *StationStore) ListStations() ([]string, error) {
	return store.StationIDs(s.dataDir, fileExt)
}
