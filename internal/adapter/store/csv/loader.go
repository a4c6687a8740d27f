// Package csv provides CSV-based station harmonics loading.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
)

const fileSuffix = "_constituents.csv"

var expectedHeaders = []string{"constituent", "amplitude_m", "phase_deg"}

// StationStore reads stations from <dataDir>/<id>_constituents.csv.
//
// Leading lines of the form "# key: value" carry station metadata; the keys
// name, latitude, longitude and datum_offset_m are recognised.
type StationStore struct {
	dataDir string
}

// NewStationStore creates a new CSV-based station store.
func NewStationStore(dataDir string) *StationStore {
	return &StationStore{
		dataDir: dataDir,
	}
}

// LoadStation loads harmonics for a named station.
func (s *StationStore) LoadStation(stationID string) (domain.Station, error) {
	id, err := store.NormalizeID(stationID)
	if err != nil {
		return domain.Station{}, err
	}

	filename, err := store.FindStationFile(s.dataDir, id, fileSuffix)
	if err != nil {
		return domain.Station{}, err
	}
	//nolint:gosec // G304: File path found under dataDir (config) for a validated station ID.
	data, err := os.ReadFile(filename)
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to open CSV file for station %s: %w", id, err)
	}

	st, err := Parse(bytes.NewReader(data))
	if err != nil {
		return domain.Station{}, fmt.Errorf("station %s: %w", id, err)
	}
	st.ID = id
	if st.Name == "" {
		st.Name = id
	}
	return st, nil
}

// Parse reads a station from CSV. Phases are given in degrees and returned in
// radians. Constituent names are not checked against the registry.
func Parse(r io.Reader) (domain.Station, error) {
	br := bufio.NewReader(r)
	st := domain.Station{Constituents: domain.Constituents{}}

	if err := parseMetadata(br, &st); err != nil {
		return domain.Station{}, err
	}

	reader := csv.NewReader(br)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return domain.Station{}, fmt.Errorf("invalid CSV header: expected %v, got %v", expectedHeaders, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != expectedHeaders[i] {
			return domain.Station{}, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, expectedHeaders[i], h)
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Station{}, fmt.Errorf("failed to read CSV record: %w", err)
		}

		name := strings.TrimSpace(record[0])
		amplitude, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return domain.Station{}, fmt.Errorf("invalid amplitude for constituent %s: %w", name, err)
		}
		phase, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return domain.Station{}, fmt.Errorf("invalid phase for constituent %s: %w", name, err)
		}
		if _, dup := st.Constituents[name]; dup {
			return domain.Station{}, fmt.Errorf("duplicate constituent %s", name)
		}

		st.Constituents[name] = domain.Harmonic{
			AmplitudeM: amplitude,
			PhaseRad:   domain.Deg2Rad(phase),
		}
	}

	if len(st.Constituents) == 0 {
		return domain.Station{}, fmt.Errorf("no constituents found in CSV")
	}
	if err := st.Constituents.Validate(); err != nil {
		return domain.Station{}, err
	}
	return st, nil
}

func parseMetadata(br *bufio.Reader, st *domain.Station) error {
	for {
		b, err := br.Peek(1)
		if err != nil || b[0] != '#' {
			return nil
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read metadata: %w", err)
		}

		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			st.Name = value
		case "latitude", "longitude", "datum_offset_m":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("invalid %s metadata: %w", key, err)
			}
			switch key {
			case "latitude":
				st.Latitude = &v
			case "longitude":
				st.Longitude = &v
			default:
				st.DatumOffsetM = v
			}
		}
	}
}

// LoadForLocation is not supported by the CSV store.
func (s *StationStore) LoadForLocation(_ /* lat */, _ /* lon */ float64) (domain.Station, error) {
	return domain.Station{}, fmt.Errorf("%w: CSV store does not support lat/lon queries", store.ErrUnsupported)
}

// ListStations returns the normalized IDs of the station CSV files.
func (s *StationStore) ListStations() ([]string, error) {
	return store.StationIDs(s.dataDir, fileSuffix)
}
