// Package store defines how station harmonics are loaded.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.ngs.io/opsdash-tides/internal/domain"
)

var (
	// ErrStationNotFound is returned when no source holds the requested station.
	ErrStationNotFound = errors.New("station not found")
	// ErrUnsupported is returned by loaders that cannot answer a query kind.
	ErrUnsupported = errors.New("query not supported by this source")
)

// StationLoader is the interface for loading station harmonics.
type StationLoader interface {
	// LoadStation loads a named station (e.g., "raglan").
	LoadStation(stationID string) (domain.Station, error)

	// LoadForLocation loads harmonics for a lat/lon location (interpolated for gridded sources).
	LoadForLocation(lat, lon float64) (domain.Station, error)

	// ListStations returns the station IDs this source can load.
	ListStations() ([]string, error)
}

// Chain queries loaders in order and returns the first answer. Loaders that
// report ErrStationNotFound or ErrUnsupported are skipped.
type Chain []StationLoader

// LoadStation implements StationLoader.
func (c Chain) LoadStation(stationID string) (domain.Station, error) {
	for _, l := range c {
		st, err := l.LoadStation(stationID)
		if skippable(err) {
			continue
		}
		return st, err
	}
	return domain.Station{}, fmt.Errorf("%w: %s", ErrStationNotFound, stationID)
}

// LoadForLocation implements StationLoader.
func (c Chain) LoadForLocation(lat, lon float64) (domain.Station, error) {
	for _, l := range c {
		st, err := l.LoadForLocation(lat, lon)
		if skippable(err) {
			continue
		}
		return st, err
	}
	return domain.Station{}, fmt.Errorf("%w: no source covers (%.4f, %.4f)", ErrUnsupported, lat, lon)
}

// ListStations implements StationLoader. IDs are merged and sorted.
func (c Chain) ListStations() ([]string, error) {
	seen := make(map[string]bool)
	for _, l := range c {
		ids, err := l.ListStations()
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func skippable(err error) bool {
	return errors.Is(err, ErrStationNotFound) || errors.Is(err, ErrUnsupported)
}

var stationIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// NormalizeID lower-cases a station ID and rejects IDs that could escape a
// data directory.
func NormalizeID(stationID string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(stationID))
	if !stationIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: invalid station id %q", ErrStationNotFound, stationID)
	}
	return id, nil
}
