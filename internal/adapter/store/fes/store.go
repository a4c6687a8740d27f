// Package fes provides access to FES2014/2022 NetCDF tidal constituent grids.
package fes

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.ngs.io/opsdash-tides/internal/adapter/interp"
	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
)

// aliases maps FES file base names to registry names where they differ.
var aliases = map[string]string{
	"LAMBDA2": "LDA2",
	"LA2":     "LDA2",
}

var (
	ampSuffixes = []string{"", "_amplitude", "_amp"}
	phaSuffixes = []string{"", "_phase", "_pha"}
)

// Store serves harmonics interpolated from FES NetCDF grids.
type Store struct {
	dataDir string
	logger  *slog.Logger
	cache   map[string]*Grid // Cache loaded grids.
	mu      sync.RWMutex     // Protect cache.
}

// Grid holds amplitude (m) and phase (rad) grids for a constituent.
type Grid struct {
	Name      string
	Amplitude *interp.Grid2D
	Phase     *interp.Grid2D
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for grids that fail to load.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a new FES NetCDF store.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		dataDir: dataDir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:   make(map[string]*Grid),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadForLocation interpolates every available constituent at (lat, lon).
// Constituents whose grid cannot be read, does not cover the point or has no
// ocean value near it are skipped. ErrUnsupported is returned when nothing
// is left.
func (s *Store) LoadForLocation(lat, lon float64) (domain.Station, error) {
	names, err := s.GetAvailableConstituents()
	if err != nil {
		return domain.Station{}, fmt.Errorf("failed to get available constituents: %w", err)
	}
	if len(names) == 0 {
		return domain.Station{}, fmt.Errorf("%w: no FES NetCDF files found in %s", store.ErrUnsupported, s.dataDir)
	}

	cons := make(domain.Constituents, len(names))
	x := normalizeLon360(lon)
	for _, name := range names {
		grid, err := s.loadConstituent(name)
		if err != nil {
			s.logger.Warn("skipping FES constituent", "constituent", name, "error", err)
			continue
		}

		amp, phase, err := interp.InterpolateHarmonic(grid.Amplitude, grid.Phase, x, lat)
		if errors.Is(err, interp.ErrNoData) || errors.Is(err, interp.ErrOutOfRange) {
			continue
		}
		if err != nil {
			return domain.Station{}, fmt.Errorf("failed to interpolate %s at (%.4f, %.4f): %w", name, lat, lon, err)
		}
		cons[name] = domain.Harmonic{AmplitudeM: amp, PhaseRad: phase}
	}

	if len(cons) == 0 {
		return domain.Station{}, fmt.Errorf("%w: no FES grid covers location (%.4f, %.4f)", store.ErrUnsupported, lat, lon)
	}

	la, lo := lat, lon
	return domain.Station{
		ID:           fmt.Sprintf("fes:%.4f,%.4f", lat, lon),
		Name:         "FES grid",
		Latitude:     &la,
		Longitude:    &lo,
		Constituents: cons,
	}, nil
}

// normalizeLon360 maps arbitrary degree longitudes into the [0, 360) range.
// FES grids use a 0–360° longitude axis.
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}

// LoadStation is not supported by the FES store (only lat/lon queries).
func (s *Store) LoadStation(_ string) (domain.Station, error) {
	return domain.Station{}, fmt.Errorf("%w: FES store does not support station_id queries", store.ErrUnsupported)
}

// ListStations is not supported by the FES store.
func (s *Store) ListStations() ([]string, error) {
	return nil, store.ErrUnsupported
}

// GetAvailableConstituents returns the registry constituents with NetCDF
// files anywhere under the data directory, sorted by name.
func (s *Store) GetAvailableConstituents() ([]string, error) {
	if _, err := os.Stat(s.dataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("FES data directory does not exist: %s", s.dataDir)
	}

	found := make(map[string]bool)
	err := filepath.WalkDir(s.dataDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if name, ok := constituentFromFile(d.Name()); ok {
			found[name] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk FES directory: %w", err)
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// constituentFromFile maps "m2_amplitude.nc", "M4.nc" and similar to a
// registry name.
func constituentFromFile(file string) (string, bool) {
	base, ok := strings.CutSuffix(strings.ToLower(file), ".nc")
	if !ok {
		return "", false
	}
	for _, suffix := range []string{"_amplitude", "_amp", "_phase", "_pha"} {
		base = strings.TrimSuffix(base, suffix)
	}
	name := strings.ToUpper(base)
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	_, ok = domain.Resolve(name)
	return name, ok
}

// loadConstituent loads amplitude and phase grids for a constituent.
func (s *Store) loadConstituent(name string) (*Grid, error) {
	s.mu.RLock()
	grid, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return grid, nil
	}

	ampPath, err := s.find(name, ampSuffixes)
	if err != nil {
		return nil, fmt.Errorf("amplitude file not found for constituent %s: %w", name, err)
	}
	phaPath, err := s.find(name, phaSuffixes)
	if err != nil {
		return nil, fmt.Errorf("phase file not found for constituent %s: %w", name, err)
	}

	amp, err := readField(ampPath, fieldAmplitude)
	if err != nil {
		return nil, fmt.Errorf("failed to load amplitude for %s: %w", name, err)
	}
	pha, err := readField(phaPath, fieldPhase)
	if err != nil {
		return nil, fmt.Errorf("failed to load phase for %s: %w", name, err)
	}
	if !amp.SameAxes(pha) {
		return nil, fmt.Errorf("amplitude and phase grids for %s differ in shape", name)
	}

	grid = &Grid{Name: name, Amplitude: amp, Phase: pha}

	s.mu.Lock()
	s.cache[name] = grid
	s.mu.Unlock()

	return grid, nil
}

func readField(path string, f field) (*interp.Grid2D, error) {
	g, err := openGridFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = g.Close() }()
	return g.grid(f)
}

// find returns the first file under dataDir whose name matches one of the
// candidate suffixes, trying candidates in order.
func (s *Store) find(name string, suffixes []string) (string, error) {
	bases := []string{strings.ToLower(name)}
	for file, reg := range aliases {
		if reg == name && file != name {
			bases = append(bases, strings.ToLower(file))
		}
	}
	sort.Strings(bases[1:])

	for _, suffix := range suffixes {
		for _, base := range bases {
			target := base + suffix + ".nc"
			var match string
			err := filepath.WalkDir(s.dataDir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && strings.EqualFold(d.Name(), target) {
					match = path
					return fs.SkipAll
				}
				return nil
			})
			if err != nil {
				return "", err
			}
			if match != "" {
				return match, nil
			}
		}
	}
	return "", fs.ErrNotExist
}
