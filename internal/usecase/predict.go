package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/domain"
	"go.ngs.io/opsdash-tides/internal/metrics"
)

// ErrInvalidRequest marks request validation failures.
var ErrInvalidRequest = errors.New("invalid request")

const (
	maxPredictionPoints = 10000
	maxRange            = 365 * 24 * time.Hour
	minInterval         = time.Minute
	maxInterval         = 6 * time.Hour
)

// Location selects the station for a request: a named station or a lat/lon
// point, mutually exclusive.
type Location struct {
	Lat       *float64
	Lon       *float64
	StationID *string
}

func (l Location) hasLatLon() bool {
	return l.Lat != nil && l.Lon != nil
}

func (l Location) hasStation() bool {
	return l.StationID != nil && *l.StationID != ""
}

func (l Location) validate() error {
	if l.hasLatLon() && l.hasStation() {
		return fmt.Errorf("%w: lat/lon and station_id are mutually exclusive", ErrInvalidRequest)
	}
	if (l.Lat == nil) != (l.Lon == nil) {
		return fmt.Errorf("%w: lat and lon must be given together", ErrInvalidRequest)
	}
	if !l.hasLatLon() && !l.hasStation() {
		return fmt.Errorf("%w: either lat/lon or station_id must be provided", ErrInvalidRequest)
	}
	if l.hasLatLon() {
		if math.IsNaN(*l.Lat) || *l.Lat < -90 || *l.Lat > 90 {
			return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidRequest)
		}
		if math.IsNaN(*l.Lon) || *l.Lon < -180 || *l.Lon > 180 {
			return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidRequest)
		}
	}
	return nil
}

// PredictionRequest encapsulates a tide prediction request.
type PredictionRequest struct {
	Location

	// Time range, inclusive.
	Start time.Time
	End   time.Time

	// Interval between samples (e.g., 10 minutes).
	Interval time.Duration

	// DisableLatitudeCorrection skips latitude-dependent nodal corrections.
	DisableLatitudeCorrection bool
}

// Validate checks if the request is valid.
func (r *PredictionRequest) Validate() error {
	if err := r.Location.validate(); err != nil {
		return err
	}

	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start time must be before end time", ErrInvalidRequest)
	}
	if r.Interval < minInterval {
		return fmt.Errorf("%w: interval must be at least 1 minute", ErrInvalidRequest)
	}
	if r.Interval > maxInterval {
		return fmt.Errorf("%w: interval must be at most 6 hours", ErrInvalidRequest)
	}

	duration := r.End.Sub(r.Start)
	if duration > maxRange {
		return fmt.Errorf("%w: time range must be at most 365 days", ErrInvalidRequest)
	}
	if n := int(duration/r.Interval) + 1; n > maxPredictionPoints {
		return fmt.Errorf("%w: too many prediction points (%d) - reduce time range or increase interval", ErrInvalidRequest, n)
	}
	return nil
}

// NowRequest asks for the current state of the tide.
type NowRequest struct {
	Location

	// At overrides the current time when set.
	At time.Time

	DisableLatitudeCorrection bool
}

// StationInfo describes the station a response was computed for.
type StationInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	DatumOffsetM float64  `json:"datum_offset_m"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
}

// PredictionResponse contains the tide prediction results.
type PredictionResponse struct {
	Source             string            `json:"source"`
	Station            StationInfo       `json:"station"`
	Timezone           string            `json:"timezone"`
	LatitudeCorrection bool              `json:"latitude_correction"`
	Constituents       []string          `json:"constituents"`
	Unresolved         []string          `json:"unresolved_constituents"`
	Predictions        []PredictionPoint `json:"predictions"`
	Extrema            ExtremaResponse   `json:"extrema"`
	Meta               map[string]string `json:"meta"`
}

// PredictionPoint represents a single tide height prediction.
type PredictionPoint struct {
	Time    string  `json:"time"`
	HeightM float64 `json:"height_m"`
}

// ExtremePoint is a high or low water event.
type ExtremePoint struct {
	Time     string  `json:"time"`
	HeightM  float64 `json:"height_m"`
	Kind     string  `json:"kind"`
	Daylight *bool   `json:"daylight,omitempty"`
}

// ExtremaResponse contains high and low tides.
type ExtremaResponse struct {
	Highs []ExtremePoint `json:"highs"`
	Lows  []ExtremePoint `json:"lows"`
}

// NowResponse is the live snapshot for a station.
type NowResponse struct {
	Source      string        `json:"source"`
	Station     StationInfo   `json:"station"`
	Time        string        `json:"time"`
	HeightM     float64       `json:"height_m"`
	Trend       string        `json:"trend"`
	NextExtreme *ExtremePoint `json:"next_extreme,omitempty"`
	Unresolved  []string      `json:"unresolved_constituents"`
}

// PredictionUseCase orchestrates tide prediction.
type PredictionUseCase struct {
	stations       store.StationLoader
	grids          store.StationLoader
	defaultStation string
	radiusKm       float64
	logger         *slog.Logger
	now            func() time.Time
}

// Option configures a PredictionUseCase.
type Option func(*PredictionUseCase)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(uc *PredictionUseCase) {
		if l != nil {
			uc.logger = l
		}
	}
}

// WithDefaultStation sets the station used when a request names none.
func WithDefaultStation(id string) Option {
	return func(uc *PredictionUseCase) {
		uc.defaultStation = id
	}
}

// WithStationRadius makes lat/lon requests within km of a station with a
// known position use that station instead of the grids. Zero disables it.
func WithStationRadius(km float64) Option {
	return func(uc *PredictionUseCase) {
		uc.radiusKm = km
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *PredictionUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewPredictionUseCase creates a new prediction use case. stations answers
// station_id queries; grids answers lat/lon queries. Either may be nil.
func NewPredictionUseCase(stations, grids store.StationLoader, opts ...Option) *PredictionUseCase {
	uc := &PredictionUseCase{
		stations: stations,
		grids:    grids,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *PredictionUseCase) withDefault(loc Location) Location {
	if !loc.hasStation() && loc.Lat == nil && loc.Lon == nil && uc.defaultStation != "" {
		id := uc.defaultStation
		loc.StationID = &id
	}
	return loc
}

// Execute performs the tide prediction.
func (uc *PredictionUseCase) Execute(req PredictionRequest) (*PredictionResponse, error) {
	req.Location = uc.withDefault(req.Location)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res, err := uc.resolve(req.Location)
	if err != nil {
		return nil, err
	}
	pred, err := uc.predictor(res.station, !req.DisableLatitudeCorrection)
	if err != nil {
		return nil, err
	}

	predictions := pred.GeneratePredictions(req.Start.UTC(), req.End.UTC(), req.Interval)
	metrics.ObservePredictionPoints(len(predictions))

	extrema := domain.RefineExtrema(predictions, domain.FindExtrema(predictions))

	points := make([]PredictionPoint, len(predictions))
	for i, p := range predictions {
		points[i] = PredictionPoint{
			Time:    formatTime(p.Time),
			HeightM: roundToDecimal(p.HeightM, 3),
		}
	}

	_, latApplied := pred.Latitude()
	return &PredictionResponse{
		Source:             res.source,
		Station:            res.info(),
		Timezone:           "+00:00",
		LatitudeCorrection: latApplied,
		Constituents:       pred.Names(),
		Unresolved:         nonNil(pred.Unresolved()),
		Predictions:        points,
		Extrema: ExtremaResponse{
			Highs: uc.extremePoints(res.station, extrema.Highs, domain.HighTide),
			Lows:  uc.extremePoints(res.station, extrema.Lows, domain.LowTide),
		},
		Meta: map[string]string{
			"model":       "harmonic_v1",
			"attribution": res.attribution(),
		},
	}, nil
}

// Now returns the current height, trend and next extreme.
func (uc *PredictionUseCase) Now(req NowRequest) (*NowResponse, error) {
	req.Location = uc.withDefault(req.Location)
	if err := req.Location.validate(); err != nil {
		return nil, err
	}

	res, err := uc.resolve(req.Location)
	if err != nil {
		return nil, err
	}
	pred, err := uc.predictor(res.station, !req.DisableLatitudeCorrection)
	if err != nil {
		return nil, err
	}

	at := req.At
	if at.IsZero() {
		at = uc.now()
	}
	p := pred.Predict(at.UTC())

	resp := &NowResponse{
		Source:     res.source,
		Station:    res.info(),
		Time:       formatTime(p.Time),
		HeightM:    roundToDecimal(p.HeightM, 3),
		Trend:      string(p.Trend),
		Unresolved: nonNil(pred.Unresolved()),
	}
	if p.NextExtreme != nil {
		e := uc.extremePoint(res.station, domain.TideLevel{Time: p.NextExtreme.Time, HeightM: p.NextExtreme.HeightM}, p.NextExtreme.Kind)
		resp.NextExtreme = &e
	}
	return resp, nil
}

// StationSummary is a station listing entry.
type StationSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	DatumOffsetM float64  `json:"datum_offset_m"`
	Constituents int      `json:"constituents"`
}

// ListStations returns the configured stations. Stations that fail to load
// are logged and left out.
func (uc *PredictionUseCase) ListStations() ([]StationSummary, error) {
	if uc.stations == nil {
		return []StationSummary{}, nil
	}
	ids, err := uc.stations.ListStations()
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	out := make([]StationSummary, 0, len(ids))
	for _, id := range ids {
		st, err := uc.stations.LoadStation(id)
		if err != nil {
			uc.logger.Warn("skipping unreadable station", "station", id, "error", err)
			continue
		}
		out = append(out, StationSummary{
			ID:           st.ID,
			Name:         st.Name,
			Latitude:     st.Latitude,
			Longitude:    st.Longitude,
			DatumOffsetM: st.DatumOffsetM,
			Constituents: len(st.Constituents),
		})
	}
	return out, nil
}

// GetAllConstituents returns all registry constituents.
func (uc *PredictionUseCase) GetAllConstituents() []domain.Definition {
	return domain.GetAllConstituents()
}

type resolved struct {
	station    domain.Station
	source     string
	distanceKm *float64
}

func (r resolved) info() StationInfo {
	return StationInfo{
		ID:           r.station.ID,
		Name:         r.station.Name,
		Latitude:     r.station.Latitude,
		Longitude:    r.station.Longitude,
		DatumOffsetM: r.station.DatumOffsetM,
		DistanceKm:   r.distanceKm,
	}
}

func (r resolved) attribution() string {
	if r.source == sourceFES {
		return "FES2014/2022 tidal model"
	}
	return "Station harmonic constants"
}

const (
	sourceStation = "station"
	sourceFES     = "fes"
)

// resolve loads the station for loc. Lat/lon requests prefer a nearby
// station and fall back to the grids.
func (uc *PredictionUseCase) resolve(loc Location) (resolved, error) {
	if loc.hasStation() {
		if uc.stations == nil {
			return resolved{}, fmt.Errorf("%w: %s", store.ErrStationNotFound, *loc.StationID)
		}
		st, err := uc.stations.LoadStation(*loc.StationID)
		metrics.ObserveStationLoad("station", err)
		if err != nil {
			return resolved{}, fmt.Errorf("failed to load station %s: %w", *loc.StationID, err)
		}
		return resolved{station: st, source: sourceStation}, nil
	}

	lat, lon := *loc.Lat, *loc.Lon
	if st, d, ok := uc.nearestStation(lat, lon); ok {
		metrics.ObserveStationLoad("location", nil)
		return resolved{station: st, source: sourceStation, distanceKm: &d}, nil
	}

	if uc.grids == nil {
		return resolved{}, fmt.Errorf("%w: no grid source configured", store.ErrUnsupported)
	}
	st, err := uc.grids.LoadForLocation(lat, lon)
	metrics.ObserveStationLoad("location", err)
	if err != nil {
		return resolved{}, fmt.Errorf("failed to load constituents for location (%.4f, %.4f): %w", lat, lon, err)
	}
	return resolved{station: st, source: sourceFES}, nil
}

func (uc *PredictionUseCase) predictor(st domain.Station, useLatitude bool) (*domain.Predictor, error) {
	pred, err := st.Predictor(useLatitude, uc.logger)
	if err != nil {
		return nil, err
	}
	metrics.ObserveUnresolved(pred.Unresolved())
	return pred, nil
}

func (uc *PredictionUseCase) extremePoints(st domain.Station, levels []domain.TideLevel, kind domain.ExtremeKind) []ExtremePoint {
	out := make([]ExtremePoint, len(levels))
	for i, l := range levels {
		out[i] = uc.extremePoint(st, l, kind)
	}
	return out
}

func (uc *PredictionUseCase) extremePoint(st domain.Station, l domain.TideLevel, kind domain.ExtremeKind) ExtremePoint {
	p := ExtremePoint{
		Time:    formatTime(l.Time),
		HeightM: roundToDecimal(l.HeightM, 3),
		Kind:    kind.String(),
	}
	if st.Latitude != nil && st.Longitude != nil {
		d := IsDaylight(*st.Latitude, *st.Longitude, l.Time)
		p.Daylight = &d
	}
	return p
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// roundToDecimal rounds half away from zero.
func roundToDecimal(val float64, precision int) float64 {
	m := math.Pow(10, float64(precision))
	return math.Round(val*m) / m
}

// IsUserError reports whether err was caused by the request rather than the
// server.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, domain.ErrMalformedInput)
}
