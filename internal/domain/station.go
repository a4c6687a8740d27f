package domain

import (
	"fmt"
	"log/slog"
)

// Station is a named set of harmonics with its datum and position.
type Station struct {
	ID           string
	Name         string
	Latitude     *float64 // Optional; enables nodal corrections.
	Longitude    *float64
	DatumOffsetM float64
	Constituents Constituents
}

// Predictor builds a predictor for the station. Nodal corrections are only
// applied when useLatitude is set and the station has a latitude.
func (s Station) Predictor(useLatitude bool, logger *slog.Logger) (*Predictor, error) {
	opts := []PredictorOption{WithDatumOffset(s.DatumOffsetM)}
	if useLatitude {
		opts = append(opts, withOptionalLatitude(s.Latitude))
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger.With("station", s.ID)))
	}
	p, err := NewPredictor(s.Constituents, opts...)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", s.ID, err)
	}
	return p, nil
}
