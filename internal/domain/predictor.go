package domain

import (
	"io"
	"iter"
	"log/slog"
	"time"
)

// Predictor evaluates the tide for one set of station harmonics.
// It is immutable after construction and safe for concurrent use.
type Predictor struct {
	registry     *Registry
	names        []string
	harmonics    []Harmonic
	datumOffsetM float64
	lat          *float64
	unresolved   []string
	logger       *slog.Logger
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithLatitude enables latitude-dependent nodal corrections.
func WithLatitude(lat float64) PredictorOption {
	return func(p *Predictor) {
		p.lat = &lat
	}
}

func withOptionalLatitude(lat *float64) PredictorOption {
	return func(p *Predictor) {
		if lat != nil {
			v := *lat
			p.lat = &v
		}
	}
}

// WithDatumOffset adds a constant vertical offset in meters to every height.
func WithDatumOffset(m float64) PredictorOption {
	return func(p *Predictor) {
		p.datumOffsetM = m
	}
}

// WithLogger sets the logger used for unresolved-constituent warnings.
func WithLogger(l *slog.Logger) PredictorOption {
	return func(p *Predictor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRegistry replaces the built-in constituent table.
func WithRegistry(r *Registry) PredictorOption {
	return func(p *Predictor) {
		if r != nil {
			p.registry = r
		}
	}
}

// NewPredictor validates cons and prepares a predictor. Constituents missing
// from the registry are kept but contribute nothing; they are logged once at
// warn level and reported by Unresolved.
func NewPredictor(cons Constituents, opts ...PredictorOption) (*Predictor, error) {
	p := &Predictor{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := cons.validate(p.registry); err != nil {
		return nil, err
	}

	p.names = cons.Names()
	p.harmonics = make([]Harmonic, len(p.names))
	for i, name := range p.names {
		p.harmonics[i] = cons[name]
		if _, ok := p.registry.Resolve(name); !ok {
			p.unresolved = append(p.unresolved, name)
		}
	}

	if len(p.unresolved) > 0 {
		p.logger.Warn("constituents not resolved, contribution set to zero", "constituents", p.unresolved)
	}

	return p, nil
}

// Unresolved returns the constituent names the registry could not resolve.
func (p *Predictor) Unresolved() []string {
	out := make([]string, len(p.unresolved))
	copy(out, p.unresolved)
	return out
}

// Names returns the constituent names in evaluation order.
func (p *Predictor) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// DatumOffset returns the datum offset in meters.
func (p *Predictor) DatumOffset() float64 {
	return p.datumOffsetM
}

// Latitude returns the latitude used for nodal corrections, if any.
func (p *Predictor) Latitude() (float64, bool) {
	if p.lat == nil {
		return 0, false
	}
	return *p.lat, true
}

// Astro returns V, u and f for the predictor's constituents at t.
func (p *Predictor) Astro(t time.Time) AstroState {
	return p.registry.Astro(p.names, t, p.lat)
}

// Height returns the predicted height in meters at t.
func (p *Predictor) Height(t time.Time) float64 {
	return sumHarmonics(p.harmonics, p.Astro(t), p.datumOffsetM)
}

// Series yields heights from start to start+duration inclusive every step
// (DefaultSeriesStep when step <= 0). The sequence is lazy and can be ranged
// over repeatedly. Callers bound duration/step themselves.
func (p *Predictor) Series(start time.Time, duration, step time.Duration) iter.Seq2[time.Time, float64] {
	return seriesOf(p.Height, start, duration, step)
}

// GeneratePredictions collects the series between start and end inclusive.
func (p *Predictor) GeneratePredictions(start, end time.Time, interval time.Duration) []TideLevel {
	predictions := make([]TideLevel, 0)
	for t, h := range p.Series(start, end.Sub(start), interval) {
		predictions = append(predictions, TideLevel{Time: t, HeightM: h})
	}
	return predictions
}

// NextExtreme samples the series every sample (DefaultExtremeSample when
// sample <= 0) and returns the first strict local maximum or minimum after
// start within horizon. ok is false when none occurs.
func (p *Predictor) NextExtreme(start time.Time, horizon, sample time.Duration) (Extreme, bool) {
	if sample <= 0 {
		sample = DefaultExtremeSample
	}

	var window [3]TideLevel
	n := 0
	for t, h := range p.Series(start, horizon, sample) {
		window[0], window[1] = window[1], window[2]
		window[2] = TideLevel{Time: t, HeightM: h}
		n++
		if n < 3 {
			continue
		}
		switch classify(window[0].HeightM, window[1].HeightM, window[2].HeightM) {
		case extremeHigh:
			return Extreme{Time: window[1].Time, HeightM: window[1].HeightM, Kind: HighTide}, true
		case extremeLow:
			return Extreme{Time: window[1].Time, HeightM: window[1].HeightM, Kind: LowTide}, true
		}
	}
	return Extreme{}, false
}

// Trend compares the height at now with the height lookahead later.
// Differences smaller than deadbandM are reported as stable.
func (p *Predictor) Trend(now time.Time, lookahead time.Duration, deadbandM float64) Trend {
	if lookahead <= 0 {
		lookahead = DefaultTrendLookahead
	}
	return classifyTrend(p.Height(now), p.Height(now.Add(lookahead)), deadbandM)
}

// Predict returns the current height, trend and the next extreme within
// DefaultExtremeHorizon, using the default cadences.
func (p *Predictor) Predict(now time.Time) TidePrediction {
	pred := TidePrediction{
		Time:    now,
		HeightM: p.Height(now),
		Trend:   p.Trend(now, DefaultTrendLookahead, DefaultTrendDeadbandM),
	}
	if ext, ok := p.NextExtreme(now, DefaultExtremeHorizon, DefaultExtremeSample); ok {
		pred.NextExtreme = &ext
	}
	return pred
}
