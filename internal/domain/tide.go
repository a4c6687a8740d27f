package domain

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sort"
	"time"
)

// ErrMalformedInput is returned for negative or non-finite amplitudes and
// non-finite phases in caller-supplied constituents.
var ErrMalformedInput = errors.New("malformed constituent input")

// Harmonic is the fitted amplitude and phase of one constituent at a location.
type Harmonic struct {
	AmplitudeM float64 // Amplitude in meters.
	PhaseRad   float64 // Phase in radians, same convention as V.
}

// Constituents maps constituent names to their fitted harmonics.
type Constituents map[string]Harmonic

// Validate rejects negative or non-finite amplitudes and non-finite phases
// on constituents the built-in registry knows. Unknown names contribute
// nothing to a prediction and are not checked.
func (c Constituents) Validate() error {
	return c.validate(registry)
}

func (c Constituents) validate(r *Registry) error {
	for _, name := range c.Names() {
		if !r.known(name) {
			continue
		}
		h := c[name]
		if math.IsNaN(h.AmplitudeM) || math.IsInf(h.AmplitudeM, 0) || h.AmplitudeM < 0 {
			return fmt.Errorf("%w: constituent %s has amplitude %v", ErrMalformedInput, name, h.AmplitudeM)
		}
		if math.IsNaN(h.PhaseRad) || math.IsInf(h.PhaseRad, 0) {
			return fmt.Errorf("%w: constituent %s has phase %v", ErrMalformedInput, name, h.PhaseRad)
		}
	}
	return nil
}

// Names returns the constituent names in sorted order.
func (c Constituents) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TideLevel represents a single tide height prediction at a specific time.
type TideLevel struct {
	Time    time.Time
	HeightM float64
}

// ExtremeKind distinguishes high and low water.
type ExtremeKind int

const (
	// HighTide is a local maximum of the height series.
	HighTide ExtremeKind = iota
	// LowTide is a local minimum of the height series.
	LowTide
)

func (k ExtremeKind) String() string {
	switch k {
	case HighTide:
		return "high"
	case LowTide:
		return "low"
	default:
		return "invalid"
	}
}

// Extreme is a high or low water event.
type Extreme struct {
	Time    time.Time
	HeightM float64
	Kind    ExtremeKind
}

// Extrema represents high and low tide events.
type Extrema struct {
	Highs []TideLevel
	Lows  []TideLevel
}

// Trend classifies the short-term direction of the tide.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// Defaults for the derived products.
const (
	DefaultSeriesStep     = 60 * time.Minute
	DefaultExtremeSample  = 6 * time.Minute
	DefaultTrendLookahead = 30 * time.Minute
	DefaultTrendDeadbandM = 0.02
	DefaultExtremeHorizon = 24 * time.Hour
)

// TidePrediction is the snapshot consumed by a live display.
type TidePrediction struct {
	Time        time.Time
	HeightM     float64
	Trend       Trend
	NextExtreme *Extreme
}

// CalculateTideHeight computes the tide height at t:
//
//	h(t) = datum + Σ f_k * A_k * cos(V_k + u_k - φ_k)
//
// where V_k is the astronomical argument, f_k and u_k the nodal corrections
// (identity when lat is nil), and A_k, φ_k the station harmonics.
// Constituents the registry does not know contribute nothing.
func CalculateTideHeight(cons Constituents, t time.Time, lat *float64, datumOffsetM float64) (float64, error) {
	p, err := NewPredictor(cons, WithDatumOffset(datumOffsetM), withOptionalLatitude(lat))
	if err != nil {
		return 0, err
	}
	return p.Height(t), nil
}

// sumHarmonics folds the per-constituent contributions into a height.
func sumHarmonics(harmonics []Harmonic, state AstroState, datumOffsetM float64) float64 {
	height := datumOffsetM
	for i, h := range harmonics {
		if state.F[i] == 0 {
			continue
		}
		height += state.F[i] * h.AmplitudeM * math.Cos(state.V[i]+state.U[i]-h.PhaseRad)
	}
	return height
}

// FindExtrema identifies high and low tides from a time series.
// A sample is an extremum only when strictly above (or below) both
// neighbours, so plateaus are skipped.
func FindExtrema(predictions []TideLevel) Extrema {
	highs := make([]TideLevel, 0)
	lows := make([]TideLevel, 0)

	for i := 1; i < len(predictions)-1; i++ {
		switch classify(predictions[i-1].HeightM, predictions[i].HeightM, predictions[i+1].HeightM) {
		case extremeHigh:
			highs = append(highs, predictions[i])
		case extremeLow:
			lows = append(lows, predictions[i])
		}
	}

	return Extrema{Highs: highs, Lows: lows}
}

type tripleShape int

const (
	extremeNone tripleShape = iota
	extremeHigh
	extremeLow
)

func classify(prev, curr, next float64) tripleShape {
	switch {
	case curr > prev && curr > next:
		return extremeHigh
	case curr < prev && curr < next:
		return extremeLow
	default:
		return extremeNone
	}
}

// RefineExtremum performs parabolic interpolation to get a more accurate extremum.
// Uses three points around the discrete extremum to fit a parabola.
// Returns the interpolated time and height.
func RefineExtremum(before, peak, after TideLevel) (time.Time, float64) {
	dt1 := peak.Time.Sub(before.Time).Hours()
	dt2 := after.Time.Sub(peak.Time).Hours()

	// Non-uniform spacing: keep the discrete peak.
	if math.Abs(dt1-dt2) > 1e-6 || dt1 <= 0 {
		return peak.Time, peak.HeightM
	}

	h0, h1, h2 := before.HeightM, peak.HeightM, after.HeightM
	a := (h2 - 2*h1 + h0) / (2 * dt1 * dt1)
	b := (h2 - h0) / (2 * dt1)
	if math.Abs(a) < 1e-10 {
		return peak.Time, peak.HeightM
	}

	dtVertex := -b / (2 * a)
	if math.Abs(dtVertex) > dt1 {
		return peak.Time, peak.HeightM
	}

	refinedTime := peak.Time.Add(time.Duration(dtVertex * float64(time.Hour)))
	refinedHeight := h1 + b*dtVertex + a*dtVertex*dtVertex
	return refinedTime, refinedHeight
}

// RefineExtrema applies parabolic interpolation to all extrema.
func RefineExtrema(predictions []TideLevel, extrema Extrema) Extrema {
	if len(predictions) < 3 {
		return extrema
	}

	index := make(map[time.Time]int, len(predictions))
	for i, p := range predictions {
		index[p.Time] = i
	}

	refine := func(levels []TideLevel) []TideLevel {
		out := make([]TideLevel, 0, len(levels))
		for _, l := range levels {
			idx, ok := index[l.Time]
			if !ok || idx < 1 || idx >= len(predictions)-1 {
				out = append(out, l)
				continue
			}
			t, h := RefineExtremum(predictions[idx-1], predictions[idx], predictions[idx+1])
			out = append(out, TideLevel{Time: t, HeightM: h})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
		return out
	}

	return Extrema{Highs: refine(extrema.Highs), Lows: refine(extrema.Lows)}
}

// classifyTrend labels the change from now to later against a deadband.
func classifyTrend(now, later, deadbandM float64) Trend {
	diff := later - now
	if math.Abs(diff) < deadbandM {
		return TrendStable
	}
	if diff > 0 {
		return TrendRising
	}
	return TrendFalling
}

// seriesOf yields (t, height(t)) from start to start+duration inclusive.
func seriesOf(height func(time.Time) float64, start time.Time, duration, step time.Duration) iter.Seq2[time.Time, float64] {
	if step <= 0 {
		step = DefaultSeriesStep
	}
	end := start.Add(duration)
	return func(yield func(time.Time, float64) bool) {
		for t := start; !t.After(end); t = t.Add(step) {
			if !yield(t, height(t)) {
				return
			}
		}
	}
}
