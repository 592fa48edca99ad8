package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/risk"
)

// Weather errors.
var (
	ErrNetwork            = errors.New("network error")
	ErrUpstream           = errors.New("upstream error")
	ErrDecoding           = errors.New("decoding error")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrGridTooLarge       = errors.New("grid too large")
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "NETWORK"
	KindUpstream ErrorKind = "UPSTREAM"
	KindDecoding ErrorKind = "DECODING"
)

// ProviderError wraps a provider failure with its kind. It matches the
// corresponding sentinel (ErrNetwork, ErrUpstream, ErrDecoding) with errors.Is.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Provider, kindName(e.Kind), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Provider, kindName(e.Kind), e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *ProviderError) sentinel() error {
	switch e.Kind {
	case KindUpstream:
		return ErrUpstream
	case KindDecoding:
		return ErrDecoding
	default:
		return ErrNetwork
	}
}

func kindName(k ErrorKind) string {
	switch k {
	case KindUpstream:
		return "upstream"
	case KindDecoding:
		return "decoding"
	default:
		return "network"
	}
}

// AtmosphericProvider returns an hourly wind and temperature series.
type AtmosphericProvider interface {
	Name() string
	FetchAtmospheric(ctx context.Context, c geo.Coordinate) (*HourlySeries, error)
}

// MarineProvider returns an hourly wave series.
type MarineProvider interface {
	Name() string
	FetchMarine(ctx context.Context, c geo.Coordinate) (*MarineSeries, error)
}

// FetchModel computes open-water fetch along a bearing.
type FetchModel interface {
	CalculateFetch(point geo.Coordinate, bearingDeg float64) float64
}

// HourlySeries is a raw atmospheric forecast. Value slices run parallel to
// Times; a nil element means the provider had no value for that hour.
type HourlySeries struct {
	Coordinate    geo.Coordinate
	Times         []time.Time
	WindSpeed     []*float64 // km/h
	WindDirection []*float64 // degrees, meteorological "from"
	WindGusts     []*float64 // km/h
	Temperature   []*float64 // Celsius
	FetchedAt     time.Time
}

// MarineSeries is a raw wave forecast. Swell and wind-wave components are
// optional; when both are present they replace the combined height.
type MarineSeries struct {
	Coordinate      geo.Coordinate
	Times           []time.Time
	WaveHeight      []*float64 // m, combined
	WaveDirection   []*float64 // degrees
	WavePeriod      []*float64 // s
	SwellWaveHeight []*float64 // m
	WindWaveHeight  []*float64 // m
	FetchedAt       time.Time
}

// Sample is the resolved weather at one point and hour.
type Sample struct {
	Time time.Time `json:"time"`

	// Wind data. WindSpeed is nil when the forecast has no value.
	WindSpeed     *float64 `json:"windSpeed"`     // km/h
	WindDirection float64  `json:"windDirection"` // degrees (0=N, 90=E), "from"
	WindGusts     float64  `json:"windGusts"`     // km/h

	Temperature float64 `json:"temperature"` // Celsius

	// Sea state. WaveHeight is fetch adjusted.
	WaveHeight    float64 `json:"waveHeight"`    // m
	WaveDirection float64 `json:"waveDirection"` // degrees
	WavePeriod    float64 `json:"wavePeriod"`    // s

	// FetchDistanceKm is 0 when the fetch was not computed.
	FetchDistanceKm float64 `json:"fetchDistanceKm"`

	// Marine is false when wave data was unavailable and defaulted to zero.
	Marine   bool `json:"marine"`
	WindOnly bool `json:"windOnly,omitempty"`
}

// Risk classifies the sample.
func (s *Sample) Risk() risk.Level {
	return risk.ClassifyRisk(s.WindSpeed, s.WaveHeight)
}

// WindKmh returns the wind speed, or 0 when unknown.
func (s *Sample) WindKmh() float64 {
	if s.WindSpeed == nil {
		return 0
	}
	return *s.WindSpeed
}

func (s *Sample) clone() *Sample {
	c := *s
	if s.WindSpeed != nil {
		w := *s.WindSpeed
		c.WindSpeed = &w
	}
	return &c
}

// NearestIndex returns the index of the entry in times whose
// (day-of-year, hour) is closest to target. Ties keep the first occurrence.
// It returns -1 for an empty series.
func NearestIndex(times []time.Time, target time.Time) int {
	if len(times) == 0 {
		return -1
	}

	want := hourOfYear(target)
	best, bestDiff := 0, math.MaxInt
	for i, t := range times {
		diff := hourOfYear(t) - want
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func hourOfYear(t time.Time) int {
	t = t.UTC()
	return t.YearDay()*24 + t.Hour()
}

func valueAt(values []*float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) || values[i] == nil {
		return 0, false
	}
	v := *values[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// CombineWaves recombines swell and wind-wave heights by energy superposition.
func CombineWaves(swell, windWave float64) float64 {
	return math.Sqrt(swell*swell + windWave*windWave)
}
