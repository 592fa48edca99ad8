// Package openmeteo implements the atmospheric and marine forecast providers
// against the public Open-Meteo APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/provider/resilience"
	"github.com/denizrota/denizrota/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultForecastURL is the Open-Meteo forecast endpoint.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultMarineURL is the Open-Meteo marine endpoint.
	DefaultMarineURL = "https://marine-api.open-meteo.com/v1/marine"

	// DefaultForecastDays covers the 72 hour planning horizon.
	DefaultForecastDays = 3

	timeLayout = "2006-01-02T15:04"
)

var (
	atmosphericFields = []string{"wind_speed_10m", "wind_direction_10m", "wind_gusts_10m", "temperature_2m"}
	marineFields      = []string{"wave_height", "wave_direction", "wave_period", "swell_wave_height", "wind_wave_height"}
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// ForecastURL is the atmospheric endpoint (optional).
	ForecastURL string

	// MarineURL is the marine endpoint (optional).
	MarineURL string

	// ForecastDays is the series length in days (default: 3).
	ForecastDays int

	// ForecastHTTPClient and MarineHTTPClient are the HTTP clients to use
	// (optional). Each endpoint gets its own breaker by default.
	ForecastHTTPClient *resilience.Client
	MarineHTTPClient   *resilience.Client

	// Registry receives the default clients for health reporting (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client.
type Client struct {
	forecastURL  string
	marineURL    string
	forecastDays int
	forecastHTTP *resilience.Client
	marineHTTP   *resilience.Client
	logger       zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}

	marineURL := cfg.MarineURL
	if marineURL == "" {
		marineURL = DefaultMarineURL
	}

	days := cfg.ForecastDays
	if days == 0 {
		days = DefaultForecastDays
	}

	return &Client{
		forecastURL:  forecastURL,
		marineURL:    marineURL,
		forecastDays: days,
		forecastHTTP: defaultHTTP(cfg.ForecastHTTPClient, resilience.LegForecast, cfg),
		marineHTTP:   defaultHTTP(cfg.MarineHTTPClient, resilience.LegMarine, cfg),
		logger:       cfg.Logger,
	}
}

func defaultHTTP(c *resilience.Client, leg resilience.Leg, cfg ClientConfig) *resilience.Client {
	if c != nil {
		return c
	}
	hc := resilience.DefaultClientConfig(ProviderName+"-"+string(leg), leg)
	hc.RetryClientErrors = true
	hc.Registry = cfg.Registry
	hc.Logger = cfg.Logger
	return resilience.NewClient(hc)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchAtmospheric fetches the hourly wind and temperature series.
func (c *Client) FetchAtmospheric(ctx context.Context, at geo.Coordinate) (*weather.HourlySeries, error) {
	var resp forecastResponse
	if err := c.get(ctx, c.forecastHTTP, c.forecastURL, at, atmosphericFields, &resp); err != nil {
		return nil, err
	}

	times, err := parseTimes(resp.Hourly.Time)
	if err != nil {
		return nil, c.decodingError(c.forecastHTTP, err)
	}
	if err := checkLengths(len(times), map[string]int{
		"wind_speed_10m":     len(resp.Hourly.WindSpeed),
		"wind_direction_10m": len(resp.Hourly.WindDirection),
		"wind_gusts_10m":     len(resp.Hourly.WindGusts),
		"temperature_2m":     len(resp.Hourly.Temperature),
	}); err != nil {
		return nil, c.decodingError(c.forecastHTTP, err)
	}

	return &weather.HourlySeries{
		Coordinate:    at,
		Times:         times,
		WindSpeed:     resp.Hourly.WindSpeed,
		WindDirection: resp.Hourly.WindDirection,
		WindGusts:     resp.Hourly.WindGusts,
		Temperature:   resp.Hourly.Temperature,
		FetchedAt:     time.Now(),
	}, nil
}

// FetchMarine fetches the hourly wave series. Swell and wind-wave arrays may
// be missing for some grid cells.
func (c *Client) FetchMarine(ctx context.Context, at geo.Coordinate) (*weather.MarineSeries, error) {
	var resp marineResponse
	if err := c.get(ctx, c.marineHTTP, c.marineURL, at, marineFields, &resp); err != nil {
		return nil, err
	}

	times, err := parseTimes(resp.Hourly.Time)
	if err != nil {
		return nil, c.decodingError(c.marineHTTP, err)
	}
	if err := checkLengths(len(times), map[string]int{
		"wave_height":       len(resp.Hourly.WaveHeight),
		"wave_direction":    len(resp.Hourly.WaveDirection),
		"wave_period":       len(resp.Hourly.WavePeriod),
		"swell_wave_height": len(resp.Hourly.SwellWaveHeight),
		"wind_wave_height":  len(resp.Hourly.WindWaveHeight),
	}); err != nil {
		return nil, c.decodingError(c.marineHTTP, err)
	}

	return &weather.MarineSeries{
		Coordinate:      at,
		Times:           times,
		WaveHeight:      resp.Hourly.WaveHeight,
		WaveDirection:   resp.Hourly.WaveDirection,
		WavePeriod:      resp.Hourly.WavePeriod,
		SwellWaveHeight: resp.Hourly.SwellWaveHeight,
		WindWaveHeight:  resp.Hourly.WindWaveHeight,
		FetchedAt:       time.Now(),
	}, nil
}

func (c *Client) get(ctx context.Context, hc *resilience.Client, base string, at geo.Coordinate, fields []string, out any) error {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(at.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(at.Lon, 'f', 4, 64))
	q.Set("hourly", strings.Join(fields, ","))
	q.Set("forecast_days", strconv.Itoa(c.forecastDays))
	q.Set("timezone", "GMT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		kind := weather.KindNetwork
		if errors.Is(err, resilience.ErrCircuitOpen) {
			kind = weather.KindUpstream
		}
		return &weather.ProviderError{Provider: ProviderName, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr) //nolint:errcheck // reason is optional
		return &weather.ProviderError{
			Provider:   ProviderName,
			Kind:       weather.KindUpstream,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, apiErr.Reason),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.decodingError(hc, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *Client) decodingError(hc *resilience.Client, err error) error {
	hc.ReportDecodingFailure(err)
	c.logger.Warn().Err(err).Str("provider", ProviderName).Str("leg", string(hc.Leg())).Msg("malformed forecast payload")
	return &weather.ProviderError{Provider: ProviderName, Kind: weather.KindDecoding, Err: err}
}

func parseTimes(raw []string) ([]time.Time, error) {
	if len(raw) == 0 {
		return nil, errors.New("hourly time series is empty")
	}
	times := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := time.ParseInLocation(timeLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing time %q: %w", s, err)
		}
		times[i] = t
	}
	return times, nil
}

// checkLengths requires every present array to match the time axis. Absent
// arrays (length 0) are allowed.
func checkLengths(n int, lengths map[string]int) error {
	for field, l := range lengths {
		if l != 0 && l != n {
			return fmt.Errorf("field %s has %d values for %d hours", field, l, n)
		}
	}
	return nil
}

// Open-Meteo API response structures.

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time          []string   `json:"time"`
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindDirection []*float64 `json:"wind_direction_10m"`
		WindGusts     []*float64 `json:"wind_gusts_10m"`
		Temperature   []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

type marineResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Hourly    struct {
		Time            []string   `json:"time"`
		WaveHeight      []*float64 `json:"wave_height"`
		WaveDirection   []*float64 `json:"wave_direction"`
		WavePeriod      []*float64 `json:"wave_period"`
		SwellWaveHeight []*float64 `json:"swell_wave_height"`
		WindWaveHeight  []*float64 `json:"wind_wave_height"`
	} `json:"hourly"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}
