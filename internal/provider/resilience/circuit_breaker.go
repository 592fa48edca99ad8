// Package resilience wraps forecast provider HTTP calls with retries, one
// circuit breaker per endpoint and a registry that reports which forecast
// legs are live and which are running on cached data.
package resilience

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker defaults for an Open-Meteo endpoint.
const (
	DefaultOpenFor         = 60 * time.Second
	DefaultTripAfter       = 3
	DefaultTripRatio       = 0.5
	DefaultTripMinRequests = 5
	DefaultResetEvery      = 10 * time.Minute
)

// BreakerConfig tunes the breaker in front of one forecast endpoint.
// Zero fields take the defaults above.
type BreakerConfig struct {
	// OpenFor is how long the breaker stays open before a trial request.
	OpenFor time.Duration

	// HalfOpenRequests is the number of trial requests allowed while half-open.
	// Default: 1
	HalfOpenRequests uint32

	// TripAfter opens the breaker after this many consecutive failures.
	TripAfter uint32

	// TripRatio opens the breaker once TripMinRequests requests have been
	// counted and at least this share of them failed.
	TripRatio       float64
	TripMinRequests uint32

	// ResetEvery clears the counts while closed, so a grid burst is not
	// judged against failures from the previous hour.
	ResetEvery time.Duration
}

// DefaultBreakerConfig returns the breaker settings used for forecast endpoints.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		OpenFor:          DefaultOpenFor,
		HalfOpenRequests: 1,
		TripAfter:        DefaultTripAfter,
		TripRatio:        DefaultTripRatio,
		TripMinRequests:  DefaultTripMinRequests,
		ResetEvery:       DefaultResetEvery,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	d := DefaultBreakerConfig()
	if c.OpenFor == 0 {
		c.OpenFor = d.OpenFor
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = d.HalfOpenRequests
	}
	if c.TripAfter == 0 {
		c.TripAfter = d.TripAfter
	}
	if c.TripRatio == 0 {
		c.TripRatio = d.TripRatio
	}
	if c.TripMinRequests == 0 {
		c.TripMinRequests = d.TripMinRequests
	}
	if c.ResetEvery == 0 {
		c.ResetEvery = d.ResetEvery
	}
	return c
}

// ShouldTrip reports whether counts open the breaker.
func (c BreakerConfig) ShouldTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= c.TripAfter {
		return true
	}
	if counts.Requests < c.TripMinRequests || counts.Requests == 0 {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.TripRatio
}

func newBreaker(name string, cfg BreakerConfig, onChange func(string, gobreaker.State, gobreaker.State)) *gobreaker.CircuitBreaker[*http.Response] {
	cfg = cfg.withDefaults()
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{ //nolint:bodyclose // type param, not response
		Name:          name,
		MaxRequests:   cfg.HalfOpenRequests,
		Interval:      cfg.ResetEvery,
		Timeout:       cfg.OpenFor,
		ReadyToTrip:   cfg.ShouldTrip,
		OnStateChange: onChange,
	})
}
