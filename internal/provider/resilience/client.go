package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when all retry attempts have been exhausted.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// Retry defaults: three attempts in total, waiting 1s then 2s, never more than 4s.
const (
	DefaultMaxRetries      = 2
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 4 * time.Second
	DefaultTimeout         = 10 * time.Second
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming and health reporting.
	Name string

	// Leg is the forecast leg the endpoint serves.
	// Default: LegForecast
	Leg Leg

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Default: 2
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval; later intervals double.
	// Default: 1 second
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval.
	// Default: 4 seconds
	MaxInterval time.Duration

	// RetryClientErrors also retries 4xx responses. Open-Meteo answers
	// transient overload with 429 and occasionally 400 during deploys.
	RetryClientErrors bool

	// Breaker tunes the circuit breaker. If nil, uses DefaultBreakerConfig.
	Breaker *BreakerConfig

	// Registry receives the client for health reporting. Optional.
	Registry *Registry

	// Logger receives breaker transitions.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the retry policy used for forecast providers.
func DefaultClientConfig(name string, leg Leg) ClientConfig {
	breaker := DefaultBreakerConfig()
	return ClientConfig{
		Name:            name,
		Leg:             leg,
		Timeout:         DefaultTimeout,
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: DefaultInitialInterval,
		MaxInterval:     DefaultMaxInterval,
		Breaker:         &breaker,
	}
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = DefaultInitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.Leg == "" {
		cfg.Leg = LegForecast
	}
	breaker := DefaultBreakerConfig()
	if cfg.Breaker != nil {
		breaker = *cfg.Breaker
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
	}
	c.circuitBreaker = newBreaker(cfg.Name, breaker, c.breakerChanged)

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, cfg.Leg, c)
	}

	return c
}

// Leg returns the forecast leg the client serves.
func (c *Client) Leg() Leg {
	return c.config.Leg
}

func (c *Client) breakerChanged(name string, from, to gobreaker.State) {
	if c.config.Registry != nil {
		c.config.Registry.breakerChanged(name, to)
	}

	ev := c.config.Logger.Info()
	msg := "forecast endpoint breaker changed"
	switch to {
	case gobreaker.StateOpen:
		ev = c.config.Logger.Warn()
		msg = "forecast endpoint unavailable, serving from cache"
	case gobreaker.StateClosed:
		msg = "forecast endpoint recovered"
	}
	ev.Str("provider", name).
		Str("leg", string(c.config.Leg)).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg(msg)
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes an HTTP request with circuit breaker protection and retry logic.
// Returns immediately with ErrCircuitOpen if the circuit breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
//
// Transport errors and 5xx responses are retried with exponential backoff;
// 4xx responses are retried only when RetryClientErrors is set. When retries
// are exhausted on a bad status the last response is returned without error
// so the caller can inspect it.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	backoffWithContext := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response
	keep := func(r *http.Response) {
		if lastResp != nil && lastResp != r {
			drain(lastResp)
		}
		lastResp = r
	}

	operation := func() error {
		// 5xx responses are errors so they count against the breaker.
		resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller is responsible for closing
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				keep(resp)
			}
			return err
		}

		keep(resp)

		if c.config.RetryClientErrors && resp.StatusCode >= 400 {
			return &ClientError{StatusCode: resp.StatusCode}
		}
		return nil
	}

	err := backoff.Retry(operation, backoffWithContext)
	if err != nil {
		c.recordFailure(err)
		if lastResp != nil && ctx.Err() == nil {
			return lastResp, nil
		}
		if lastResp != nil {
			drain(lastResp)
		}
		if ctx.Err() != nil || errors.Is(err, ErrCircuitOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	if lastResp.StatusCode >= 400 {
		c.recordFailure(&ClientError{StatusCode: lastResp.StatusCode})
	} else {
		c.recordSuccess()
	}
	return lastResp, nil
}

func (c *Client) recordSuccess() {
	if c.config.Registry != nil {
		c.config.Registry.RecordSuccess(c.config.Name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.config.Registry != nil {
		c.config.Registry.RecordFailure(c.config.Name, ClassifyFailure(err), err)
	}
}

// ReportDecodingFailure records a response that arrived but could not be
// used. It does not count against the breaker.
func (c *Client) ReportDecodingFailure(err error) {
	if c.config.Registry != nil {
		c.config.Registry.RecordFailure(c.config.Name, FailureDecoding, err)
	}
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, r.Body) //nolint:errcheck // best effort
	_ = r.Body.Close()
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// ClientError represents a retried HTTP 4xx response.
type ClientError struct {
	StatusCode int
}

func (e *ClientError) Error() string {
	return "client error: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}
