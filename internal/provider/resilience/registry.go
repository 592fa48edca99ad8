package resilience

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Leg is the half of a forecast an endpoint serves.
type Leg string

// Forecast legs.
const (
	LegForecast Leg = "forecast"
	LegMarine   Leg = "marine"
)

// FailureKind classifies the last failure of an endpoint. NETWORK, UPSTREAM
// and DECODING carry the same meaning as the weather package's error kinds.
type FailureKind string

// Failure kinds.
const (
	FailureNetwork     FailureKind = "NETWORK"
	FailureUpstream    FailureKind = "UPSTREAM"
	FailureDecoding    FailureKind = "DECODING"
	FailureCircuitOpen FailureKind = "CIRCUIT_OPEN"
)

// ClassifyFailure maps an error returned by Client to a FailureKind.
func ClassifyFailure(err error) FailureKind {
	var serverErr *ServerError
	var clientErr *ClientError
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return FailureCircuitOpen
	case errors.As(err, &serverErr), errors.As(err, &clientErr):
		return FailureUpstream
	default:
		return FailureNetwork
	}
}

// Mode says how a leg is being served.
type Mode string

// Serving modes, best first.
const (
	ModeLive       Mode = "live"
	ModeRecovering Mode = "recovering"
	ModeCacheOnly  Mode = "cache-only"
)

func modeFor(s gobreaker.State) Mode {
	switch s {
	case gobreaker.StateOpen:
		return ModeCacheOnly
	case gobreaker.StateHalfOpen:
		return ModeRecovering
	default:
		return ModeLive
	}
}

func (m Mode) rank() int {
	switch m {
	case ModeCacheOnly:
		return 2
	case ModeRecovering:
		return 1
	default:
		return 0
	}
}

// ProviderHealth is a snapshot of one endpoint.
type ProviderHealth struct {
	Name          string
	Leg           Leg
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
	LastErrorKind FailureKind

	// OpenedAt is when the breaker last left the closed state. It stays set
	// through half-open trials and clears once the breaker closes.
	OpenedAt *time.Time
}

// Mode returns how the endpoint's leg is served given its breaker.
func (h ProviderHealth) Mode() Mode {
	return modeFor(h.CircuitState)
}

// ServingFromCache reports whether requests bypass the endpoint entirely.
func (h ProviderHealth) ServingFromCache() bool {
	return h.Mode() == ModeCacheOnly
}

// LegHealth aggregates the endpoints serving one leg.
type LegHealth struct {
	Leg           Leg         `json:"leg"`
	Mode          Mode        `json:"mode"`
	Providers     []string    `json:"providers"`
	LastErrorKind FailureKind `json:"lastErrorKind,omitempty"`
	LastFailureAt *time.Time  `json:"lastFailureAt,omitempty"`
	OpenedAt      *time.Time  `json:"openedAt,omitempty"`
}

// ServingFromCache reports whether the leg is answered from cache only.
func (l LegHealth) ServingFromCache() bool {
	return l.Mode == ModeCacheOnly
}

// Registry tracks forecast endpoints and their health.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*endpoint
	now       func() time.Time
}

type endpoint struct {
	leg           Leg
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
	lastErrorKind FailureKind
	openedAt      *time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]*endpoint),
		now:       time.Now,
	}
}

// Register adds an endpoint client under name.
func (r *Registry) Register(name string, leg Leg, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = &endpoint{leg: leg, client: client}
}

// RecordSuccess records a successful call.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastSuccessAt = &now
	}
}

// RecordFailure records a failed call and its kind.
func (r *Registry) RecordFailure(name string, kind FailureKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[name]; ok {
		now := r.now()
		p.lastFailureAt = &now
		p.lastErrorKind = kind
		if err != nil {
			p.lastError = err.Error()
		}
	}
}

// breakerChanged runs from the breaker's state hook, under the breaker's own
// lock, so it must not call back into the client.
func (r *Registry) breakerChanged(name string, to gobreaker.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[name]
	if !ok {
		return
	}
	switch {
	case to == gobreaker.StateClosed:
		p.openedAt = nil
	case p.openedAt == nil:
		now := r.now()
		p.openedAt = &now
	}
}

// Health returns a snapshot of one endpoint, or nil if it is unknown.
func (r *Registry) Health(name string) *ProviderHealth {
	for _, h := range r.Providers() {
		if h.Name == name {
			return &h
		}
	}
	return nil
}

// Providers returns every endpoint sorted by name.
func (r *Registry) Providers() []ProviderHealth {
	r.mu.RLock()
	out := make([]ProviderHealth, 0, len(r.providers))
	clients := make([]*Client, 0, len(r.providers))
	for name, p := range r.providers {
		out = append(out, ProviderHealth{
			Name:          name,
			Leg:           p.leg,
			LastSuccessAt: p.lastSuccessAt,
			LastFailureAt: p.lastFailureAt,
			LastError:     p.lastError,
			LastErrorKind: p.lastErrorKind,
			OpenedAt:      p.openedAt,
		})
		clients = append(clients, p.client)
	}
	r.mu.RUnlock()

	// Breaker state is read without the registry lock; reading it can fire
	// the state hook, which takes that lock.
	for i, c := range clients {
		out[i].CircuitState = c.CircuitBreakerState()
		out[i].Counts = c.CircuitBreakerCounts()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Legs groups endpoints by leg. A leg takes the worst mode of its endpoints
// and the kind of its most recent failure.
func (r *Registry) Legs() []LegHealth {
	byLeg := make(map[Leg]*LegHealth)
	for _, h := range r.Providers() {
		l, ok := byLeg[h.Leg]
		if !ok {
			l = &LegHealth{Leg: h.Leg, Mode: ModeLive}
			byLeg[h.Leg] = l
		}
		l.Providers = append(l.Providers, h.Name)
		if m := h.Mode(); m.rank() > l.Mode.rank() {
			l.Mode = m
		}
		if h.LastFailureAt != nil && (l.LastFailureAt == nil || h.LastFailureAt.After(*l.LastFailureAt)) {
			l.LastFailureAt = h.LastFailureAt
			l.LastErrorKind = h.LastErrorKind
		}
		if h.OpenedAt != nil && (l.OpenedAt == nil || h.OpenedAt.Before(*l.OpenedAt)) {
			l.OpenedAt = h.OpenedAt
		}
	}

	out := make([]LegHealth, 0, len(byLeg))
	for _, l := range byLeg {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Leg < out[j].Leg })
	return out
}
