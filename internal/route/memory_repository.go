package route

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]*Route
}

// NewInMemoryRepository creates a new in-memory route repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		routes: make(map[string]*Route),
	}
}

// Get retrieves a route by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}
	return rt.clone(), nil
}

// List returns routes, most recently updated first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]*Route, 0, len(r.routes))
	for _, rt := range r.routes {
		routes = append(routes, rt.clone())
	}
	slices.SortFunc(routes, func(a, b *Route) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(routes) > limit {
		routes = routes[:limit]
	}
	return routes, nil
}

// Create stores a new route.
func (r *InMemoryRepository) Create(_ context.Context, rt *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[rt.ID] = rt.clone()
	return nil
}

// Update replaces an existing route.
func (r *InMemoryRepository) Update(_ context.Context, rt *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[rt.ID]; !ok {
		return ErrRouteNotFound
	}
	r.routes[rt.ID] = rt.clone()
	return nil
}

// Delete deletes a route by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[id]; !ok {
		return ErrRouteNotFound
	}
	delete(r.routes, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
