package trip

import (
	"context"
	"slices"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*Trip
}

// NewInMemoryRepository creates a new in-memory trip repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*Trip),
	}
}

// Get retrieves a trip by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	return copyTrip(t), nil
}

// List returns trips, most recent first.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) ([]*Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trips := make([]*Trip, 0, len(r.trips))
	for _, t := range r.trips {
		trips = append(trips, copyTrip(t))
	}
	slices.SortFunc(trips, func(a, b *Trip) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(trips) > limit {
		trips = trips[:limit]
	}
	return trips, nil
}

// Create stores a finished trip.
func (r *InMemoryRepository) Create(_ context.Context, t *Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trips[t.ID] = copyTrip(t)
	return nil
}

// Delete deletes a trip by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, id)
	return nil
}

func copyTrip(t *Trip) *Trip {
	cpy := *t
	cpy.Track = slices.Clone(t.Track)
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
