package settings

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	settings *Settings
}

// NewInMemoryRepository creates a new in-memory settings repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Get returns the stored settings.
func (r *InMemoryRepository) Get(_ context.Context) (*Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settings == nil {
		return nil, ErrSettingsNotFound
	}
	cpy := *r.settings
	return &cpy, nil
}

// Save replaces the stored settings.
func (r *InMemoryRepository) Save(_ context.Context, s *Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *s
	r.settings = &cpy
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
