package trip

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/denizrota/denizrota/internal/tracker"
)

// Service records and lists trips.
type Service struct {
	repo Repository
}

// NewService creates a new trip service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores a finished tracker trip under a new ID.
func (s *Service) Record(ctx context.Context, summary *tracker.Summary) (*Trip, error) {
	t := FromSummary("trp_"+uuid.New().String()[:22], summary)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store trip: %w", err)
	}
	return t, nil
}

// Get retrieves a trip by ID.
func (s *Service) Get(ctx context.Context, id string) (*Trip, error) {
	return s.repo.Get(ctx, id)
}

// List returns the most recent trips.
func (s *Service) List(ctx context.Context, limit int) ([]*Trip, error) {
	return s.repo.List(ctx, ListOptions{Limit: limit})
}

// Delete removes a trip.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
