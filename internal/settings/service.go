package settings

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/denizrota/denizrota/internal/anchor"
)

// Service reads and updates settings. It also serves as the anchor
// detector's radius store.
type Service struct {
	repo Repository
	now  func() time.Time

	// mu serialises read-modify-write cycles.
	mu sync.Mutex
}

// NewService creates a new settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns the stored settings, or the defaults when none exist.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	return stored, nil
}

// Update applies a partial change after validating the result.
func (s *Service) Update(ctx context.Context, u Update) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if u.AverageSpeedKmh != nil {
		current.AverageSpeedKmh = *u.AverageSpeedKmh
	}
	if u.FuelRateLph != nil {
		current.FuelRateLph = *u.FuelRateLph
	}
	if u.FuelPrice != nil {
		current.FuelPrice = *u.FuelPrice
	}
	if u.AnchorRadiusM != nil {
		current.AnchorRadiusM = *u.AnchorRadiusM
	}

	if err := current.Validate(); err != nil {
		return nil, err
	}

	current.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// LastAnchorRadius returns the remembered anchor radius.
func (s *Service) LastAnchorRadius(ctx context.Context) (float64, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return current.AnchorRadiusM, nil
}

// SaveAnchorRadius remembers r, clamped to the legal radius range.
func (s *Service) SaveAnchorRadius(ctx context.Context, r float64) error {
	r = anchor.ClampRadius(r)
	_, err := s.Update(ctx, Update{AnchorRadiusM: &r})
	return err
}

// Ensure Service can back the anchor detector.
var _ anchor.RadiusStore = (*Service)(nil)
