package route

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/denizrota/denizrota/internal/api/models"
	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/pkg/polyline"
)

// WaypointInput is a waypoint in a create request.
type WaypointInput struct {
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

// CreateInput describes a new route. Either Waypoints or Polyline is set.
type CreateInput struct {
	Name      string          `json:"name"`
	Waypoints []WaypointInput `json:"waypoints,omitempty"`

	// Polyline is an encoded path. It is resampled to SpacingKm
	// (default DefaultSpacing) to produce waypoints.
	Polyline  string  `json:"polyline,omitempty"`
	SpacingKm float64 `json:"spacingKm,omitempty"`
}

// Service provides route operations.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new route service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and stores a route.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Route, error) {
	inputs, fieldErrors := s.resolveWaypoints(in)

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fieldErrors = append(fieldErrors, models.FieldError{Field: "name", Message: "is required"})
	case len([]rune(name)) > MaxNameLength:
		fieldErrors = append(fieldErrors, models.FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)})
	}

	now := s.now()
	rt := &Route{
		ID:        "rte_" + uuid.New().String()[:22],
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, wp := range inputs {
		wpName := strings.TrimSpace(wp.Name)
		if wpName == "" {
			wpName = fmt.Sprintf("WP%d", i+1)
		}
		rt.Waypoints = append(rt.Waypoints, Waypoint{
			ID:         fmt.Sprintf("wp_%s", uuid.New().String()[:13]),
			Name:       wpName,
			Coordinate: wp.Coordinate,
			Order:      i,
		})
	}
	fieldErrors = append(fieldErrors, validateWaypoints(rt.Waypoints)...)

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *Service) resolveWaypoints(in CreateInput) ([]WaypointInput, []models.FieldError) {
	switch {
	case in.Polyline != "" && len(in.Waypoints) > 0:
		return nil, []models.FieldError{{Field: "polyline", Message: "cannot be combined with waypoints"}}

	case in.Polyline != "":
		path, err := polyline.Decode(in.Polyline)
		if err != nil {
			return nil, []models.FieldError{{Field: "polyline", Message: "is not a valid encoded polyline"}}
		}
		if len(path) < 2 {
			return nil, []models.FieldError{{Field: "polyline", Message: "must contain at least 2 points"}}
		}
		spacing := in.SpacingKm
		if spacing <= 0 {
			spacing = DefaultSpacing
		}
		sampled := polyline.Sample(path, spacing*1000)
		out := make([]WaypointInput, len(sampled))
		for i, c := range sampled {
			out[i] = WaypointInput{Coordinate: c}
		}
		return out, nil

	case len(in.Waypoints) < 2:
		return in.Waypoints, []models.FieldError{{Field: "waypoints", Message: "must contain at least 2 entries"}}

	default:
		return in.Waypoints, nil
	}
}

// Get retrieves a route by ID.
func (s *Service) Get(ctx context.Context, id string) (*Route, error) {
	return s.repo.Get(ctx, id)
}

// List returns saved routes.
func (s *Service) List(ctx context.Context, limit int) ([]*Route, error) {
	return s.repo.List(ctx, ListOptions{Limit: limit})
}

// Rename changes a route's name.
func (s *Service) Rename(ctx context.Context, id, name string) (*Route, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxNameLength {
		return nil, &ValidationError{Errors: []models.FieldError{{Field: "name", Message: "must be 1 to 80 characters"}}}
	}

	rt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rt.Name = name
	rt.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}

// Delete removes a route.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
