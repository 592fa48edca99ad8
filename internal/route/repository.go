package route

import "context"

// ListOptions contains options for listing routes.
type ListOptions struct {
	Limit int
}

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 50

// Repository defines the interface for route persistence.
type Repository interface {
	// Get retrieves a route by ID.
	Get(ctx context.Context, id string) (*Route, error)

	// List returns routes, most recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*Route, error)

	// Create stores a new route.
	Create(ctx context.Context, r *Route) error

	// Update replaces an existing route.
	Update(ctx context.Context, r *Route) error

	// Delete deletes a route by ID.
	Delete(ctx context.Context, id string) error
}
