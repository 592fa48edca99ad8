package trip

import "context"

// ListOptions contains options for listing trips.
type ListOptions struct {
	Limit int
}

// Repository defines the interface for trip persistence.
type Repository interface {
	// Get retrieves a trip by ID.
	Get(ctx context.Context, id string) (*Trip, error)

	// List returns trips, most recent first.
	List(ctx context.Context, opts ListOptions) ([]*Trip, error)

	// Create stores a finished trip.
	Create(ctx context.Context, trip *Trip) error

	// Delete deletes a trip by ID.
	Delete(ctx context.Context, id string) error
}

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 50
