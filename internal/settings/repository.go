package settings

import "context"

// Repository persists the single settings record.
type Repository interface {
	// Get returns ErrSettingsNotFound when nothing has been saved.
	Get(ctx context.Context) (*Settings, error)

	// Save inserts or replaces the record.
	Save(ctx context.Context, s *Settings) error
}
