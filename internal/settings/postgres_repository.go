package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. The
// settings table holds a single row keyed by id = 1.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL settings repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get returns the stored settings.
func (r *PostgresRepository) Get(ctx context.Context) (*Settings, error) {
	query := `
		SELECT average_speed_kmh, fuel_rate_lph, fuel_price, anchor_radius_m, updated_at
		FROM settings
		WHERE id = 1
	`

	var s Settings
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.AverageSpeedKmh,
		&s.FuelRateLph,
		&s.FuelPrice,
		&s.AnchorRadiusM,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save upserts the settings row.
func (r *PostgresRepository) Save(ctx context.Context, s *Settings) error {
	query := `
		INSERT INTO settings (id, average_speed_kmh, fuel_rate_lph, fuel_price, anchor_radius_m, updated_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			average_speed_kmh = EXCLUDED.average_speed_kmh,
			fuel_rate_lph = EXCLUDED.fuel_rate_lph,
			fuel_price = EXCLUDED.fuel_price,
			anchor_radius_m = EXCLUDED.anchor_radius_m,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.AverageSpeedKmh,
		s.FuelRateLph,
		s.FuelPrice,
		s.AnchorRadiusM,
		s.UpdatedAt,
	)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
