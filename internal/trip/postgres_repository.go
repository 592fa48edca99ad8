package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// The track is stored as a JSONB array of coordinates.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const tripColumns = `
	id, started_at, ended_at,
	distance_km, max_speed_kmh, avg_speed_kmh,
	duration_seconds, track
`

// Get retrieves a trip by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	t, err := scanTrip(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns trips, most recent first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Trip, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY started_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

// Create stores a finished trip.
func (r *PostgresRepository) Create(ctx context.Context, t *Trip) error {
	track, err := json.Marshal(t.Track)
	if err != nil {
		return fmt.Errorf("encode track: %w", err)
	}

	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		t.ID,
		t.StartedAt,
		t.EndedAt,
		t.DistanceKm,
		t.MaxSpeedKmh,
		t.AvgSpeedKmh,
		t.Duration.Seconds(),
		track,
	)
	return err
}

// Delete deletes a trip by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	return err
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var (
		t       Trip
		seconds float64
		track   []byte
	)
	err := row.Scan(
		&t.ID,
		&t.StartedAt,
		&t.EndedAt,
		&t.DistanceKm,
		&t.MaxSpeedKmh,
		&t.AvgSpeedKmh,
		&seconds,
		&track,
	)
	if err != nil {
		return nil, err
	}

	t.Duration = time.Duration(seconds * float64(time.Second))
	if len(track) > 0 {
		if err := json.Unmarshal(track, &t.Track); err != nil {
			return nil, fmt.Errorf("decode track: %w", err)
		}
	}
	return &t, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
