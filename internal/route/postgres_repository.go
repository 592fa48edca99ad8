package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. The
// waypoint list is stored as JSONB on the route row.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a route by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Route, error) {
	query := `
		SELECT id, name, waypoints, created_at, updated_at
		FROM routes
		WHERE id = $1
	`

	rt, err := scanRoute(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return rt, nil
}

// List returns routes, most recently updated first.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Route, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, name, waypoints, created_at, updated_at
		FROM routes
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

// Create stores a new route.
func (r *PostgresRepository) Create(ctx context.Context, rt *Route) error {
	waypoints, err := json.Marshal(rt.Waypoints)
	if err != nil {
		return fmt.Errorf("encode waypoints: %w", err)
	}

	query := `
		INSERT INTO routes (id, name, waypoints, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query, rt.ID, rt.Name, waypoints, rt.CreatedAt, rt.UpdatedAt)
	return err
}

// Update replaces an existing route.
func (r *PostgresRepository) Update(ctx context.Context, rt *Route) error {
	waypoints, err := json.Marshal(rt.Waypoints)
	if err != nil {
		return fmt.Errorf("encode waypoints: %w", err)
	}

	query := `
		UPDATE routes SET
			name = $2,
			waypoints = $3,
			updated_at = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, rt.ID, rt.Name, waypoints, rt.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// Delete deletes a route by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

func scanRoute(row pgx.Row) (*Route, error) {
	var (
		rt        Route
		waypoints []byte
	)
	if err := row.Scan(&rt.ID, &rt.Name, &waypoints, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(waypoints, &rt.Waypoints); err != nil {
		return nil, fmt.Errorf("decode waypoints: %w", err)
	}
	return &rt, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
