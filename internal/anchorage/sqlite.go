package anchorage

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/denizrota/denizrota/internal/geo"
)

// SQLiteCatalog reads coves from a SQLite reference database. The database
// is provisioned from the bundled list when its table is empty.
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenSQLiteCatalog opens (creating if needed) the database at path.
func OpenSQLiteCatalog(ctx context.Context, path string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening anchorage database: %w", err)
	}

	// A single connection keeps in-memory databases coherent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	c := &SQLiteCatalog{db: db}
	if err := c.provision(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) provision(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS coves (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			region TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			mouth_direction REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_coves_lat_lon ON coves(latitude, longitude);
	`)
	if err != nil {
		return fmt.Errorf("creating coves table: %w", err)
	}

	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coves").Scan(&count); err != nil {
		return fmt.Errorf("counting coves: %w", err)
	}
	if count > 0 {
		return nil
	}

	return c.Insert(ctx, BundledCoves()...)
}

// Insert adds or replaces coves in one transaction.
func (c *SQLiteCatalog) Insert(ctx context.Context, coves ...Cove) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO coves (id, name, region, latitude, longitude, mouth_direction)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, cove := range coves {
		if _, err := stmt.ExecContext(ctx,
			cove.ID, cove.Name, cove.Region,
			cove.Coordinate.Lat, cove.Coordinate.Lon,
			geo.NormalizeDegrees(cove.MouthDirection),
		); err != nil {
			return fmt.Errorf("inserting cove %s: %w", cove.ID, err)
		}
	}

	return tx.Commit()
}

// Nearby returns coves within radiusKm of center, nearest first. A
// bounding box query narrows the rows before the haversine check.
func (c *SQLiteCatalog) Nearby(ctx context.Context, center geo.Coordinate, radiusKm float64) ([]Candidate, error) {
	// 111 km per degree of latitude, plus margin.
	latDelta := radiusKm / 111.0 * 1.2
	lonDelta := latDelta / math.Max(math.Cos(center.Lat*math.Pi/180), 0.01)

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, region, latitude, longitude, mouth_direction
		FROM coves
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
	`,
		center.Lat-latDelta, center.Lat+latDelta,
		center.Lon-lonDelta, center.Lon+lonDelta,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreadable, err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var cove Cove
		if err := rows.Scan(
			&cove.ID, &cove.Name, &cove.Region,
			&cove.Coordinate.Lat, &cove.Coordinate.Lon,
			&cove.MouthDirection,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCatalogUnreadable, err)
		}

		if d := geo.DistanceKm(center, cove.Coordinate); d <= radiusKm {
			out = append(out, Candidate{Cove: cove, DistanceKm: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnreadable, err)
	}

	sortByDistance(out)
	return out, nil
}

// Ensure SQLiteCatalog implements Catalog interface.
var _ Catalog = (*SQLiteCatalog)(nil)
