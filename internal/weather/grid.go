package weather

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/denizrota/denizrota/internal/cache"
	"github.com/denizrota/denizrota/internal/geo"
)

// MaxGridPoints caps a single grid request.
const MaxGridPoints = 400

// GridPoint is one cell of a wind grid. Err is set when that cell failed;
// other cells are unaffected.
type GridPoint struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Sample     *Sample        `json:"sample,omitempty"`
	Err        error          `json:"-"`
}

// FetchGrid samples wind over box at the given spacing using a bounded worker
// pool and a shared upstream rate limit. Cached cells do not consume rate.
//
// Cancelling ctx stops dispatching new cells and returns ctx.Err(); calls
// already sent upstream still complete and fill the cache.
func (s *Service) FetchGrid(ctx context.Context, box geo.BoundingBox, step float64, t time.Time) ([]GridPoint, error) {
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}

	if n := box.GridSize(step); n > MaxGridPoints {
		return nil, fmt.Errorf("%w: %d points, max %d", ErrGridTooLarge, n, MaxGridPoints)
	}
	points := box.Grid(step)

	results := make([]GridPoint, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.gridWorkers)

	for i, p := range points {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i].Coordinate = p

			if !s.windCached(p, t) {
				if err := s.gridLimiter.Wait(gctx); err != nil {
					return err
				}
			}

			sample, err := s.FetchWindOnly(gctx, p, t)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i].Err = err
				return nil
			}
			results[i].Sample = sample
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn().
			Int("failed", failed).
			Int("points", len(results)).
			Msg("wind grid partially failed")
	}

	return results, nil
}

func (s *Service) windCached(c geo.Coordinate, t time.Time) bool {
	key := cache.HourKey(c, s.sampleGrid, t)
	if _, ok := s.samples.Get(key); ok {
		return true
	}
	_, ok := s.windOnly.Get(key)
	return ok
}
