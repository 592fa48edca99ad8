package vessel_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/internal/notify"
	"github.com/denizrota/denizrota/internal/route"
	"github.com/denizrota/denizrota/internal/settings"
	"github.com/denizrota/denizrota/internal/tracker"
	"github.com/denizrota/denizrota/internal/trip"
	"github.com/denizrota/denizrota/internal/vessel"
)

var (
	center = geo.Coordinate{Lat: 36.6800, Lon: 27.5640}
	t0     = time.Date(2026, 7, 1, 22, 0, 0, 0, time.UTC)
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func fixAt(c geo.Coordinate, accuracy float64) tracker.Position {
	return tracker.Position{Coordinate: c, Timestamp: t0, HorizontalAccuracyM: accuracy}
}

func newSession(t *testing.T, sink notify.Sink, clk *clock) (*vessel.Session, *trip.Service) {
	t.Helper()
	trips := trip.NewService(trip.NewInMemoryRepository())
	return vessel.NewSession(vessel.SessionConfig{
		Sink:        sink,
		RadiusStore: settings.NewService(settings.NewInMemoryRepository()),
		Trips:       trips,
		Logger:      zerolog.Nop(),
		Now:         clk.now,
	}), trips
}

func TestSession_AnchorWatchWithoutTrip(t *testing.T) {
	ctx := context.Background()
	sink := notify.NewChannelSink(8)
	s, _ := newSession(t, sink, &clock{t: t0})

	_, err := s.Anchor().StartDrafting(ctx, center)
	require.NoError(t, err)
	_, err = s.Anchor().Activate(ctx)
	require.NoError(t, err)

	outside := geo.Offset(center, 0, 0.08)

	assert.Equal(t, vessel.IngestResult{Accepted: true}, s.Ingest(ctx, fixAt(outside, 5)))
	assert.Equal(t, vessel.IngestResult{Accepted: true}, s.Ingest(ctx, fixAt(outside, 5)))

	// A rejected fix does not count toward the debounce.
	assert.Equal(t, vessel.IngestResult{}, s.Ingest(ctx, fixAt(outside, 80)))

	assert.Equal(t, vessel.IngestResult{Accepted: true, Alarm: true}, s.Ingest(ctx, fixAt(outside, 5)))

	select {
	case ev := <-sink.Events():
		require.NotNil(t, ev.DragAlarm)
		assert.InDelta(t, 80, ev.DragAlarm.DriftM, 1)
	default:
		t.Fatal("expected a drag alarm")
	}

	_, ok := s.Tracker().Trip()
	assert.False(t, ok)
}

func TestSession_TripLifecycle(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: t0}
	s, trips := newSession(t, nil, clk)

	_, err := s.StopTrip(ctx)
	assert.ErrorIs(t, err, tracker.ErrNoActiveTrip)

	started, err := s.StartTrip()
	require.NoError(t, err)
	assert.Equal(t, t0, started)

	_, err = s.StartTrip()
	assert.ErrorIs(t, err, tracker.ErrTripActive)

	p := center
	for i := 0; i < 5; i++ {
		require.True(t, s.Ingest(ctx, fixAt(p, 5)).Accepted)
		p = geo.Offset(p, 90, 0.5)
	}

	clk.t = t0.Add(30 * time.Minute)
	recorded, err := s.StopTrip(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, recorded.DistanceKm, 0.01)
	assert.InDelta(t, 4.0, recorded.AvgSpeedKmh, 0.02)

	list, err := trips.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, recorded.ID, list[0].ID)
}

func TestSession_FollowRoute(t *testing.T) {
	ctx := context.Background()
	sink := notify.NewChannelSink(8)
	s, _ := newSession(t, sink, &clock{t: t0})

	assert.ErrorIs(t, s.FollowRoute(&route.Route{}), vessel.ErrNoRoute)

	rt := &route.Route{Waypoints: []route.Waypoint{
		{ID: "wp_1", Name: "Mesudiye", Coordinate: center},
	}}
	require.NoError(t, s.FollowRoute(rt))

	s.Ingest(ctx, fixAt(geo.Offset(center, 180, 0.05), 5))
	assert.True(t, s.Tracker().Progress().Arrived)

	ev := <-sink.Events()
	require.NotNil(t, ev.Arrival)
	assert.Equal(t, "wp_1", ev.Arrival.WaypointID)

	s.StopFollowing()
	assert.Empty(t, s.Tracker().Progress().Waypoints)
}
