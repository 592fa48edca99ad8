package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/settings"
)

func ptr(v float64) *float64 { return &v }

func TestService_GetDefaults(t *testing.T) {
	svc := settings.NewService(settings.NewInMemoryRepository())

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.AverageSpeedKmh)
	assert.Equal(t, 20.0, got.FuelRateLph)
	assert.Equal(t, 45.0, got.FuelPrice)
	assert.Equal(t, 50.0, got.AnchorRadiusM)
}

func TestService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(settings.NewInMemoryRepository())

	got, err := svc.Update(ctx, settings.Update{AverageSpeedKmh: ptr(22)})
	require.NoError(t, err)
	assert.Equal(t, 22.0, got.AverageSpeedKmh)
	assert.Equal(t, 20.0, got.FuelRateLph)
	assert.False(t, got.UpdatedAt.IsZero())

	got, err = svc.Update(ctx, settings.Update{FuelPrice: ptr(52.5)})
	require.NoError(t, err)
	assert.Equal(t, 22.0, got.AverageSpeedKmh)
	assert.Equal(t, 52.5, got.FuelPrice)
}

func TestService_UpdateValidation(t *testing.T) {
	tests := []struct {
		name      string
		update    settings.Update
		wantField string
	}{
		{"zero speed", settings.Update{AverageSpeedKmh: ptr(0)}, "averageSpeedKmh"},
		{"speed too high", settings.Update{AverageSpeedKmh: ptr(150)}, "averageSpeedKmh"},
		{"negative fuel rate", settings.Update{FuelRateLph: ptr(-1)}, "fuelRateLph"},
		{"negative price", settings.Update{FuelPrice: ptr(-0.5)}, "fuelPrice"},
		{"radius too small", settings.Update{AnchorRadiusM: ptr(5)}, "anchorRadiusM"},
		{"radius too large", settings.Update{AnchorRadiusM: ptr(600)}, "anchorRadiusM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc := settings.NewService(settings.NewInMemoryRepository())

			_, err := svc.Update(ctx, tt.update)

			var verr *settings.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tt.wantField, verr.Errors[0].Field)

			// Nothing was stored.
			got, err := svc.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, settings.Default(), got)
		})
	}
}

func TestService_AnchorRadiusStore(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(settings.NewInMemoryRepository())

	r, err := svc.LastAnchorRadius(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, r)

	require.NoError(t, svc.SaveAnchorRadius(ctx, 85))
	r, err = svc.LastAnchorRadius(ctx)
	require.NoError(t, err)
	assert.Equal(t, 85.0, r)

	require.NoError(t, svc.SaveAnchorRadius(ctx, 900))
	r, err = svc.LastAnchorRadius(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, r)
}
