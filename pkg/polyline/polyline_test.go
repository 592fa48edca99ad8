package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denizrota/denizrota/internal/geo"
	"github.com/denizrota/denizrota/pkg/polyline"
)

func assertPath(t *testing.T, want, got []geo.Coordinate, tolerance float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].Lat, got[i].Lat, tolerance, "lat %d", i)
		assert.InDelta(t, want[i].Lon, got[i].Lon, tolerance, "lon %d", i)
	}
}

func TestDecode_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []geo.Coordinate
	}{
		{
			name:    "single point",
			encoded: "_p~iF~ps|U",
			want:    []geo.Coordinate{{Lat: 38.5, Lon: -120.2}},
		},
		{
			name:    "three points",
			encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			want: []geo.Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := polyline.Decode(tt.encoded)
			require.NoError(t, err)
			assertPath(t, tt.want, got, 1e-5)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	got, err := polyline.Decode("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecode_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"_p~iF",     // latitude without longitude
		"_p~iF~ps|", // longitude cut mid-value
		"_p~iF ps|U", // byte below the alphabet
	} {
		_, err := polyline.Decode(encoded)
		assert.ErrorIs(t, err, polyline.ErrMalformed, encoded)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	path := []geo.Coordinate{
		{Lat: 36.72345, Lon: 27.68712},
		{Lat: 36.68901, Lon: 27.56432},
		{Lat: 36.66923, Lon: 27.50311},
		{Lat: -12.5, Lon: -0.00001},
	}

	got, err := polyline.Decode(polyline.Encode(path))
	require.NoError(t, err)
	assertPath(t, path, got, 1e-5)

	assert.Equal(t, "", polyline.Encode(nil))
}

func TestLength(t *testing.T) {
	assert.Equal(t, 0.0, polyline.Length(nil))
	assert.Equal(t, 0.0, polyline.Length([]geo.Coordinate{{Lat: 36, Lon: 27}}))

	// One degree of latitude is about 111 km.
	assert.InDelta(t, 111195, polyline.Length([]geo.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}}), 10)
}

func TestSample(t *testing.T) {
	path := []geo.Coordinate{
		{Lat: 36.70, Lon: 27.50},
		{Lat: 36.71, Lon: 27.50},
		{Lat: 36.72, Lon: 27.50},
		{Lat: 36.73, Lon: 27.50},
	}

	t.Run("every 500 m", func(t *testing.T) {
		got := polyline.Sample(path, 500)

		// About 3.3 km: six interior samples plus both ends.
		assert.Len(t, got, 8)
		assert.Equal(t, path[0], got[0])
		assert.Equal(t, path[3], got[len(got)-1])
		assert.InDelta(t, 500, geo.Distance(got[0], got[1]), 1)
		assert.InDelta(t, 500, geo.Distance(got[1], got[2]), 1)
		assert.InDelta(t, 500, geo.Distance(got[2], got[3]), 1)
	})

	t.Run("interval longer than path", func(t *testing.T) {
		assert.Equal(t, []geo.Coordinate{path[0], path[3]}, polyline.Sample(path, 10000))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, polyline.Sample(nil, 500))
	})

	t.Run("zero interval returns input", func(t *testing.T) {
		assert.Equal(t, path, polyline.Sample(path, 0))
	})
}
