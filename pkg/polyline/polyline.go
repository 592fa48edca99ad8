// Package polyline encodes coordinate paths with the polyline algorithm
// (precision 5) so routes can be exchanged as compact strings.
package polyline

import (
	"errors"
	"math"

	"github.com/denizrota/denizrota/internal/geo"
)

// ErrMalformed is returned for strings that end mid-value or contain bytes
// outside the encoding alphabet.
var ErrMalformed = errors.New("malformed polyline")

// Decode decodes a polyline string. An empty string decodes to nil.
func Decode(encoded string) ([]geo.Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	var coords []geo.Coordinate
	index, lat, lon := 0, 0, 0

	for index < len(encoded) {
		latDelta, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		lonDelta, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next
		lat += latDelta
		lon += lonDelta

		coords = append(coords, geo.Coordinate{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return coords, nil
}

func decodeValue(encoded string, index int) (int, int, error) {
	shift, result := 0, 0

	for {
		if index >= len(encoded) {
			return 0, index, ErrMalformed
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 0x3f {
			return 0, index, ErrMalformed
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes coords. Nil or empty input encodes to "".
func Encode(coords []geo.Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*4)
	prevLat, prevLon := 0, 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * 1e5))
		lon := int(math.Round(c.Lon * 1e5))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Length returns the path length in meters.
func Length(coords []geo.Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += geo.Distance(coords[i-1], coords[i])
	}
	return total
}

// Sample returns points spaced roughly intervalMeters apart along the path,
// always keeping the first and last point. A non-positive interval returns
// coords unchanged.
func Sample(coords []geo.Coordinate, intervalMeters float64) []geo.Coordinate {
	if len(coords) == 0 {
		return nil
	}
	if intervalMeters <= 0 {
		return coords
	}

	sampled := []geo.Coordinate{coords[0]}
	accumulated := 0.0

	for i := 1; i < len(coords); i++ {
		from := coords[i-1]
		segment := geo.Distance(from, coords[i])
		travelled := 0.0

		for accumulated+(segment-travelled) >= intervalMeters {
			travelled += intervalMeters - accumulated
			fraction := travelled / segment
			sampled = append(sampled, geo.Coordinate{
				Lat: from.Lat + fraction*(coords[i].Lat-from.Lat),
				Lon: from.Lon + fraction*(coords[i].Lon-from.Lon),
			})
			accumulated = 0
		}

		accumulated += segment - travelled
	}

	if last := coords[len(coords)-1]; sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}
	return sampled
}
