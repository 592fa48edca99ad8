package risk

import "github.com/denizrota/denizrota/internal/geo"

// Shelter is how well an anchorage is protected from the current wind.
type Shelter string

const (
	ShelterExcellent Shelter = "excellent"
	ShelterGood      Shelter = "good"
	ShelterModerate  Shelter = "moderate"
	ShelterPoor      Shelter = "poor"
)

// CalmWindKmh is the speed below which every anchorage counts as sheltered
// and wind direction is ignored.
const CalmWindKmh = 5.0

// Rank orders shelters best first (excellent is 0).
func (s Shelter) Rank() int {
	switch s {
	case ShelterExcellent:
		return 0
	case ShelterGood:
		return 1
	case ShelterModerate:
		return 2
	default:
		return 3
	}
}

// ClassifyShelter grades a cove whose mouth opens toward mouthDeg against a
// wind blowing from windDeg at windKmh.
//
// The angle between the mouth and the wind source decides the band: wind
// coming in through the mouth (angle near 0) is worst, wind from behind the
// cove (angle near 180) is best.
func ClassifyShelter(mouthDeg, windDeg, windKmh float64) Shelter {
	if windKmh < CalmWindKmh {
		return ShelterExcellent
	}

	diff := geo.NormalizeDegrees(mouthDeg - windDeg)
	switch {
	case diff >= 150 && diff <= 210:
		return ShelterExcellent
	case (diff >= 90 && diff < 150) || (diff > 210 && diff <= 270):
		return ShelterGood
	case (diff >= 45 && diff < 90) || (diff > 270 && diff <= 315):
		return ShelterModerate
	default:
		return ShelterPoor
	}
}
