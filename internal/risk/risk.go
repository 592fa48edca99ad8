// Package risk maps wind and wave readings to hazard and shelter levels.
package risk

// Level is a qualitative sea-state hazard.
type Level string

const (
	LevelUnknown Level = "unknown"
	LevelGreen   Level = "green"
	LevelYellow  Level = "yellow"
	LevelRed     Level = "red"
)

// Risk thresholds.
const (
	RedWindKmh    = 30.0
	RedWaveM      = 1.5
	YellowWindKmh = 15.0
	YellowWaveM   = 0.5
)

// Severity orders levels for display: unknown < green < yellow < red.
func (l Level) Severity() int {
	switch l {
	case LevelGreen:
		return 1
	case LevelYellow:
		return 2
	case LevelRed:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	switch l {
	case LevelUnknown, LevelGreen, LevelYellow, LevelRed:
		return true
	}
	return false
}

// ClassifyRisk grades a wind speed in km/h and a wave height in meters.
// A nil wind speed yields LevelUnknown regardless of the wave height.
func ClassifyRisk(windKmh *float64, waveM float64) Level {
	if windKmh == nil {
		return LevelUnknown
	}
	wind := *windKmh

	switch {
	case wind >= RedWindKmh || waveM > RedWaveM:
		return LevelRed
	case wind >= YellowWindKmh || waveM >= YellowWaveM:
		return LevelYellow
	default:
		return LevelGreen
	}
}

// Worst aggregates levels along a route. Red and yellow dominate as usual,
// but an unknown level outranks green: a leg without data is never reported
// as safe. An empty input is unknown.
func Worst(levels ...Level) Level {
	if len(levels) == 0 {
		return LevelUnknown
	}

	worst := LevelGreen
	sawUnknown := false
	for _, l := range levels {
		if !l.Valid() || l == LevelUnknown {
			sawUnknown = true
			continue
		}
		if l.Severity() > worst.Severity() {
			worst = l
		}
	}

	if sawUnknown && worst == LevelGreen {
		return LevelUnknown
	}
	return worst
}
