package mp

import (
	"math"
	"time"
)

// Position is the last known playback position and the wall-clock time it
// was accurate at.
type Position struct {
	Seconds   float64
	Timestamp time.Time
}

// Current extrapolates the position. Outside of Playing the stored value is
// returned unchanged.
func (p Position) Current(state State, now time.Time) float64 {
	if state != StatePlaying || p.Timestamp.IsZero() {
		return p.Seconds
	}
	elapsed := now.Sub(p.Timestamp).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return p.Seconds + elapsed
}

func (p *Position) Record(seconds float64, now time.Time) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	p.Seconds = seconds
	p.Timestamp = now
}

// Rebase freezes the extrapolated value at now.
func (p *Position) Rebase(state State, now time.Time) {
	p.Record(p.Current(state, now), now)
}

func (p *Position) Reset() {
	p.Seconds = 0
	p.Timestamp = time.Time{}
}

// Transition applies a playback state change to the position. It reports
// whether observers must be told the position changed, which is always the
// case when entering Stopped.
func (p *Position) Transition(from, to State, now time.Time) bool {
	if from == to {
		return false
	}
	switch to {
	case StateStopped:
		p.Reset()
		return true
	case StatePaused:
		p.Rebase(from, now)
		return true
	default:
		// Resume extrapolation from now
		p.Record(p.Seconds, now)
		return false
	}
}

// -- UNIT CONVERSIONS

func SecondsFromMillis(millis int64) float64 {
	return float64(millis) / 1e3
}

func MillisFromSeconds(seconds float64) int64 {
	return int64(math.Round(seconds * 1e3))
}

func SecondsFromMicros(micros int64) float64 {
	return float64(micros) / 1e6
}

func MicrosFromSeconds(seconds float64) int64 {
	return int64(math.Round(seconds * 1e6))
}
