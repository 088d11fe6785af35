package mp

import "math"

func ClampVolume(volume float64) float64 {
	if math.IsNaN(volume) || volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}

// VolumeFromPercent converts the device's 0-100 integer to a fraction.
func VolumeFromPercent(percent int64) float64 {
	return ClampVolume(float64(percent) / 100)
}

func VolumeToPercent(volume float64) int64 {
	return int64(math.Round(ClampVolume(volume) * 100))
}
