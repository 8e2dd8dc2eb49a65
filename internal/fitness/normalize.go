package fitness

import "math"

// NormalizeFunc maps a raw measurement to [0,1].
type NormalizeFunc func(raw float64) float64

// NormalizeTarget peaks at target and falls off linearly with slope:
// max(0, 1 - |raw-target|*slope).
func NormalizeTarget(target, slope float64) NormalizeFunc {
	return func(raw float64) float64 {
		return math.Max(0, 1-math.Abs(raw-target)*slope)
	}
}

// NormalizeCap returns min(raw/max, 1) clamped at 0.
func NormalizeCap(max float64) NormalizeFunc {
	if max <= 0 {
		return func(float64) float64 { return 0 }
	}
	return func(raw float64) float64 {
		v := raw / max
		if v > 1 {
			return 1
		}
		if v < 0 {
			return 0
		}
		return v
	}
}

// DensityScore is the 0-5 density term used for obstacles and bushes.
func DensityScore(density, target float64) float64 {
	return NormalizeTarget(target, 10)(density) * 5
}
