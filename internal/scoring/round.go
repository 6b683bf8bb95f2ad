package scoring

import "math"

// roundEpsilon absorbs float error on values that should be exact halves.
const roundEpsilon = 1e-9

// roundScore rounds half up and clamps to [0,100].
func roundScore(v float64) int {
	return clampScore(int(math.Floor(v + 0.5 + roundEpsilon)))
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func intPtr(v int) *int {
	return &v
}
