// Package rating turns individual star ratings into the single score shown for an
// interviewer, manager or company. All functions are pure and return 0 for no ratings.
package rating

import "math"

// PriorMean is the global prior Shrunk pulls small samples towards.
const PriorMean = 3.0

// Mean is the arithmetic mean of ratings.
func Mean(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

// Logistic maps the mean onto (0, 5) with a logistic curve centred at 2.5.
func Logistic(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	return 5 / (1 + math.Exp(-Mean(ratings)+2.5))
}

// Shrunk blends PriorMean with the raw mean, trusting the mean more as the sample grows.
func Shrunk(ratings []float64) float64 {
	return ShrunkFrom(Mean(ratings), len(ratings))
}

// ShrunkFrom is Shrunk for callers that only kept the mean and the count.
func ShrunkFrom(mean float64, count int) float64 {
	if count <= 0 {
		return 0
	}
	w := sigmoid(float64(count) / 5)
	return (1-w)*PriorMean + w*mean
}

// Round2 rounds to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
