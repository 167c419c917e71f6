package ml

import (
	"math"
	"math/rand"
)

// InitUniform fills data with values drawn uniformly from [low, high].
func InitUniform(rnd *rand.Rand, data []float64, low, high float64) {
	for i := range data {
		data[i] = low + rnd.Float64()*(high-low)
	}
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
