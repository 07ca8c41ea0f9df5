package linear

import (
	"fmt"
	"math"
)

// DefaultThreshold is the probability cut used when an artifact does not set one.
const DefaultThreshold = 0.5

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// Validate checks that the weights can score a sample of width features.
func (w Weights) Validate(width int) error {
	if len(w.Coefficients) != width {
		return fmt.Errorf("weights have %d coefficients, expected %d", len(w.Coefficients), width)
	}
	for i, c := range w.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if math.IsNaN(w.Bias) || math.IsInf(w.Bias, 0) {
		return fmt.Errorf("bias is not finite")
	}
	return nil
}

// Negated returns weights scoring the complementary class.
func (w Weights) Negated() Weights {
	out := Weights{Bias: -w.Bias, Coefficients: make([]float64, len(w.Coefficients))}
	for i, c := range w.Coefficients {
		out.Coefficients[i] = -c
	}
	return out
}

// Predict returns the positive-class probability for sample.
func Predict(weights Weights, sample []float64) (float64, error) {
	if len(sample) != len(weights.Coefficients) {
		return 0, fmt.Errorf("sample has %d features, model expects %d", len(sample), len(weights.Coefficients))
	}
	return sigmoid(dot(weights.Coefficients, sample) + weights.Bias), nil
}

// Classify applies threshold to the positive-class probability.
func Classify(weights Weights, sample []float64, threshold float64) (bool, float64, error) {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	p, err := Predict(weights, sample)
	if err != nil {
		return false, 0, err
	}
	return p >= threshold, p, nil
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
