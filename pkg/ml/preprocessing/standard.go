package preprocessing

import (
	"fmt"
	"math"
)

// StandardScaler holds the per-feature statistics of a fitted standardization:
// x' = (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Validate checks the scaler against the expected feature width.
func (s StandardScaler) Validate(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return fmt.Errorf("scaler has %d means and %d scales, expected %d", len(s.Mean), len(s.Scale), width)
	}
	for i := range s.Mean {
		if math.IsNaN(s.Mean[i]) || math.IsInf(s.Mean[i], 0) || math.IsNaN(s.Scale[i]) || math.IsInf(s.Scale[i], 0) {
			return fmt.Errorf("feature %d has non-finite statistics", i)
		}
	}
	return nil
}

// Transform returns a standardized copy of sample. A zero scale leaves the
// centred value unscaled, matching how constant columns are fitted.
func (s StandardScaler) Transform(sample []float64) ([]float64, error) {
	if len(sample) != len(s.Mean) {
		return nil, fmt.Errorf("sample has %d features, scaler expects %d", len(sample), len(s.Mean))
	}
	out := make([]float64, len(sample))
	for i, x := range sample {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (x - s.Mean[i]) / scale
	}
	return out, nil
}
