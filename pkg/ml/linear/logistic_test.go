package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	w := Weights{Bias: 0, Coefficients: []float64{1, -1}}

	p, err := Predict(w, []float64{2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)

	p, err = Predict(w, []float64{4, 0})
	require.NoError(t, err)
	assert.Greater(t, p, 0.98)

	_, err = Predict(w, []float64{1})
	assert.Error(t, err)
}

func TestClassifyThreshold(t *testing.T) {
	w := Weights{Bias: 0.2, Coefficients: []float64{0}}

	positive, p, err := Classify(w, []float64{5}, 0)
	require.NoError(t, err)
	assert.True(t, positive)
	assert.InDelta(t, 0.5498, p, 1e-3)

	positive, _, err = Classify(w, []float64{5}, 0.6)
	require.NoError(t, err)
	assert.False(t, positive)
}

func TestNegatedScoresComplement(t *testing.T) {
	w := Weights{Bias: 0.3, Coefficients: []float64{1.5, -2}}
	sample := []float64{0.4, 1.1}

	p, err := Predict(w, sample)
	require.NoError(t, err)
	q, err := Predict(w.Negated(), sample)
	require.NoError(t, err)
	assert.InDelta(t, 1, p+q, 1e-12)
	assert.Equal(t, []float64{1.5, -2}, w.Coefficients)
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, Weights{Coefficients: []float64{1, 2}}.Validate(2))
	assert.Error(t, Weights{Coefficients: []float64{1}}.Validate(2))
}
