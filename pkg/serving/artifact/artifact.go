package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/ml/linear"
	"github.com/synaptica-ai/noshow/pkg/ml/preprocessing"
	"github.com/synaptica-ai/noshow/pkg/prediction"
)

const (
	AlgorithmLogistic = "logistic_regression"
	ScalerStandard    = "standard"
)

type modelFile struct {
	Model struct {
		Type          string         `json:"type"`
		Algorithm     string         `json:"algorithm"`
		Schema        string         `json:"schema"`
		FeatureNames  []string       `json:"feature_names"`
		Threshold     float64        `json:"threshold"`
		PositiveLabel string         `json:"positive_label"`
		Weights       linear.Weights `json:"weights"`
	} `json:"model"`
}

type scalerFile struct {
	Scaler struct {
		Type   string    `json:"type"`
		Schema string    `json:"schema"`
		Mean   []float64 `json:"mean"`
		Scale  []float64 `json:"scale"`
	} `json:"scaler"`
}

// Model is a decoded logistic classifier over the current feature schema.
type Model struct {
	// weights always score the no-show class.
	weights   linear.Weights
	threshold float64
}

// DecodeModel parses and validates a model artifact.
func DecodeModel(data []byte) (*Model, error) {
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}
	m := f.Model
	if m.Algorithm != "" && m.Algorithm != AlgorithmLogistic {
		return nil, fmt.Errorf("unsupported model algorithm %q", m.Algorithm)
	}
	if err := checkSchema(m.Schema, m.FeatureNames); err != nil {
		return nil, err
	}
	if err := m.Weights.Validate(features.Width()); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	threshold := m.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = linear.DefaultThreshold
	}

	weights := m.Weights
	switch strings.ToLower(strings.TrimSpace(m.PositiveLabel)) {
	case "", "no_show", "noshow", "1":
	case "show", "0":
		// sigmoid(-z) = 1 - sigmoid(z)
		weights = weights.Negated()
	default:
		return nil, fmt.Errorf("unknown positive label %q", m.PositiveLabel)
	}

	return &Model{weights: weights, threshold: threshold}, nil
}

// Probability returns the no-show probability of sample.
func (m *Model) Probability(sample features.Vector) (float64, error) {
	return linear.Predict(m.weights, sample)
}

func (m *Model) Predict(sample features.Vector) (prediction.Label, error) {
	noShow, _, err := linear.Classify(m.weights, sample, m.threshold)
	if err != nil {
		return prediction.LabelShow, err
	}
	if noShow {
		return prediction.LabelNoShow, nil
	}
	return prediction.LabelShow, nil
}

// Scaler is a decoded standard scaler over the current feature schema.
type Scaler struct {
	standard preprocessing.StandardScaler
}

// DecodeScaler parses and validates a scaler artifact.
func DecodeScaler(data []byte) (*Scaler, error) {
	var f scalerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding scaler artifact: %w", err)
	}
	s := f.Scaler
	if s.Type != "" && s.Type != ScalerStandard {
		return nil, fmt.Errorf("unsupported scaler type %q", s.Type)
	}
	if err := checkSchema(s.Schema, nil); err != nil {
		return nil, err
	}
	standard := preprocessing.StandardScaler{Mean: s.Mean, Scale: s.Scale}
	if err := standard.Validate(features.Width()); err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}
	return &Scaler{standard: standard}, nil
}

func (s *Scaler) Transform(sample features.Vector) (features.Vector, error) {
	out, err := s.standard.Transform(sample)
	if err != nil {
		return nil, err
	}
	return features.Vector(out), nil
}

func checkSchema(schema string, names []string) error {
	if schema != "" && schema != features.SchemaVersion {
		return fmt.Errorf("artifact schema %q does not match %q", schema, features.SchemaVersion)
	}
	if len(names) == 0 {
		return nil
	}
	want := features.FeatureNames()
	if len(names) != len(want) {
		return fmt.Errorf("artifact lists %d feature names, expected %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("feature %d is %q in artifact, expected %q", i, names[i], want[i])
		}
	}
	return nil
}
