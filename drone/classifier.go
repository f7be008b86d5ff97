package drone

// Inference Engine
//
// A Classifier wraps one ModelPair loaded at startup. Classify runs the
// shared feature derivation, standardizes the vector with the fitted scaler
// and thresholds the boosted ensemble's probability at one half; class 1 is
// reported as Suspicious. The pair is read-only, so a single Classifier can
// serve any number of concurrent callers and always returns the same label
// for the same sample.

import (
	"errors"
	"fmt"
)

// Classifier labels telemetry samples with a fixed, read-only model pair.
type Classifier struct {
	pair *ModelPair
}

// NewClassifier wraps an already validated model pair.
func NewClassifier(pair *ModelPair) (*Classifier, error) {
	if pair == nil || pair.Scaler == nil || pair.Model == nil || pair.Encoder == nil {
		return nil, errors.New("incomplete model pair")
	}
	if got := pair.Scaler.FeatureCount(); got != FeatureCount {
		return nil, &SchemaMismatchError{Artifact: "scaler", Expected: FeatureCount, Got: got}
	}
	if pair.Model.FeatureCount != FeatureCount {
		return nil, &SchemaMismatchError{Artifact: "classifier", Expected: FeatureCount, Got: pair.Model.FeatureCount}
	}
	return &Classifier{pair: pair}, nil
}

// NewClassifierFromDir loads and validates the artifact pair in dir.
func NewClassifierFromDir(dir string) (*Classifier, error) {
	pair, err := LoadModelPair(dir)
	if err != nil {
		return nil, err
	}
	return NewClassifier(pair)
}

// Info describes the loaded artifacts.
func (c *Classifier) Info() ModelInfo {
	return c.pair.Info()
}

// Probability returns the model's probability that the sample is suspicious.
func (c *Classifier) Probability(sample TelemetrySample) (float64, error) {
	scaled, err := c.pair.Scaler.Transform(Derive(sample).Slice())
	if err != nil {
		return 0, fmt.Errorf("scaling features: %w", err)
	}
	p, err := c.pair.Model.PredictProba(scaled)
	if err != nil {
		return 0, fmt.Errorf("running classifier: %w", err)
	}
	return p, nil
}

// Classify labels a sample Normal or Suspicious.
func (c *Classifier) Classify(sample TelemetrySample) (Status, error) {
	p, err := c.Probability(sample)
	if err != nil {
		return StatusNormal, err
	}
	if p > 0.5 {
		return StatusSuspicious, nil
	}
	return StatusNormal, nil
}

// Evaluate classifies every sample and scores the predictions against the
// samples' labels.
func (c *Classifier) Evaluate(samples []LabeledSample) (Report, error) {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = s.Label
	}
	truth, err := c.pair.Encoder.Encode(labels)
	if err != nil {
		return Report{}, err
	}

	predicted := make([]int, len(samples))
	for i, s := range samples {
		status, err := c.Classify(s.Sample)
		if err != nil {
			return Report{}, fmt.Errorf("classifying row %d: %w", i, err)
		}
		if status == StatusSuspicious {
			predicted[i] = 1
		}
	}

	return Evaluate(truth, predicted, c.pair.Encoder.Classes)
}
