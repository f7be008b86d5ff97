package drone

// Model Trainer
//
// Train runs the offline pipeline in a fixed order:
//
//  1. encode labels alphabetically
//  2. derive the engineered features (same Derive as inference)
//  3. oversample minority classes to balance them
//  4. split 80/20 with a seeded shuffle
//  5. fit the scaler on the train partition only, apply to both
//  6. fit the boosted classifier on the scaled train partition
//  7. evaluate on the scaled test partition
//
// Every random draw comes from a *rand.Rand seeded with TrainConfig.Seed and
// the boosting itself draws nothing, so a given dataset and config always
// produce the same pair. Persisting is left to the caller so a failed run
// never touches existing artifacts.

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// TrainConfig holds the trainer's fixed hyperparameters.
type TrainConfig struct {
	Seed       int64       `yaml:"seed"`
	TestSize   float64     `yaml:"testSize"`
	KNeighbors int         `yaml:"kNeighbors"`
	Boost      BoostParams `yaml:"boost"`
}

// DefaultTrainConfig returns seed 42, an 80/20 split, 5 oversampling
// neighbours and DefaultBoostParams.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Seed:       42,
		TestSize:   0.2,
		KNeighbors: 5,
		Boost:      DefaultBoostParams(),
	}
}

// TrainingResult carries the fitted pair and diagnostics of one run.
type TrainingResult struct {
	Pair            *ModelPair
	ClassCounts     map[string]int
	ResampledCounts map[string]int
	TrainSize       int
	TestSize        int
	Report          Report
	Elapsed         time.Duration
}

// Train fits a scaler and classifier on the labeled samples. ctx is checked
// between pipeline stages.
func Train(ctx context.Context, data []LabeledSample, cfg TrainConfig) (*TrainingResult, error) {
	started := time.Now()
	if len(data) == 0 {
		return nil, errors.New("training data is empty")
	}

	labels := make([]string, len(data))
	samples := make([]TelemetrySample, len(data))
	for i, d := range data {
		labels[i] = d.Label
		samples[i] = d.Sample
	}

	encoder := NewLabelEncoder(labels)
	if len(encoder.Classes) != 2 {
		return nil, fmt.Errorf("%w: found %d (%v)", ErrSingleClass, len(encoder.Classes), encoder.Classes)
	}
	y, err := encoder.Encode(labels)
	if err != nil {
		return nil, err
	}

	rows := DeriveAll(samples)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resampledX, resampledY, err := Oversample(rows, y, encoder.Classes, cfg.KNeighbors, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, fmt.Errorf("oversampling: %w", err)
	}

	train, test, err := TrainTestSplit(resampledX, resampledY, cfg.TestSize, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, fmt.Errorf("splitting: %w", err)
	}

	scaler, err := NewFeatureScaler(train.X)
	if err != nil {
		return nil, fmt.Errorf("fitting scaler: %w", err)
	}
	trainScaled, err := scaler.TransformAll(train.X)
	if err != nil {
		return nil, err
	}
	testScaled, err := scaler.TransformAll(test.X)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := FitBoostedClassifier(trainScaled, train.Y, cfg.Boost)
	if err != nil {
		return nil, fmt.Errorf("fitting classifier: %w", err)
	}

	predicted := make([]int, len(testScaled))
	for i, row := range testScaled {
		if predicted[i], err = model.Predict(row); err != nil {
			return nil, err
		}
	}
	report, err := Evaluate(test.Y, predicted, encoder.Classes)
	if err != nil {
		return nil, fmt.Errorf("evaluating: %w", err)
	}

	return &TrainingResult{
		Pair: &ModelPair{
			Version:   uuid.NewString(),
			TrainedAt: time.Now().UTC(),
			Scaler:    scaler,
			Model:     model,
			Encoder:   encoder,
		},
		ClassCounts:     countClasses(y, encoder.Classes),
		ResampledCounts: countClasses(resampledY, encoder.Classes),
		TrainSize:       len(train.Y),
		TestSize:        len(test.Y),
		Report:          report,
		Elapsed:         time.Since(started),
	}, nil
}

func countClasses(y []int, classes []string) map[string]int {
	counts := make(map[string]int, len(classes))
	for _, c := range classes {
		counts[c] = 0
	}
	for _, c := range y {
		counts[classes[c]]++
	}
	return counts
}
