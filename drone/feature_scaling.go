package drone

// Feature Scaling
//
// The scaler standardizes each feature dimension to zero mean and unit
// variance. It is fit once on the training partition only and then applied
// unchanged to the test partition and to every live sample. Raw features span
// wildly different ranges (latitude ~28, proximity score up to 1e6, squared
// altitude ~1e4). The oversampler runs on the raw derived rows before the
// scaler is fit; only the boosted trees see scaled features.

import (
	"errors"
	"fmt"
	"math"
)

// FeatureScaler standardizes features using z-score normalization.
type FeatureScaler struct {
	Mean     []float64 `json:"mean"`
	Variance []float64 `json:"variance"`
	Scale    []float64 `json:"scale"`
}

// NewFeatureScaler computes per-column mean and population variance.
// Constant columns get a scale of 1 so Transform never divides by zero.
func NewFeatureScaler(rows [][]float64) (*FeatureScaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows provided")
	}

	featureCount := len(rows[0])
	if featureCount == 0 {
		return nil, errors.New("rows have no features")
	}

	mean := make([]float64, featureCount)
	for _, row := range rows {
		if len(row) != featureCount {
			return nil, errors.New("inconsistent feature dimensions")
		}
		for i, val := range row {
			mean[i] += val
		}
	}
	n := float64(len(rows))
	for i := range mean {
		mean[i] /= n
	}

	variance := make([]float64, featureCount)
	for _, row := range rows {
		for i, val := range row {
			diff := val - mean[i]
			variance[i] += diff * diff
		}
	}

	scale := make([]float64, featureCount)
	for i := range variance {
		variance[i] /= n
		scale[i] = math.Sqrt(variance[i])
		if scale[i] < 1e-10 {
			scale[i] = 1.0
		}
	}

	return &FeatureScaler{
		Mean:     mean,
		Variance: variance,
		Scale:    scale,
	}, nil
}

// FeatureCount is the number of columns the scaler was fit on.
func (fs *FeatureScaler) FeatureCount() int {
	return len(fs.Mean)
}

// Transform standardizes a single feature vector. A width mismatch is an
// error; the vector is never truncated or padded.
func (fs *FeatureScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(fs.Mean) {
		return nil, &SchemaMismatchError{Artifact: "scaler", Expected: len(fs.Mean), Got: len(features)}
	}

	scaled := make([]float64, len(features))
	for i, val := range features {
		scaled[i] = (val - fs.Mean[i]) / fs.Scale[i]
	}

	return scaled, nil
}

// TransformAll standardizes every row.
func (fs *FeatureScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := fs.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

func (fs *FeatureScaler) validate() error {
	if len(fs.Mean) == 0 || len(fs.Mean) != len(fs.Scale) || len(fs.Mean) != len(fs.Variance) {
		return errors.New("scaler parameters have inconsistent lengths")
	}
	for i, s := range fs.Scale {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("scaler column %d has invalid scale %v", i, s)
		}
	}
	return nil
}
