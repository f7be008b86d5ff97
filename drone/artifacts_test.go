package drone

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixtureOnce   sync.Once
	fixtureResult *TrainingResult
	fixtureErr    error
)

// trainedFixture trains one small pair shared by the artifact and classifier tests.
func trainedFixture(t *testing.T) *TrainingResult {
	t.Helper()
	fixtureOnce.Do(func() {
		fixtureResult, fixtureErr = Train(context.Background(), imbalancedDataset(200, 40, 9), fastTrainConfig())
	})
	require.NoError(t, fixtureErr)
	return fixtureResult
}

func fixtureSamples() []TelemetrySample {
	return []TelemetrySample{
		{Latitude: 28.61, Longitude: 77.21, Altitude: 10, Speed: 22, DistanceToRestricted: 5},
		{Latitude: 28.62, Longitude: 77.20, Altitude: 90, Speed: 3, DistanceToRestricted: 180},
		{Latitude: 28.60, Longitude: 77.22, Altitude: 0, Speed: 0, DistanceToRestricted: 0},
	}
}

func TestModelPairRoundTripKeepsLabels(t *testing.T) {
	t.Parallel()

	result := trainedFixture(t)
	dir := t.TempDir()
	require.NoError(t, SaveModelPair(dir, result.Pair))

	before, err := NewClassifier(result.Pair)
	require.NoError(t, err)
	after, err := NewClassifierFromDir(dir)
	require.NoError(t, err)

	for _, s := range fixtureSamples() {
		want, err := before.Classify(s)
		require.NoError(t, err)
		got, err := after.Classify(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	info := after.Info()
	assert.Equal(t, result.Pair.Version, info.Version)
	assert.Equal(t, []string{"normal", "suspicious"}, info.Classes)

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLoadModelPairMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadModelPair(t.TempDir())
	var missing *ArtifactMissingError
	require.True(t, errors.As(err, &missing))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadModelPairUnparsable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, SaveModelPair(dir, trainedFixture(t).Pair))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClassifierFile), []byte("{not json"), 0644))

	_, err := LoadModelPair(dir)
	var missing *ArtifactMissingError
	assert.True(t, errors.As(err, &missing))
}

func TestLoadModelPairEightFeatureArtifacts(t *testing.T) {
	t.Parallel()

	X := make([][]float64, 30)
	y := make([]int, 30)
	for i := range X {
		X[i] = []float64{float64(i), 1, 2, 3, 4, 5, 6, float64(i % 3)}
		y[i] = i % 2
	}
	scaler, err := NewFeatureScaler(X)
	require.NoError(t, err)
	model, err := FitBoostedClassifier(X, y, smallBoostParams())
	require.NoError(t, err)

	dir := t.TempDir()
	pair := &ModelPair{Version: "v8", Scaler: scaler, Model: model, Encoder: NewLabelEncoder([]string{"normal", "suspicious"})}
	require.NoError(t, SaveModelPair(dir, pair))

	_, err = NewClassifierFromDir(dir)
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch), "got %v", err)
	assert.Equal(t, FeatureCount, mismatch.Expected)
	assert.Equal(t, 8, mismatch.Got)

	_, err = NewClassifier(pair)
	assert.True(t, errors.As(err, &mismatch))
}

func TestLoadModelPairVersionMismatch(t *testing.T) {
	t.Parallel()

	result := trainedFixture(t)
	dir := t.TempDir()
	require.NoError(t, SaveModelPair(dir, result.Pair))

	other := *result.Pair
	other.Version = "another-run"
	otherDir := t.TempDir()
	require.NoError(t, SaveModelPair(otherDir, &other))
	require.NoError(t, os.Rename(filepath.Join(otherDir, ScalerFile), filepath.Join(dir, ScalerFile)))

	_, err := LoadModelPair(dir)
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "model pair", mismatch.Artifact)
}

func TestLoadModelPairReorderedFeatures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, SaveModelPair(dir, trainedFixture(t).Pair))

	path := filepath.Join(dir, ScalerFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var artifact scalerArtifact
	require.NoError(t, json.Unmarshal(raw, &artifact))
	artifact.FeatureNames[0], artifact.FeatureNames[1] = artifact.FeatureNames[1], artifact.FeatureNames[0]
	raw, err = json.Marshal(artifact)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	_, err = LoadModelPair(dir)
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Contains(t, mismatch.Error(), "lon")
}

func TestSaveModelPairFailureKeepsExistingArtifacts(t *testing.T) {
	t.Parallel()

	result := trainedFixture(t)
	dir := t.TempDir()
	require.NoError(t, SaveModelPair(dir, result.Pair))
	original, err := os.ReadFile(filepath.Join(dir, ScalerFile))
	require.NoError(t, err)

	// a directory squatting on the classifier temp path makes the second write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, ClassifierFile+".tmp"), 0755))
	replacement := *result.Pair
	replacement.Version = "replacement"
	require.Error(t, SaveModelPair(dir, &replacement))

	current, err := os.ReadFile(filepath.Join(dir, ScalerFile))
	require.NoError(t, err)
	assert.Equal(t, original, current)
	_, err = os.Stat(filepath.Join(dir, ScalerFile+".tmp"))
	assert.True(t, os.IsNotExist(err))
}
