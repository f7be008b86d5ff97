package drone

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIsIdempotent(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(trainedFixture(t).Pair)
	require.NoError(t, err)

	for _, s := range fixtureSamples() {
		first, err := classifier.Classify(s)
		require.NoError(t, err)
		second, err := classifier.Classify(s)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestClassifySeparatesObviousCases(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(trainedFixture(t).Pair)
	require.NoError(t, err)

	status, err := classifier.Classify(TelemetrySample{Latitude: 28.61, Longitude: 77.21, Altitude: 15, Speed: 20, DistanceToRestricted: 10})
	require.NoError(t, err)
	assert.Equal(t, StatusSuspicious, status)

	status, err = classifier.Classify(TelemetrySample{Latitude: 28.61, Longitude: 77.21, Altitude: 85, Speed: 4, DistanceToRestricted: 170})
	require.NoError(t, err)
	assert.Equal(t, StatusNormal, status)
}

func TestClassifyConcurrentCallersAgree(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(trainedFixture(t).Pair)
	require.NoError(t, err)
	sample := fixtureSamples()[0]
	want, err := classifier.Classify(sample)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Status, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = classifier.Classify(sample)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNewClassifierRejectsIncompletePair(t *testing.T) {
	t.Parallel()

	_, err := NewClassifier(nil)
	assert.Error(t, err)
	_, err = NewClassifier(&ModelPair{})
	assert.Error(t, err)
}

func TestEvaluateScoresLabeledSamples(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(trainedFixture(t).Pair)
	require.NoError(t, err)

	data := imbalancedDataset(60, 20, 21)
	report, err := classifier.Evaluate(data)
	require.NoError(t, err)

	assert.Equal(t, len(data), report.Total)
	require.Len(t, report.Classes, 2)
	assert.Equal(t, 60, report.Classes[0].Support)
	assert.Equal(t, 20, report.Classes[1].Support)
	assert.GreaterOrEqual(t, report.Accuracy, 0.7)
}

func TestEvaluateRejectsUnknownLabel(t *testing.T) {
	t.Parallel()

	classifier, err := NewClassifier(trainedFixture(t).Pair)
	require.NoError(t, err)

	_, err = classifier.Evaluate([]LabeledSample{{Sample: fixtureSamples()[0], Label: "hostile"}})
	require.ErrorContains(t, err, "unknown label")
}
