package db

import (
	"path/filepath"
	"testing"

	"drone-activity-classifier/drone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteClientRoundTrip(t *testing.T) {
	t.Parallel()

	client, err := NewSQLiteClient(filepath.Join(t.TempDir(), "nested", "telemetry.db"))
	require.NoError(t, err)
	defer client.Close()

	data := drone.SyntheticDataset(25, 0.2, 4)
	require.NoError(t, client.StoreLabeledSamples(data))

	got, err := client.GetLabeledSamples()
	require.NoError(t, err)
	assert.Equal(t, data, got)

}

func TestReplaceLabeledSamplesDropsExistingRows(t *testing.T) {
	t.Parallel()

	client, err := NewSQLiteClient(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.StoreLabeledSamples(drone.SyntheticDataset(10, 0.5, 1)))
	require.NoError(t, client.StoreLabeledSamples(drone.SyntheticDataset(10, 0.5, 2)))
	got, err := client.GetLabeledSamples()
	require.NoError(t, err)
	assert.Len(t, got, 20, "store appends")

	replacement := drone.SyntheticDataset(7, 0.3, 3)
	require.NoError(t, client.ReplaceLabeledSamples(replacement))
	got, err = client.GetLabeledSamples()
	require.NoError(t, err)
	assert.Equal(t, replacement, got)

	require.NoError(t, client.ReplaceLabeledSamples(nil))
	got, err = client.GetLabeledSamples()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewSQLiteClientReopensExistingDatabase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "telemetry.db")
	first, err := NewSQLiteClient(path)
	require.NoError(t, err)
	require.NoError(t, first.StoreLabeledSamples(drone.SyntheticDataset(3, 0, 1)))
	require.NoError(t, first.Close())

	second, err := NewSQLiteClient(path)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.GetLabeledSamples()
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
