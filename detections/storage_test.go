package detections

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"drone-activity-classifier/drone"
	"drone-activity-classifier/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(status drone.Status, speed float64) monitor.Reading {
	return monitor.Reading{
		Sample:    drone.TelemetrySample{Latitude: 28.61, Longitude: 77.21, Altitude: 12, Speed: speed, DistanceToRestricted: 3},
		Status:    status,
		Geohash:   "ttnfv2u",
		Alert:     "sent",
		Timestamp: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "detections.json"), "v1")

	detections, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestShowStoresOnlySuspiciousReadings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "detections.json")
	store := NewStore(path, "pair-123")

	require.NoError(t, store.Show(t.Context(), reading(drone.StatusNormal, 3)))
	require.NoError(t, store.Show(t.Context(), reading(drone.StatusSuspicious, 22)))
	require.NoError(t, store.Show(t.Context(), reading(drone.StatusSuspicious, 24)))

	detections, err := store.Load()
	require.NoError(t, err)
	require.Len(t, detections, 2)

	first := detections[0]
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, detections[1].ID)
	assert.Equal(t, 22.0, first.Speed)
	assert.Equal(t, "ttnfv2u", first.Geohash)
	assert.Equal(t, "pair-123", first.ModelVersion)
	assert.Equal(t, "sent", first.Alert)
	assert.Equal(t, 24.0, detections[1].Speed)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewStore(path, "").Load()
	require.Error(t, err)
}
