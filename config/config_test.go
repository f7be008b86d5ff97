package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "models", cfg.Artifacts.Dir)
	assert.Equal(t, "drone_activity_dataset.csv", cfg.Dataset)
	assert.Equal(t, 25*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 300*time.Second, cfg.Monitor.Cooldown)
	assert.Equal(t, "5000", cfg.Monitor.HTTPPort)
	assert.Empty(t, cfg.Monitor.DetectionsPath, "detection log is off unless configured")
	assert.Equal(t, int64(42), cfg.Training.Seed)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, 200, cfg.Training.Boost.NEstimators)
	assert.Equal(t, 5, cfg.Training.Boost.MaxDepth)
	assert.Equal(t, 0.1, cfg.Training.Boost.LearningRate)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
dataset: data/telemetry.db
artifacts:
  dir: out/models
training:
  seed: 7
  boost:
    nEstimators: 50
monitor:
  pollInterval: 5s
  cooldown: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/telemetry.db", cfg.Dataset)
	assert.Equal(t, "out/models", cfg.Artifacts.Dir)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 50, cfg.Training.Boost.NEstimators)
	assert.Equal(t, 5, cfg.Training.Boost.MaxDepth, "fields absent from the file keep their defaults")
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.Cooldown)
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := writeConfig(t, "artifacts:\n  dir: from-file\n")
	t.Setenv("DRONE_ARTIFACT_DIR", "from-env")
	t.Setenv("DRONE_POLL_INTERVAL", "10")
	t.Setenv("DRONE_ALERT_COOLDOWN", "90s")
	t.Setenv("DRONE_SIMULATOR_SEED", "99")
	t.Setenv("DRONE_DETECTIONS_PATH", "var/detections.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Artifacts.Dir)
	assert.Equal(t, 10*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.Monitor.Cooldown)
	assert.Equal(t, int64(99), cfg.Monitor.Seed)
	assert.Equal(t, "var/detections.json", cfg.Monitor.DetectionsPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "monitor: [not, a, map]\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "training:\n  testSize: 1.5\n"))
	require.ErrorContains(t, err, "test size")

	_, err = Load(writeConfig(t, "monitor:\n  pollInterval: 0s\n"))
	require.ErrorContains(t, err, "poll interval")
}

func TestTwilioCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "token")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550001111")
	t.Setenv("ALERT_TO_NUMBER", "")

	creds := TwilioCredentials()
	assert.Equal(t, "AC123", creds.AccountSID)
	assert.Equal(t, "+15550001111", creds.From)
	assert.False(t, creds.Complete())
}
