package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"drone-activity-classifier/drone"
	"drone-activity-classifier/sms"
	"drone-activity-classifier/utils"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration. Values are resolved in order:
// built-in defaults, then the optional YAML file, then environment variables.
type Config struct {
	Dataset   string            `yaml:"dataset"`
	Artifacts ArtifactsConfig   `yaml:"artifacts"`
	Training  drone.TrainConfig `yaml:"training"`
	Monitor   MonitorConfig     `yaml:"monitor"`
}

// ArtifactsConfig locates the persisted scaler/classifier pair.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// MonitorConfig represents the live monitoring settings
type MonitorConfig struct {
	PollInterval   time.Duration `yaml:"pollInterval"`
	Cooldown       time.Duration `yaml:"cooldown"`
	HTTPPort       string        `yaml:"httpPort"`
	Seed           int64         `yaml:"seed"`
	DetectionsPath string        `yaml:"detectionsPath"` // empty disables the detection log
}

// Default returns the configuration used when no file or environment is given.
func Default() Config {
	return Config{
		Dataset:   "drone_activity_dataset.csv",
		Artifacts: ArtifactsConfig{Dir: "models"},
		Training:  drone.DefaultTrainConfig(),
		Monitor: MonitorConfig{
			PollInterval:   25 * time.Second,
			Cooldown:       300 * time.Second,
			HTTPPort:       "5000",
			Seed:           time.Now().UnixNano(),
		},
	}
}

// Load reads path (when non-empty) over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Dataset = utils.GetEnv("DRONE_DATASET_PATH", cfg.Dataset)
	cfg.Artifacts.Dir = utils.GetEnv("DRONE_ARTIFACT_DIR", cfg.Artifacts.Dir)
	cfg.Monitor.PollInterval = utils.GetEnvDuration("DRONE_POLL_INTERVAL", cfg.Monitor.PollInterval)
	cfg.Monitor.Cooldown = utils.GetEnvDuration("DRONE_ALERT_COOLDOWN", cfg.Monitor.Cooldown)
	cfg.Monitor.HTTPPort = utils.GetEnv("DRONE_HTTP_PORT", cfg.Monitor.HTTPPort)
	cfg.Monitor.DetectionsPath = utils.GetEnv("DRONE_DETECTIONS_PATH", cfg.Monitor.DetectionsPath)
	if seed, err := strconv.ParseInt(utils.GetEnv("DRONE_SIMULATOR_SEED", ""), 10, 64); err == nil {
		cfg.Monitor.Seed = seed
	}
}

// Validate rejects settings the trainer or monitor cannot run with.
func (c Config) Validate() error {
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts directory must be set")
	}
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Monitor.PollInterval)
	}
	if c.Monitor.Cooldown < 0 {
		return fmt.Errorf("alert cooldown must not be negative, got %s", c.Monitor.Cooldown)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training test size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Training.KNeighbors < 1 {
		return fmt.Errorf("training kNeighbors must be at least 1, got %d", c.Training.KNeighbors)
	}
	if c.Training.Boost.NEstimators < 1 || c.Training.Boost.MaxDepth < 1 {
		return fmt.Errorf("boosting needs at least one estimator of depth 1")
	}
	return nil
}

// TwilioCredentials reads the SMS gateway settings. They are only ever taken
// from the environment.
func TwilioCredentials() sms.Credentials {
	return sms.Credentials{
		AccountSID: utils.GetEnv("TWILIO_ACCOUNT_SID", ""),
		AuthToken:  utils.GetEnv("TWILIO_AUTH_TOKEN", ""),
		From:       utils.GetEnv("TWILIO_FROM_NUMBER", ""),
		To:         utils.GetEnv("ALERT_TO_NUMBER", ""),
	}
}
