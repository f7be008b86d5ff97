package detections

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"drone-activity-classifier/drone"
	"drone-activity-classifier/monitor"
	"drone-activity-classifier/utils"

	"github.com/google/uuid"
)

// Detection is a stored Suspicious reading.
type Detection struct {
	ID                   string    `json:"id"`
	Timestamp            time.Time `json:"timestamp"`
	Latitude             float64   `json:"latitude"`
	Longitude            float64   `json:"longitude"`
	Geohash              string    `json:"geohash"`
	Altitude             float64   `json:"altitude"`
	Speed                float64   `json:"speed"`
	DistanceToRestricted float64   `json:"distanceToRestricted"`
	Alert                string    `json:"alert"`
	ModelVersion         string    `json:"modelVersion,omitempty"`
}

// Store appends Suspicious readings to a JSON file. It is a monitor.Display;
// Normal readings are ignored.
type Store struct {
	mu           sync.RWMutex
	path         string
	modelVersion string
}

// NewStore returns a store writing to path, tagging entries with modelVersion.
func NewStore(path, modelVersion string) *Store {
	return &Store{path: path, modelVersion: modelVersion}
}

// loadInternal reads the file without locking
func (s *Store) loadInternal() ([]Detection, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Detection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading detections file: %w", err)
	}

	if len(data) == 0 {
		return []Detection{}, nil
	}

	var detections []Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return nil, fmt.Errorf("error unmarshaling detections: %w", err)
	}

	return detections, nil
}

// Load returns every stored detection, oldest first.
func (s *Store) Load() ([]Detection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadInternal()
}

// Show records r when it is Suspicious.
func (s *Store) Show(_ context.Context, r monitor.Reading) error {
	if r.Status != drone.StatusSuspicious {
		return nil
	}
	return s.Save(Detection{
		Timestamp:            r.Timestamp,
		Latitude:             r.Sample.Latitude,
		Longitude:            r.Sample.Longitude,
		Geohash:              r.Geohash,
		Altitude:             r.Sample.Altitude,
		Speed:                r.Sample.Speed,
		DistanceToRestricted: r.Sample.DistanceToRestricted,
		Alert:                r.Alert,
	})
}

// Save appends detection, filling in ID, timestamp and model version when unset.
func (s *Store) Save(detection Detection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	detections, err := s.loadInternal()
	if err != nil {
		return err
	}

	if detection.ID == "" {
		detection.ID = uuid.NewString()
	}
	if detection.Timestamp.IsZero() {
		detection.Timestamp = time.Now()
	}
	if detection.ModelVersion == "" {
		detection.ModelVersion = s.modelVersion
	}

	detections = append(detections, detection)

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(detections, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling detections: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing detections file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("error replacing detections file: %w", err)
	}

	return nil
}
