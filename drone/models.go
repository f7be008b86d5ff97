package drone

import "time"

// Epsilon guards every ratio in the engineered features against division by zero.
const Epsilon = 1e-6

// FeatureCount is the width of a FeatureVector.
const FeatureCount = 10

// FeatureNames fixes the column order shared by training and inference.
var FeatureNames = [FeatureCount]string{
	"lat",
	"lon",
	"altitude",
	"speed",
	"distance_to_restricted",
	"speed_altitude_ratio",
	"proximity_score",
	"altitude_proximity_ratio",
	"speed_squared",
	"altitude_squared",
}

// TelemetrySample is a single reading from a drone.
type TelemetrySample struct {
	Latitude             float64 `json:"lat"`
	Longitude            float64 `json:"lon"`
	Altitude             float64 `json:"altitude"`             // meters
	Speed                float64 `json:"speed"`                // m/s
	DistanceToRestricted float64 `json:"distanceToRestricted"` // meters
}

// FeatureVector is a TelemetrySample plus the engineered fields, in FeatureNames order.
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// LabeledSample pairs a reading with its string category from the training data.
type LabeledSample struct {
	Sample TelemetrySample
	Label  string
}

// Status is the binary outcome of the Inference Engine.
type Status int

const (
	StatusNormal Status = iota
	StatusSuspicious
)

func (s Status) String() string {
	if s == StatusSuspicious {
		return "Suspicious"
	}
	return "Normal"
}

// MarshalText renders the status as "Normal" or "Suspicious" in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ModelInfo describes a loaded artifact pair.
type ModelInfo struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trainedAt"`
	Classes      []string  `json:"classes"`
	FeatureNames []string  `json:"featureNames"`
	Estimators   int       `json:"estimators"`
}
