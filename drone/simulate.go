package drone

import (
	"context"
	"math/rand"
	"sync"
)

const (
	LabelNormal     = "normal"
	LabelSuspicious = "suspicious"
)

// Simulator produces random telemetry around a fixed point, standing in for
// a live drone feed.
type Simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	centerLat float64
	centerLon float64
}

// NewSimulator returns a simulator centred on New Delhi (28.6139, 77.2090).
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:       rand.New(rand.NewSource(seed)),
		centerLat: 28.6139,
		centerLon: 77.2090,
	}
}

// Next draws one sample: position within ±0.01° of the centre, altitude
// 5–100 m, speed 0–25 m/s, 1–200 m from the restricted zone.
func (s *Simulator) Next(ctx context.Context) (TelemetrySample, error) {
	if err := ctx.Err(); err != nil {
		return TelemetrySample{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return TelemetrySample{
		Latitude:             s.centerLat + uniform(s.rng, -0.01, 0.01),
		Longitude:            s.centerLon + uniform(s.rng, -0.01, 0.01),
		Altitude:             uniform(s.rng, 5, 100),
		Speed:                uniform(s.rng, 0, 25),
		DistanceToRestricted: uniform(s.rng, 1, 200),
	}, nil
}

// SyntheticDataset generates n labeled samples of which roughly
// suspiciousFraction are suspicious. Suspicious flights are low, fast and
// close to the restricted zone; normal flights are higher, slower and
// further away. The ranges overlap so the classes are not trivially separable.
func SyntheticDataset(n int, suspiciousFraction float64, seed int64) []LabeledSample {
	rng := rand.New(rand.NewSource(seed))
	nSuspicious := int(float64(n)*suspiciousFraction + 0.5)

	out := make([]LabeledSample, 0, n)
	for i := 0; i < n; i++ {
		sample := TelemetrySample{
			Latitude:  28.6139 + uniform(rng, -0.01, 0.01),
			Longitude: 77.2090 + uniform(rng, -0.01, 0.01),
		}
		label := LabelNormal
		if i < nSuspicious {
			label = LabelSuspicious
			sample.Altitude = uniform(rng, 5, 50)
			sample.Speed = uniform(rng, 10, 25)
			sample.DistanceToRestricted = uniform(rng, 0, 70)
		} else {
			sample.Altitude = uniform(rng, 30, 100)
			sample.Speed = uniform(rng, 0, 15)
			sample.DistanceToRestricted = uniform(rng, 50, 200)
		}
		out = append(out, LabeledSample{Sample: sample, Label: label})
	}

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
