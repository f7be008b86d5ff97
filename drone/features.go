package drone

// Derive computes the engineered feature vector for a sample. It is the only
// derivation used by both the trainer and the inference engine, so the two
// can never drift apart.
func Derive(s TelemetrySample) FeatureVector {
	return FeatureVector{
		s.Latitude,
		s.Longitude,
		s.Altitude,
		s.Speed,
		s.DistanceToRestricted,
		s.Speed / (s.Altitude + Epsilon),
		1 / (s.DistanceToRestricted + Epsilon),
		s.Altitude / (s.DistanceToRestricted + Epsilon),
		s.Speed * s.Speed,
		s.Altitude * s.Altitude,
	}
}

// DeriveAll applies Derive to every sample and returns the rows as slices.
func DeriveAll(samples []TelemetrySample) [][]float64 {
	rows := make([][]float64, len(samples))
	for i, s := range samples {
		rows[i] = Derive(s).Slice()
	}
	return rows
}
