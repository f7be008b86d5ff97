package drone

import (
	"errors"
	"fmt"
)

// ErrSingleClass is returned when the training data does not contain two classes.
var ErrSingleClass = errors.New("training data must contain exactly two classes")

// ArtifactMissingError reports a scaler or classifier file that is absent or unreadable.
type ArtifactMissingError struct {
	Path string
	Err  error
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("artifact %s missing or unreadable: %v", e.Path, e.Err)
}

func (e *ArtifactMissingError) Unwrap() error { return e.Err }

// SchemaMismatchError reports artifacts whose feature layout does not match
// the current FeatureVector, or a scaler/classifier pair from different runs.
type SchemaMismatchError struct {
	Artifact string
	Expected int
	Got      int
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema mismatch in %s: %s", e.Artifact, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s: expected %d features, got %d", e.Artifact, e.Expected, e.Got)
}

// InsufficientMinoritySamplesError reports a class too small for the oversampler's
// nearest-neighbour search.
type InsufficientMinoritySamplesError struct {
	Class    string
	Count    int
	Required int
}

func (e *InsufficientMinoritySamplesError) Error() string {
	return fmt.Sprintf("class %q has %d samples, oversampling needs at least %d", e.Class, e.Count, e.Required)
}
