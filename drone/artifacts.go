package drone

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// ScalerFile and ClassifierFile are the artifact names inside the artifacts directory.
	ScalerFile     = "scaler.json"
	ClassifierFile = "classifier.json"

	artifactFormat = 1
)

// ModelPair is a fitted scaler and classifier from the same training run.
// It is immutable once built and safe to share between goroutines.
type ModelPair struct {
	Version   string
	TrainedAt time.Time
	Scaler    *FeatureScaler
	Model     *BoostedClassifier
	Encoder   *LabelEncoder
}

// Info summarises the pair for display.
func (p *ModelPair) Info() ModelInfo {
	return ModelInfo{
		Version:      p.Version,
		TrainedAt:    p.TrainedAt,
		Classes:      append([]string(nil), p.Encoder.Classes...),
		FeatureNames: FeatureNames[:],
		Estimators:   len(p.Model.Trees),
	}
}

type scalerArtifact struct {
	Format       int            `json:"format"`
	Version      string         `json:"version"`
	TrainedAt    time.Time      `json:"trainedAt"`
	FeatureCount int            `json:"featureCount"`
	FeatureNames []string       `json:"featureNames"`
	Scaler       *FeatureScaler `json:"scaler"`
}

type classifierArtifact struct {
	Format       int                `json:"format"`
	Version      string             `json:"version"`
	TrainedAt    time.Time          `json:"trainedAt"`
	FeatureCount int                `json:"featureCount"`
	Classes      []string           `json:"classes"`
	Model        *BoostedClassifier `json:"model"`
}

// SaveModelPair writes both artifacts into dir. Each file is written to a
// temporary path first and nothing is renamed into place until both writes
// have succeeded.
func SaveModelPair(dir string, pair *ModelPair) error {
	if pair == nil || pair.Scaler == nil || pair.Model == nil || pair.Encoder == nil {
		return errors.New("incomplete model pair")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	scaler := scalerArtifact{
		Format:       artifactFormat,
		Version:      pair.Version,
		TrainedAt:    pair.TrainedAt,
		FeatureCount: pair.Scaler.FeatureCount(),
		FeatureNames: FeatureNames[:],
		Scaler:       pair.Scaler,
	}
	classifier := classifierArtifact{
		Format:       artifactFormat,
		Version:      pair.Version,
		TrainedAt:    pair.TrainedAt,
		FeatureCount: pair.Model.FeatureCount,
		Classes:      pair.Encoder.Classes,
		Model:        pair.Model,
	}

	files := []struct {
		path    string
		payload any
	}{
		{filepath.Join(dir, ScalerFile), scaler},
		{filepath.Join(dir, ClassifierFile), classifier},
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			os.Remove(p)
		}
	}

	for _, f := range files {
		data, err := json.MarshalIndent(f.payload, "", "  ")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to marshal %s: %w", filepath.Base(f.path), err)
		}
		tempPath := f.path + ".tmp"
		if err := os.WriteFile(tempPath, data, 0644); err != nil {
			cleanup()
			return fmt.Errorf("failed to write %s: %w", filepath.Base(f.path), err)
		}
		written = append(written, tempPath)
	}

	for _, f := range files {
		if err := os.Rename(f.path+".tmp", f.path); err != nil {
			cleanup()
			return fmt.Errorf("failed to rename %s: %w", filepath.Base(f.path), err)
		}
	}

	return nil
}

// LoadModelPair reads and validates the artifact pair in dir. Absent or
// unparsable files yield *ArtifactMissingError; a feature layout other than
// FeatureNames, or artifacts from different training runs, yield
// *SchemaMismatchError.
func LoadModelPair(dir string) (*ModelPair, error) {
	scalerPath := filepath.Join(dir, ScalerFile)
	classifierPath := filepath.Join(dir, ClassifierFile)

	var scaler scalerArtifact
	if err := readArtifact(scalerPath, &scaler); err != nil {
		return nil, err
	}
	var classifier classifierArtifact
	if err := readArtifact(classifierPath, &classifier); err != nil {
		return nil, err
	}

	if err := checkScaler(&scaler); err != nil {
		return nil, err
	}
	if err := checkClassifier(&classifier); err != nil {
		return nil, err
	}

	if scaler.Version != classifier.Version {
		return nil, &SchemaMismatchError{
			Artifact: "model pair",
			Reason:   fmt.Sprintf("scaler version %q does not match classifier version %q", scaler.Version, classifier.Version),
		}
	}

	return &ModelPair{
		Version:   classifier.Version,
		TrainedAt: classifier.TrainedAt,
		Scaler:    scaler.Scaler,
		Model:     classifier.Model,
		Encoder:   newEncoderFromClasses(classifier.Classes),
	}, nil
}

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ArtifactMissingError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ArtifactMissingError{Path: path, Err: fmt.Errorf("unable to parse: %w", err)}
	}
	return nil
}

func checkScaler(a *scalerArtifact) error {
	if a.Format != artifactFormat {
		return &SchemaMismatchError{Artifact: ScalerFile, Reason: fmt.Sprintf("unsupported format %d", a.Format)}
	}
	if a.Scaler == nil {
		return &SchemaMismatchError{Artifact: ScalerFile, Reason: "no scaler parameters"}
	}
	if a.FeatureCount != FeatureCount {
		return &SchemaMismatchError{Artifact: ScalerFile, Expected: FeatureCount, Got: a.FeatureCount}
	}
	if got := a.Scaler.FeatureCount(); got != FeatureCount {
		return &SchemaMismatchError{Artifact: ScalerFile, Expected: FeatureCount, Got: got}
	}
	if len(a.FeatureNames) != FeatureCount {
		return &SchemaMismatchError{Artifact: ScalerFile, Expected: FeatureCount, Got: len(a.FeatureNames)}
	}
	for i, name := range a.FeatureNames {
		if name != FeatureNames[i] {
			return &SchemaMismatchError{
				Artifact: ScalerFile,
				Reason:   fmt.Sprintf("feature %d is %q, expected %q", i, name, FeatureNames[i]),
			}
		}
	}
	if err := a.Scaler.validate(); err != nil {
		return &SchemaMismatchError{Artifact: ScalerFile, Reason: err.Error()}
	}
	return nil
}

func checkClassifier(a *classifierArtifact) error {
	if a.Format != artifactFormat {
		return &SchemaMismatchError{Artifact: ClassifierFile, Reason: fmt.Sprintf("unsupported format %d", a.Format)}
	}
	if a.Model == nil {
		return &SchemaMismatchError{Artifact: ClassifierFile, Reason: "no model"}
	}
	if a.FeatureCount != FeatureCount {
		return &SchemaMismatchError{Artifact: ClassifierFile, Expected: FeatureCount, Got: a.FeatureCount}
	}
	if a.Model.FeatureCount != FeatureCount {
		return &SchemaMismatchError{Artifact: ClassifierFile, Expected: FeatureCount, Got: a.Model.FeatureCount}
	}
	if len(a.Classes) != 2 {
		return &SchemaMismatchError{Artifact: ClassifierFile, Reason: fmt.Sprintf("expected 2 classes, got %d", len(a.Classes))}
	}
	if err := a.Model.validate(); err != nil {
		return &SchemaMismatchError{Artifact: ClassifierFile, Reason: err.Error()}
	}
	return nil
}
