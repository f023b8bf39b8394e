// Package artifact persists a trained model together with the encoders and
// column order needed to reproduce its feature vectors.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/crimson-sun/vettriage/internal/engine/classifier"
	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/engine/forest"
)

// KindONNX marks an artifact whose classifier lives in a sibling ONNX file.
const KindONNX = "onnx"

// ErrArtifactLoad wraps every failure to read, parse or validate an artifact.
var ErrArtifactLoad = errors.New("artifact: load failed")

// ModelEnvelope holds exactly one classifier backend.
type ModelEnvelope struct {
	Kind     string         `json:"kind"`
	Forest   *forest.Forest `json:"forest,omitempty"`
	ONNXPath string         `json:"onnx_path,omitempty"`
}

// FeatureScore is one feature's importance.
type FeatureScore struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Summary records headline evaluation numbers from training.
type Summary struct {
	TrainAccuracy     float64        `json:"train_accuracy"`
	TestAccuracy      float64        `json:"test_accuracy"`
	TrainSamples      int            `json:"train_samples"`
	TestSamples       int            `json:"test_samples"`
	DroppedClasses    []string       `json:"dropped_classes,omitempty"`
	FeatureImportance []FeatureScore `json:"feature_importance,omitempty"`
}

// Artifact is a trained model package. Once loaded it is read-only.
type Artifact struct {
	Model          ModelEnvelope         `json:"model"`
	LabelEncoders  encoder.EncoderSet    `json:"label_encoders"`
	TargetEncoder  *encoder.LabelEncoder `json:"target_encoder"`
	FeatureColumns []string              `json:"feature_columns"`
	Classes        []string              `json:"classes"`
	ModelType      string                `json:"model_type"`
	TrainingDate   time.Time             `json:"training_date"`
	Metrics        *Summary              `json:"metrics,omitempty"`

	dir string
}

// Info is the externally visible description of a loaded model.
type Info struct {
	ModelType    string    `json:"model_type"`
	TrainingDate time.Time `json:"training_date"`
	Features     int       `json:"features"`
	Classes      int       `json:"classes"`
	Diseases     []string  `json:"available_diseases"`
}

// Info summarizes the artifact.
func (a *Artifact) Info() Info {
	return Info{
		ModelType:    a.ModelType,
		TrainingDate: a.TrainingDate,
		Features:     len(a.FeatureColumns),
		Classes:      len(a.Classes),
		Diseases:     slices.Clone(a.Classes),
	}
}

// Load opens, decodes and validates the artifact at path. The file is closed
// before Load returns, whatever the outcome.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactLoad, err)
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactLoad, path, err)
	}
	a.dir = filepath.Dir(path)
	return a, nil
}

// Decode reads and validates an artifact from r.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that the artifact is internally consistent.
func (a *Artifact) Validate() error {
	if len(a.FeatureColumns) == 0 {
		return fmt.Errorf("no feature columns")
	}
	if a.TargetEncoder == nil || a.TargetEncoder.Len() == 0 {
		return fmt.Errorf("missing target encoder")
	}
	if !slices.Equal(a.Classes, a.TargetEncoder.Classes()) {
		return fmt.Errorf("classes do not match target encoder")
	}
	switch a.Model.Kind {
	case forest.Kind:
		if a.Model.Forest == nil {
			return fmt.Errorf("random_forest model has no trees")
		}
		if err := a.Model.Forest.Validate(); err != nil {
			return err
		}
		if n := a.Model.Forest.NumClasses(); n != len(a.Classes) {
			return fmt.Errorf("model has %d classes, artifact lists %d", n, len(a.Classes))
		}
		if n := a.Model.Forest.NFeatures; n != len(a.FeatureColumns) {
			return fmt.Errorf("model expects %d features, artifact lists %d", n, len(a.FeatureColumns))
		}
	case KindONNX:
		if a.Model.ONNXPath == "" {
			return fmt.Errorf("onnx model has no path")
		}
	default:
		return fmt.Errorf("unknown model kind %q", a.Model.Kind)
	}
	return nil
}

// Encoder returns a FeatureEncoder using the artifact's encoders and column
// order.
func (a *Artifact) Encoder() *encoder.FeatureEncoder {
	return encoder.NewFeatureEncoder(a.LabelEncoders, a.FeatureColumns)
}

// Classifier materializes the model. ONNX paths are resolved relative to the
// artifact's directory.
func (a *Artifact) Classifier() (classifier.Classifier, error) {
	switch a.Model.Kind {
	case forest.Kind:
		return a.Model.Forest, nil
	case KindONNX:
		p := a.Model.ONNXPath
		if !filepath.IsAbs(p) {
			p = filepath.Join(a.dir, p)
		}
		c, err := classifier.NewONNX(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArtifactLoad, err)
		}
		if c.NumClasses() != len(a.Classes) {
			c.Close()
			return nil, fmt.Errorf("%w: onnx model has %d classes, artifact lists %d",
				ErrArtifactLoad, c.NumClasses(), len(a.Classes))
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: unknown model kind %q", ErrArtifactLoad, a.Model.Kind)
}

// Save writes the artifact to path atomically and records path's directory
// for resolving relative ONNX paths.
func (a *Artifact) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("artifact: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	a.dir = dir
	return nil
}

// InfoPath returns the sibling "_info.txt" path for an artifact path.
func InfoPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_info.txt"
}

// WriteInfo writes a human-readable summary next to the artifact.
func (a *Artifact) WriteInfo(path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Animal Disease Prediction Model\n")
	fmt.Fprintf(&b, "================================\n")
	fmt.Fprintf(&b, "Training Date: %s\n", a.TrainingDate.Format(time.DateTime))
	fmt.Fprintf(&b, "Model Type: %s\n", a.ModelType)
	fmt.Fprintf(&b, "Features: %d\n", len(a.FeatureColumns))
	fmt.Fprintf(&b, "Classes: %d\n", len(a.Classes))
	fmt.Fprintf(&b, "Disease Classes: %s\n", strings.Join(a.Classes, ", "))
	if m := a.Metrics; m != nil {
		fmt.Fprintf(&b, "Train Accuracy: %s\n", classifier.FormatConfidenceDetailed(m.TrainAccuracy))
		fmt.Fprintf(&b, "Test Accuracy: %s\n", classifier.FormatConfidenceDetailed(m.TestAccuracy))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("artifact: write info: %w", err)
	}
	return nil
}
