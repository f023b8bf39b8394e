package engine

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/crimson-sun/vettriage/internal/engine/artifact"
	"github.com/crimson-sun/vettriage/internal/engine/classifier"
	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/engine/severity"
	"github.com/crimson-sun/vettriage/internal/logging"
	"github.com/crimson-sun/vettriage/internal/model"
)

// DefaultTopK is the number of ranked candidates returned per prediction.
const DefaultTopK = 3

// Request is one case to score.
type Request struct {
	Symptoms   []string         `json:"symptoms"`
	Attributes model.Attributes `json:"attributes"`
}

// Engine orchestrates the encode → classify → rank → enrich pipeline.
// It is read-only after construction and safe for concurrent use.
type Engine struct {
	art        *artifact.Artifact
	encoder    *encoder.FeatureEncoder
	classifier classifier.Classifier
	catalog    *severity.Catalog
	topK       int
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets how many candidates Predict returns. Values below 1 are ignored.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// New creates an Engine from a loaded artifact, its classifier and a severity
// catalog. A nil catalog uses severity.Default().
func New(art *artifact.Artifact, cls classifier.Classifier, cat *severity.Catalog, opts ...Option) (*Engine, error) {
	if art == nil || cls == nil {
		return nil, fmt.Errorf("engine: artifact and classifier are required")
	}
	if n := cls.NumClasses(); n != len(art.Classes) {
		return nil, fmt.Errorf("engine: classifier has %d classes, artifact lists %d", n, len(art.Classes))
	}
	if cat == nil {
		cat = severity.Default()
	}
	e := &Engine{
		art:        art,
		encoder:    art.Encoder(),
		classifier: cls,
		catalog:    cat,
		topK:       DefaultTopK,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Load reads the artifact and catalog from disk and builds an Engine. A
// missing catalog file falls back to the built-in catalog.
func Load(artifactPath, catalogPath string, opts ...Option) (*Engine, error) {
	art, err := artifact.Load(artifactPath)
	if err != nil {
		return nil, err
	}
	cls, err := art.Classifier()
	if err != nil {
		return nil, err
	}

	cat, err := LoadCatalog(catalogPath)
	if err != nil {
		closeClassifier(cls)
		return nil, err
	}

	eng, err := New(art, cls, cat, opts...)
	if err != nil {
		closeClassifier(cls)
		return nil, err
	}
	slog.Info("engine loaded",
		logging.ModelTypeKey, art.ModelType,
		logging.FeaturesKey, len(art.FeatureColumns),
		logging.ClassesKey, len(art.Classes),
		"catalog_diseases", cat.Len(),
	)
	return eng, nil
}

// LoadCatalog reads the severity catalog at path. An empty path or a missing
// file yields the built-in catalog.
func LoadCatalog(path string) (*severity.Catalog, error) {
	if path == "" {
		return severity.Default(), nil
	}
	cat, err := severity.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("severity catalog not found, using built-in catalog", logging.PathKey, path)
		return severity.Default(), nil
	}
	return cat, err
}

func closeClassifier(cls classifier.Classifier) {
	if c, ok := cls.(io.Closer); ok {
		c.Close()
	}
}

// Predict scores one case. It never returns a Go error and never panics:
// failures come back as a Result carrying an error kind.
func (e *Engine) Predict(symptoms []string, attrs model.Attributes) model.Result {
	features, err := e.encoder.Encode(symptoms, attrs)
	if err != nil {
		return model.Failed(model.KindFeatureEncoding, err.Error())
	}

	probs, err := e.predictProba(features)
	if err != nil {
		slog.Error("classifier invocation failed", "error", err)
		return model.Failed(model.KindClassifierInvocation, err.Error())
	}

	ranked := classifier.Rank(probs, e.topK)
	preds := make([]model.Prediction, 0, len(ranked))
	for _, r := range ranked {
		disease := e.art.Classes[r.Index]
		info := e.catalog.Lookup(disease)
		preds = append(preds, model.Prediction{
			Disease:        disease,
			Probability:    r.Probability,
			Confidence:     classifier.FormatConfidence(r.Probability),
			Severity:       info.Severity,
			Urgency:        info.Urgency,
			Recommendation: info.Recommendation,
			Description:    info.Description,
		})
	}
	return model.Result{Predictions: preds}
}

// predictProba calls the classifier, converting panics and malformed output
// into errors.
func (e *Engine) predictProba(features []float64) (probs []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			probs, err = nil, fmt.Errorf("classifier panic: %v", r)
		}
	}()
	probs, err = e.classifier.PredictProba(features)
	if err != nil {
		return nil, err
	}
	if err := classifier.CheckShape(probs, len(e.art.Classes)); err != nil {
		return nil, err
	}
	return probs, nil
}

// PredictBatch scores each request independently; one failure does not
// affect the others.
func (e *Engine) PredictBatch(reqs []Request) []model.Result {
	out := make([]model.Result, len(reqs))
	for i, r := range reqs {
		out[i] = e.Predict(r.Symptoms, r.Attributes)
	}
	return out
}

// Info describes the loaded model.
func (e *Engine) Info() artifact.Info {
	return e.art.Info()
}

// Catalog returns the severity catalog joined onto predictions.
func (e *Engine) Catalog() *severity.Catalog {
	return e.catalog
}

// Close releases classifier resources.
func (e *Engine) Close() error {
	if c, ok := e.classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
