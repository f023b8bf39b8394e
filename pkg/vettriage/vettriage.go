package vettriage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/model"
)

const unavailableMessage = "Disease prediction model is not available"

// Predictor serves disease predictions from a trained model artifact and a
// severity catalog. Safe for concurrent use.
type Predictor struct {
	opts options

	once   sync.Once
	eng    *engine.Engine
	err    error
	loaded atomic.Bool
}

// New creates a Predictor and loads the model immediately.
func New(opts ...Option) (*Predictor, error) {
	p := NewLazy(opts...)
	if _, err := p.Get(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewLazy creates a Predictor that loads the model on first use. A load
// failure is remembered: every later prediction reports it as an
// engine_unavailable response without retrying.
func NewLazy(opts ...Option) *Predictor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Predictor{opts: o}
}

// Get returns the shared engine, loading it on the first call. Concurrent
// first callers block until the single load finishes.
func (p *Predictor) Get() (*engine.Engine, error) {
	p.once.Do(func() {
		artifactPath, catalogPath := resolvePaths(p.opts)
		var engOpts []engine.Option
		if p.opts.topK > 0 {
			engOpts = append(engOpts, engine.WithTopK(p.opts.topK))
		}
		eng, err := engine.Load(artifactPath, catalogPath, engOpts...)
		if err != nil {
			p.err = fmt.Errorf("vettriage: %w", err)
			return
		}
		p.eng = eng
		p.loaded.Store(true)
	})
	return p.eng, p.err
}

// Loaded reports whether the model has been loaded successfully. It never
// triggers a load.
func (p *Predictor) Loaded() bool {
	return p.loaded.Load()
}

// Predict scores one case. Failures are reported in the response, never as
// a Go error.
func (p *Predictor) Predict(req Request) Response {
	eng, err := p.Get()
	if err != nil {
		return responseFromResult(model.Failed(model.KindEngineUnavailable, unavailableMessage))
	}
	return responseFromResult(eng.Predict(req.Symptoms, req.attributes()))
}

// PredictBatch scores each request independently.
func (p *Predictor) PredictBatch(reqs []Request) []Response {
	out := make([]Response, len(reqs))
	eng, err := p.Get()
	for i, r := range reqs {
		if err != nil {
			out[i] = responseFromResult(model.Failed(model.KindEngineUnavailable, unavailableMessage))
			continue
		}
		out[i] = responseFromResult(eng.Predict(r.Symptoms, r.attributes()))
	}
	return out
}

// Info describes the loaded model.
func (p *Predictor) Info() (ModelInfo, error) {
	eng, err := p.Get()
	if err != nil {
		return ModelInfo{}, err
	}
	info := eng.Info()
	return ModelInfo{
		ModelType: info.ModelType,
		Trained:   info.TrainingDate.Format(time.RFC3339),
		Features:  info.Features,
		Diseases:  info.Diseases,
	}, nil
}

// Disease looks up a disease in the severity catalog. Unknown diseases get
// the catalog's default advice.
func (p *Predictor) Disease(name string) (DiseaseInfo, error) {
	eng, err := p.Get()
	if err != nil {
		return DiseaseInfo{}, err
	}
	r := eng.Catalog().Lookup(name)
	return DiseaseInfo{
		Disease:        name,
		Severity:       string(r.Severity),
		Urgency:        string(r.Urgency),
		Recommendation: r.Recommendation,
		Description:    r.Description,
		TypicalAnimals: r.TypicalAnimals,
	}, nil
}

// Close releases model resources. Predictions after Close are undefined.
func (p *Predictor) Close() error {
	if !p.loaded.Load() {
		return nil
	}
	return p.eng.Close()
}
