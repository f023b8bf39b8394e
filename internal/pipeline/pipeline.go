// Package pipeline scores a stream of cases from a Source and hands the
// resulting prediction records to an output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

const defaultChunkSize = 256

// Predictor scores one case. *engine.Engine satisfies it.
type Predictor interface {
	Predict(symptoms []string, attrs model.Attributes) model.Result
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many cases are scored concurrently. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithChunkSize sets how many cases are read before a scoring round. Records
// are written in input order within and across chunks. Default: 256.
func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunk = n
		}
	}
}

// Summary counts what a Run did.
type Summary struct {
	Read      int           `json:"read"`
	Predicted int           `json:"predicted"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration_ns"`
}

// Pipeline connects a source, a predictor and an output.
type Pipeline struct {
	source    Source
	predictor Predictor
	output    output.Output
	workers   int
	chunk     int
}

// New creates a Pipeline from the given components.
func New(src Source, pr Predictor, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    src,
		predictor: pr,
		output:    out,
		workers:   runtime.GOMAXPROCS(0),
		chunk:     defaultChunkSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drains the source. Malformed rows are logged and skipped; failed
// predictions are written like any other record. Run stops at the first
// source I/O error, output error or context cancellation.
func (p *Pipeline) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	defer func() { sum.Duration = time.Since(start) }()

	batch := make([]Item, 0, p.chunk)
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		it, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if errors.Is(err, ErrBadRow) {
				sum.Skipped++
				slog.Warn("skipping malformed row", "line", it.Line, "error", err)
				continue
			}
			return sum, fmt.Errorf("pipeline source: %w", err)
		}
		sum.Read++
		batch = append(batch, it)
		if len(batch) == p.chunk {
			if err := p.flush(ctx, batch, &sum); err != nil {
				return sum, err
			}
			batch = batch[:0]
		}
	}
	if err := p.flush(ctx, batch, &sum); err != nil {
		return sum, err
	}
	return sum, nil
}

// flush scores items concurrently, then writes them in order.
func (p *Pipeline) flush(ctx context.Context, items []Item, sum *Summary) error {
	if len(items) == 0 {
		return nil
	}
	recs := make([]model.PredictionRecord, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs[i] = Score(p.predictor, it.ID, it.Request)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, rec := range recs {
		if rec.Result.OK() {
			sum.Predicted++
		} else {
			sum.Failed++
		}
		if err := p.output.Write(ctx, rec); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	return nil
}

// Close closes the source and the output.
func (p *Pipeline) Close() error {
	return errors.Join(p.source.Close(), p.output.Close())
}

// Score runs one prediction and wraps it in a record. An empty id gets a
// fresh UUID.
func Score(pr Predictor, id string, req engine.Request) model.PredictionRecord {
	if id == "" {
		id = uuid.NewString()
	}
	start := time.Now()
	res := pr.Predict(req.Symptoms, req.Attributes)
	return model.PredictionRecord{
		ID:         id,
		Timestamp:  start.UTC(),
		Symptoms:   req.Symptoms,
		Attributes: req.Attributes.WithDefaults(),
		Result:     res,
		Latency:    time.Since(start),
	}
}
