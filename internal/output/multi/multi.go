package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

// Multi fans prediction records out to several outputs. A failing output
// does not stop delivery to the ones after it.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs. Nil entries are skipped so
// callers can pass optional sinks unconditionally.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len reports how many outputs are attached.
func (m *Multi) Len() int { return len(m.outputs) }

// Write delivers rec to every output and joins their errors.
func (m *Multi) Write(ctx context.Context, rec model.PredictionRecord) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
