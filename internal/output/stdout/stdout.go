package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/vettriage/internal/model"
	"github.com/crimson-sun/vettriage/internal/output"
)

// Output writes JSON-encoded prediction records to stdout.
type Output struct {
	mu        sync.Mutex
	enc       *json.Encoder
	verbosity output.Verbosity
}

// New creates a stdout Output with verbosity-aware field omission
// and optional pretty-printed JSON.
func New(verbosity output.Verbosity, pretty bool) *Output {
	return NewWriter(os.Stdout, verbosity, pretty)
}

// NewWriter is New for an arbitrary writer.
func NewWriter(w io.Writer, verbosity output.Verbosity, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc, verbosity: verbosity}
}

func (o *Output) Write(_ context.Context, rec model.PredictionRecord) error {
	formatted := output.FormatRecord(rec, o.verbosity)
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(formatted); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
