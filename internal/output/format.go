package output

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/vettriage/internal/model"
)

// Verbosity controls how much of a record reaches an output.
type Verbosity int

const (
	// Minimal keeps disease, confidence, severity and urgency only.
	Minimal Verbosity = iota
	// Standard drops long-form disease descriptions.
	Standard
	// Full emits the record unchanged.
	Full
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	}
	return fmt.Sprintf("verbosity(%d)", int(v))
}

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	}
	return Standard, fmt.Errorf("output: unknown verbosity %q", s)
}

// FormatRecord returns a copy of rec with fields stripped according to verbosity.
// The prediction slice is copied so the caller's record is never mutated.
func FormatRecord(rec model.PredictionRecord, verbosity Verbosity) model.PredictionRecord {
	if verbosity >= Full {
		return rec
	}
	if verbosity == Minimal {
		rec.Latency = 0
	}
	if len(rec.Result.Predictions) == 0 {
		return rec
	}
	preds := make([]model.Prediction, len(rec.Result.Predictions))
	copy(preds, rec.Result.Predictions)
	for i := range preds {
		preds[i].Description = ""
		if verbosity == Minimal {
			preds[i].Recommendation = ""
		}
	}
	rec.Result.Predictions = preds
	return rec
}
