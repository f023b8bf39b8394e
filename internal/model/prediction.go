package model

import (
	"encoding/json"
	"time"
)

// Prediction is one ranked disease candidate joined with its catalog entry.
type Prediction struct {
	Disease        string   `json:"disease"`
	Probability    float64  `json:"-"`
	Confidence     string   `json:"confidence"` // "NN%"
	Severity       Severity `json:"severity"`
	Urgency        Urgency  `json:"urgency"`
	Recommendation string   `json:"recommendation,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// ErrorKind classifies why a prediction produced no candidates.
type ErrorKind string

const (
	KindFeatureEncoding      ErrorKind = "feature_encoding"
	KindClassifierInvocation ErrorKind = "classifier_invocation"
	KindEngineUnavailable    ErrorKind = "engine_unavailable"
)

// PredictionError is the failure arm of Result.
type PredictionError struct {
	Kind    ErrorKind
	Message string
}

func (e *PredictionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Result is either a ranked list of predictions or an error, never both.
type Result struct {
	Predictions []Prediction
	Err         *PredictionError
}

// OK reports whether the prediction succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Failed builds an error result with an empty prediction list.
func Failed(kind ErrorKind, msg string) Result {
	return Result{Predictions: []Prediction{}, Err: &PredictionError{Kind: kind, Message: msg}}
}

// Top returns the highest-ranked prediction, if any.
func (r Result) Top() (Prediction, bool) {
	if len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

type resultJSON struct {
	Error       string       `json:"error,omitempty"`
	Predictions []Prediction `json:"predictions"`
}

// MarshalJSON renders {"predictions":[...]} or {"error":"...","predictions":[]}.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Predictions: r.Predictions}
	if out.Predictions == nil {
		out.Predictions = []Prediction{}
	}
	if r.Err != nil {
		out.Error = r.Err.Message
		out.Predictions = []Prediction{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON. The error kind is
// not carried on the wire, so decoded failures are reported as
// KindClassifierInvocation.
func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.Predictions = in.Predictions
	r.Err = nil
	if in.Error != "" {
		r.Err = &PredictionError{Kind: KindClassifierInvocation, Message: in.Error}
	}
	return nil
}

// PredictionRecord is one prediction as emitted to outputs and history.
type PredictionRecord struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Symptoms   []string      `json:"symptoms"`
	Attributes Attributes    `json:"attributes"`
	Result     Result        `json:"result"`
	Latency    time.Duration `json:"latency_ns,omitempty"`
}
