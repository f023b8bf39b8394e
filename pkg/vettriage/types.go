package vettriage

import "github.com/crimson-sun/vettriage/internal/model"

// Request is one case to score. Empty strings and nil numbers take the
// defaults Dog, age 3, 20 kg, Male, Mixed breed; use Float to set a number,
// including an explicit 0.
type Request struct {
	Symptoms    []string `json:"symptoms"`              // Free-text symptoms, at least one
	AnimalType  string   `json:"animal_type,omitempty"` // Dog, Cat, Cow, ...
	Age         *float64 `json:"age,omitempty"`         // Years
	Weight      *float64 `json:"weight,omitempty"`      // Kilograms
	Gender      string   `json:"gender,omitempty"`      // Male or Female
	Breed       string   `json:"breed,omitempty"`       // Free text
	Duration    string   `json:"duration,omitempty"`    // e.g. "3 days"
	HeartRate   *float64 `json:"heart_rate,omitempty"`  // Beats per minute
	Temperature *float64 `json:"temperature,omitempty"` // Degrees Celsius
}

// Float returns a pointer to v for the numeric Request fields.
func Float(v float64) *float64 { return &v }

func (r Request) attributes() model.Attributes {
	return model.Attributes{
		Species:     r.AnimalType,
		Breed:       r.Breed,
		Gender:      r.Gender,
		Duration:    r.Duration,
		Age:         r.Age,
		Weight:      r.Weight,
		HeartRate:   r.HeartRate,
		Temperature: r.Temperature,
	}
}

// Prediction is one ranked disease candidate.
type Prediction struct {
	Disease        string  `json:"disease"`
	Probability    float64 `json:"-"`                     // Classifier probability in [0,1]
	Confidence     string  `json:"confidence"`            // Probability as a whole percentage, "NN%"
	Severity       string  `json:"severity"`              // Mild, Moderate, Severe or Unknown
	Urgency        string  `json:"urgency"`               // Low, Medium, High, Emergency or Unknown
	Recommendation string  `json:"recommendation"`        // Next step for the owner
	Description    string  `json:"description,omitempty"` // Short clinical description
}

// Response is either ranked predictions or an error message; Predictions is
// empty whenever Error is set.
type Response struct {
	Error       string       `json:"error,omitempty"`
	Kind        string       `json:"-"` // feature_encoding, classifier_invocation or engine_unavailable
	Predictions []Prediction `json:"predictions"`
}

// OK reports whether the prediction succeeded.
func (r Response) OK() bool { return r.Error == "" }

func responseFromResult(res model.Result) Response {
	if res.Err != nil {
		return Response{Error: res.Err.Message, Kind: string(res.Err.Kind), Predictions: []Prediction{}}
	}
	preds := make([]Prediction, len(res.Predictions))
	for i, p := range res.Predictions {
		preds[i] = Prediction{
			Disease:        p.Disease,
			Probability:    p.Probability,
			Confidence:     p.Confidence,
			Severity:       string(p.Severity),
			Urgency:        string(p.Urgency),
			Recommendation: p.Recommendation,
			Description:    p.Description,
		}
	}
	return Response{Predictions: preds}
}

// DiseaseInfo is a severity catalog entry.
type DiseaseInfo struct {
	Disease        string   `json:"disease"`
	Severity       string   `json:"severity"`
	Urgency        string   `json:"urgency"`
	Recommendation string   `json:"recommendation"`
	Description    string   `json:"description"`
	TypicalAnimals []string `json:"typical_animals,omitempty"`
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	ModelType string   `json:"model_type"`
	Trained   string   `json:"training_date"` // RFC 3339
	Features  int      `json:"features"`
	Diseases  []string `json:"available_diseases"`
}
