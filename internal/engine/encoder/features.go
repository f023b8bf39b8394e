package encoder

import (
	"errors"
	"fmt"
	"math"

	"github.com/crimson-sun/vettriage/internal/model"
)

// ErrFeatureEncoding is matched by every error the encoder returns.
var ErrFeatureEncoding = errors.New("feature encoding failed")

// ErrNoSymptoms is returned when no non-blank symptom is supplied.
var ErrNoSymptoms = fmt.Errorf("%w: at least one symptom is required", ErrFeatureEncoding)

// InvalidAttributeError reports a numeric attribute that cannot be encoded.
type InvalidAttributeError struct {
	Field string
	Value float64
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v", ErrFeatureEncoding, e.Field, e.Value)
}

func (e *InvalidAttributeError) Unwrap() error { return ErrFeatureEncoding }

// FeatureEncoder turns an AnimalCase into a feature vector using a fitted
// EncoderSet and a fixed column order. It holds no mutable state and is safe
// for concurrent use.
type FeatureEncoder struct {
	set     EncoderSet
	columns []string
}

// NewFeatureEncoder creates an encoder emitting columns in the given order.
func NewFeatureEncoder(set EncoderSet, columns []string) *FeatureEncoder {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &FeatureEncoder{set: set, columns: cols}
}

// Columns returns the feature column order.
func (f *FeatureEncoder) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// BuildCase validates attributes and derives symptom slots and indicators
// from free-text symptoms. Omitted attributes take their defaults.
func BuildCase(symptoms []string, attrs model.Attributes) (model.AnimalCase, error) {
	normalized := NormalizeAll(symptoms)
	if len(normalized) == 0 {
		return model.AnimalCase{}, ErrNoSymptoms
	}
	attrs = attrs.WithDefaults()
	if err := validate(attrs); err != nil {
		return model.AnimalCase{}, err
	}
	return model.AnimalCase{
		Attributes: attrs,
		Symptoms:   Slots(normalized),
		Indicators: DeriveIndicators(normalized),
	}, nil
}

func validate(a model.Attributes) error {
	checks := []struct {
		field string
		v     float64
	}{
		{"age", model.Value(a.Age)},
		{"weight", model.Value(a.Weight)},
		{"heart_rate", model.Value(a.HeartRate)},
		{"temperature", model.Value(a.Temperature)},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v < 0 {
			return &InvalidAttributeError{Field: c.field, Value: c.v}
		}
	}
	return nil
}

// Record renders the categorical fields of c as column -> value.
// Training and inference both encode through this, so the two cannot drift.
func Record(c model.AnimalCase) map[string]string {
	r := map[string]string{
		ColAnimalType: c.Species,
		ColBreed:      c.Breed,
		ColGender:     c.Gender,
		ColDuration:   c.Duration,
	}
	for i, col := range SymptomColumns {
		slot := c.Symptoms[i]
		if slot == "" {
			slot = EmptySlot
		}
		r[col] = slot
	}
	for _, ind := range Indicators {
		r[ind.Column] = yesNo(c.Indicators[ind.Column])
	}
	return r
}

// EncodeCase produces the feature vector for c. Categorical values unseen at
// fit time encode to 0; columns the case does not materialize are 0.
func (f *FeatureEncoder) EncodeCase(c model.AnimalCase) []float64 {
	values := make(map[string]float64, len(CategoricalColumns)+len(NumericColumns)+1)
	for col, v := range Record(c) {
		if enc, ok := f.set.Encoder(col); ok {
			values[EncodedName(col)] = float64(enc.Index(v))
		}
	}
	values[ColAge] = model.Value(c.Age)
	values[ColWeight] = model.Value(c.Weight)
	values[ColHeartRate] = model.Value(c.HeartRate)
	values[ColTemperatureNumeric] = model.Value(c.Temperature)

	vec := make([]float64, len(f.columns))
	for i, col := range f.columns {
		vec[i] = values[col]
	}
	return vec
}

// Encode builds a case from symptoms and attributes and encodes it.
func (f *FeatureEncoder) Encode(symptoms []string, attrs model.Attributes) ([]float64, error) {
	c, err := BuildCase(symptoms, attrs)
	if err != nil {
		return nil, err
	}
	return f.EncodeCase(c), nil
}
