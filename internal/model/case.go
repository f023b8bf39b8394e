package model

// Attributes are the animal attributes recognised by the encoder.
// Empty strings and nil numbers are filled from DefaultAttributes by
// WithDefaults; an explicit 0 is a value, not an omission.
type Attributes struct {
	Species     string   `json:"animal_type,omitempty"`
	Breed       string   `json:"breed,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Age         *float64 `json:"age,omitempty"`         // years
	Weight      *float64 `json:"weight,omitempty"`      // kg
	HeartRate   *float64 `json:"heart_rate,omitempty"`  // bpm
	Temperature *float64 `json:"temperature,omitempty"` // °C
}

// Float returns a pointer to v, for filling the numeric attributes.
func Float(v float64) *float64 { return &v }

// Value dereferences p, treating nil as 0.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// DefaultAttributes returns the values used when a request omits a field.
func DefaultAttributes() Attributes {
	return Attributes{
		Species:     "Dog",
		Breed:       "Mixed",
		Gender:      "Male",
		Duration:    "3 days",
		Age:         Float(3),
		Weight:      Float(20.0),
		HeartRate:   Float(120),
		Temperature: Float(39.0),
	}
}

// WithDefaults returns a copy of a with every omitted field replaced by its
// default.
func (a Attributes) WithDefaults() Attributes {
	d := DefaultAttributes()
	if a.Species == "" {
		a.Species = d.Species
	}
	if a.Breed == "" {
		a.Breed = d.Breed
	}
	if a.Gender == "" {
		a.Gender = d.Gender
	}
	if a.Duration == "" {
		a.Duration = d.Duration
	}
	if a.Age == nil {
		a.Age = d.Age
	}
	if a.Weight == nil {
		a.Weight = d.Weight
	}
	if a.HeartRate == nil {
		a.HeartRate = d.HeartRate
	}
	if a.Temperature == nil {
		a.Temperature = d.Temperature
	}
	return a
}

// AnimalCase is the canonical input to feature encoding: one animal, its
// attributes, four ordered symptom slots, and the derived Yes/No indicators.
type AnimalCase struct {
	Attributes
	Symptoms   [4]string       // mapped symptom names, padded with "No"
	Indicators map[string]bool // keyed by indicator column (Vomiting, Appetite_Loss, ...)
}
