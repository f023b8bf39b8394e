package encoder

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Binary indicator columns.
const (
	ColAppetiteLoss     = "Appetite_Loss"
	ColVomiting         = "Vomiting"
	ColDiarrhea         = "Diarrhea"
	ColCoughing         = "Coughing"
	ColLaboredBreathing = "Labored_Breathing"
	ColLameness         = "Lameness"
	ColSkinLesions      = "Skin_Lesions"
	ColNasalDischarge   = "Nasal_Discharge"
	ColEyeDischarge     = "Eye_Discharge"
)

// EmptySlot pads symptom slots when fewer than four symptoms are given.
const EmptySlot = "No"

const (
	yes = "Yes"
	no  = "No"
)

// synonyms maps a normalized symptom to the name used in training data.
var synonyms = map[string]string{
	"fever":                "Fever",
	"lethargy":             "Lethargy",
	"vomiting":             "Vomiting",
	"diarrhea":             "Diarrhea",
	"coughing":             "Coughing",
	"appetite loss":        "Appetite Loss",
	"nasal discharge":      "Nasal Discharge",
	"eye discharge":        "Eye Discharge",
	"skin lesions":         "Skin Lesions",
	"lameness":             "Lameness",
	"labored breathing":    "Labored Breathing",
	"breathing difficulty": "Labored Breathing",
	"sneezing":             "Sneezing",
}

// Indicator derives one Yes/No column from the presence of any trigger.
type Indicator struct {
	Column   string
	Triggers []string
}

// Indicators is the fixed indicator set. Appetite_Loss also fires on
// lethargy; the training data pairs the two.
var Indicators = []Indicator{
	{ColAppetiteLoss, []string{"appetite loss", "lethargy"}},
	{ColVomiting, []string{"vomiting"}},
	{ColDiarrhea, []string{"diarrhea"}},
	{ColCoughing, []string{"coughing"}},
	{ColLaboredBreathing, []string{"labored breathing", "breathing difficulty"}},
	{ColLameness, []string{"lameness"}},
	{ColSkinLesions, []string{"skin lesions"}},
	{ColNasalDischarge, []string{"nasal discharge"}},
	{ColEyeDischarge, []string{"eye discharge"}},
}

// Normalize lowercases and trims a raw symptom.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// MapSymptom returns the canonical name for a normalized symptom, title-casing
// anything not in the synonym table.
func MapSymptom(normalized string) string {
	if v, ok := synonyms[normalized]; ok {
		return v
	}
	// Casers are stateful; build one per call.
	return cases.Title(language.Und).String(normalized)
}

// NormalizeAll normalizes every symptom and drops blanks.
func NormalizeAll(symptoms []string) []string {
	out := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if n := Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Slots maps the first four normalized symptoms into slot order and pads the
// rest with EmptySlot.
func Slots(normalized []string) [4]string {
	var slots [4]string
	for i := range slots {
		if i < len(normalized) {
			slots[i] = MapSymptom(normalized[i])
		} else {
			slots[i] = EmptySlot
		}
	}
	return slots
}

// DeriveIndicators tests every indicator against the full normalized list.
// The result does not depend on symptom order.
func DeriveIndicators(normalized []string) map[string]bool {
	present := make(map[string]struct{}, len(normalized))
	for _, s := range normalized {
		present[s] = struct{}{}
	}
	out := make(map[string]bool, len(Indicators))
	for _, ind := range Indicators {
		hit := false
		for _, t := range ind.Triggers {
			if _, ok := present[t]; ok {
				hit = true
				break
			}
		}
		out[ind.Column] = hit
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return yes
	}
	return no
}

// ParseYesNo reads an indicator value from training data.
func ParseYesNo(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), yes)
}
