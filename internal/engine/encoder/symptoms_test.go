package encoder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Fever ", "fever"},
		{"APPETITE LOSS", "appetite loss"},
		{"", ""},
		{"\tVomiting\n", "vomiting"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapSymptom(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"appetite loss", "Appetite Loss"},
		{"breathing difficulty", "Labored Breathing"},
		{"labored breathing", "Labored Breathing"},
		{"fever", "Fever"},
		{"purple spots", "Purple Spots"},
		{"limping", "Limping"},
	}
	for _, tt := range tests {
		if got := MapSymptom(tt.in); got != tt.want {
			t.Errorf("MapSymptom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlotsPadAndTruncate(t *testing.T) {
	got := Slots([]string{"fever", "vomiting"})
	want := [4]string{"Fever", "Vomiting", "No", "No"}
	if got != want {
		t.Errorf("Slots(2) = %v, want %v", got, want)
	}

	got = Slots([]string{"fever", "vomiting", "diarrhea", "lethargy", "coughing"})
	want = [4]string{"Fever", "Vomiting", "Diarrhea", "Lethargy"}
	if got != want {
		t.Errorf("Slots(5) = %v, want %v", got, want)
	}
}

func TestDeriveIndicatorsOrderIndependent(t *testing.T) {
	a := DeriveIndicators([]string{"fever", "vomiting"})
	b := DeriveIndicators([]string{"vomiting", "fever"})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("indicators depend on order (-a +b):\n%s", diff)
	}
	if !a[ColVomiting] {
		t.Error("Vomiting indicator not set")
	}
	if a[ColDiarrhea] {
		t.Error("Diarrhea indicator unexpectedly set")
	}
}

func TestDeriveIndicatorsSynonyms(t *testing.T) {
	tests := []struct {
		symptom string
		column  string
	}{
		{"lethargy", ColAppetiteLoss},
		{"appetite loss", ColAppetiteLoss},
		{"breathing difficulty", ColLaboredBreathing},
		{"lameness", ColLameness},
		{"skin lesions", ColSkinLesions},
		{"nasal discharge", ColNasalDischarge},
		{"eye discharge", ColEyeDischarge},
	}
	for _, tt := range tests {
		got := DeriveIndicators([]string{tt.symptom})
		if !got[tt.column] {
			t.Errorf("%q did not set %s", tt.symptom, tt.column)
		}
	}
}

func TestDeriveIndicatorsIgnoresLaySynonyms(t *testing.T) {
	// Only the exact trigger names fire; lay wording stays a plain symptom.
	got := DeriveIndicators([]string{"limping", "rash", "runny nose", "watery eyes"})
	for _, col := range []string{ColLameness, ColSkinLesions, ColNasalDischarge, ColEyeDischarge} {
		if got[col] {
			t.Errorf("%s set by a non-trigger symptom", col)
		}
	}
	if slots := Slots([]string{"rash"}); slots[0] != "Rash" {
		t.Errorf("slot = %q, want Rash", slots[0])
	}
}

func TestDeriveIndicatorsBeyondFourthSlot(t *testing.T) {
	// Indicators read the whole list, not just the slotted symptoms.
	got := DeriveIndicators([]string{"fever", "sneezing", "lethargy", "coughing", "diarrhea"})
	if !got[ColDiarrhea] {
		t.Error("fifth symptom did not set Diarrhea")
	}
}

func TestUnknownSymptomSetsNoIndicator(t *testing.T) {
	got := DeriveIndicators([]string{"purple spots"})
	for col, v := range got {
		if v {
			t.Errorf("indicator %s set by unknown symptom", col)
		}
	}
	if len(got) != len(Indicators) {
		t.Errorf("got %d indicators, want %d", len(got), len(Indicators))
	}
}

func TestParseYesNo(t *testing.T) {
	for _, s := range []string{"Yes", "yes", " YES "} {
		if !ParseYesNo(s) {
			t.Errorf("ParseYesNo(%q) = false", s)
		}
	}
	for _, s := range []string{"No", "", "y"} {
		if ParseYesNo(s) {
			t.Errorf("ParseYesNo(%q) = true", s)
		}
	}
}

func TestParseTemperature(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"39.5°C", 39.5},
		{"38°C", 38},
		{"temp 40.1 C", 40.1},
	}
	for _, tt := range tests {
		got, err := ParseTemperature(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseTemperature(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseTemperature("unknown"); err == nil {
		t.Error("ParseTemperature(unknown): expected error")
	}
}
