package vettriage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/crimson-sun/vettriage/internal/training"
)

const header = "Animal_Type,Breed,Age,Gender,Weight,Symptom_1,Symptom_2,Symptom_3,Symptom_4,Duration,Appetite_Loss,Vomiting,Diarrhea,Coughing,Labored_Breathing,Lameness,Skin_Lesions,Nasal_Discharge,Eye_Discharge,Body_Temperature,Heart_Rate,Disease_Prediction"

// trainModelDir trains a small forest on three well separated diseases and
// writes it to a temp model directory.
func trainModelDir(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Dog,Labrador,%d,Male,%d,Vomiting,Diarrhea,Lethargy,Fever,3 days,Yes,Yes,Yes,No,No,No,No,No,No,40.%d°C,140,Parvovirus\n", 1+i%2, 20+i, i)
		fmt.Fprintf(&b, "Dog,Beagle,%d,Female,%d,Coughing,Sneezing,Nasal Discharge,No,1 week,No,No,No,Yes,No,No,No,Yes,No,38.%d°C,100,Kennel Cough\n", 3+i%4, 12+i, i)
		fmt.Fprintf(&b, "Cat,Siamese,%d,Female,%d,Skin Lesions,No,No,No,2 weeks,No,No,No,No,No,No,Yes,No,No,38.%d°C,160,Dermatitis\n", 2+i%5, 4+i%3, i)
	}
	ds, err := training.ReadCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	cfg := training.DefaultConfig()
	cfg.Forest.Trees = 15
	art, _, err := training.Fit(context.Background(), ds, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	dir := t.TempDir()
	if err := art.Save(filepath.Join(dir, artifactFileName)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return dir
}

func TestResolvePaths(t *testing.T) {
	tests := []struct {
		name         string
		opts         options
		wantArtifact string
		wantCatalog  string
	}{
		{"defaults", options{}, "models/disease_model.json", "models/severity_mapping.json"},
		{"dir", options{modelDir: "/srv/m"}, "/srv/m/disease_model.json", "/srv/m/severity_mapping.json"},
		{"explicit wins", options{modelDir: "/srv/m", artifactPath: "/a.json"}, "/a.json", "/srv/m/severity_mapping.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, c := resolvePaths(tt.opts)
			if a != tt.wantArtifact || c != tt.wantCatalog {
				t.Errorf("resolvePaths = (%q, %q), want (%q, %q)", a, c, tt.wantArtifact, tt.wantCatalog)
			}
		})
	}
}

func TestNewBadPathReturnsError(t *testing.T) {
	if _, err := New(WithModelDir("/nonexistent/path")); err == nil {
		t.Fatal("expected error for bad model path, got nil")
	}
}

func TestLazyLoadFailureIsEngineUnavailable(t *testing.T) {
	p := NewLazy(WithModelDir("/nonexistent/path"))
	if p.Loaded() {
		t.Fatal("Loaded before first use")
	}

	for i := 0; i < 2; i++ {
		resp := p.Predict(Request{Symptoms: []string{"coughing"}})
		if resp.OK() {
			t.Fatal("expected failure")
		}
		if resp.Kind != "engine_unavailable" {
			t.Errorf("Kind = %q, want engine_unavailable", resp.Kind)
		}
		if resp.Predictions == nil || len(resp.Predictions) != 0 {
			t.Errorf("Predictions = %#v, want empty non-nil", resp.Predictions)
		}
	}
	if p.Loaded() {
		t.Error("Loaded should stay false after a failed load")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPredictWithTrainedModel(t *testing.T) {
	p, err := New(WithModelDir(trainModelDir(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	resp := p.Predict(Request{
		Symptoms:   []string{"Vomiting", "Diarrhea", "Lethargy", "Fever"},
		AnimalType: "Dog",
		Breed:      "Labrador",
		Age:        Float(1),
	})
	if !resp.OK() {
		t.Fatalf("Predict failed: %s", resp.Error)
	}
	if len(resp.Predictions) != 3 {
		t.Fatalf("got %d predictions, want 3", len(resp.Predictions))
	}
	top := resp.Predictions[0]
	if top.Disease != "Parvovirus" {
		t.Errorf("top disease = %q, want Parvovirus", top.Disease)
	}
	if top.Urgency != "Emergency" || top.Recommendation == "" {
		t.Errorf("catalog fields not joined: %+v", top)
	}
	if !strings.HasSuffix(top.Confidence, "%") {
		t.Errorf("Confidence = %q", top.Confidence)
	}
}

func TestPredictRejectsEmptySymptoms(t *testing.T) {
	p, err := New(WithModelDir(trainModelDir(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp := p.Predict(Request{Symptoms: []string{" ", ""}})
	if resp.OK() || resp.Kind != "feature_encoding" {
		t.Fatalf("resp = %+v, want feature_encoding failure", resp)
	}
}

func TestTopKOption(t *testing.T) {
	p, err := New(WithModelDir(trainModelDir(t)), WithTopK(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp := p.Predict(Request{Symptoms: []string{"coughing"}})
	if len(resp.Predictions) != 1 {
		t.Fatalf("got %d predictions, want 1", len(resp.Predictions))
	}
}

func TestConcurrentFirstUseLoadsOnce(t *testing.T) {
	dir := trainModelDir(t)
	p := NewLazy(WithModelDir(dir))

	var wg sync.WaitGroup
	engines := make(chan any, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eng, err := p.Get()
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			engines <- eng
		}()
	}
	wg.Wait()
	close(engines)

	var first any
	for eng := range engines {
		if first == nil {
			first = eng
		} else if eng != first {
			t.Fatal("concurrent callers observed different engines")
		}
	}
	if !p.Loaded() {
		t.Fatal("Loaded should be true")
	}
}

func TestInfoAndDisease(t *testing.T) {
	dir := trainModelDir(t)
	// A catalog file that overrides one entry.
	catalog := `{"Dermatitis": {"severity": "Mild", "urgency": "Low", "recommendation": "Topical care"}}`
	if err := os.WriteFile(filepath.Join(dir, catalogFileName), []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := New(WithModelDir(dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	info, err := p.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(info.Diseases) != 3 || info.Features == 0 {
		t.Errorf("info = %+v", info)
	}

	d, err := p.Disease("Dermatitis")
	if err != nil {
		t.Fatal(err)
	}
	if d.Recommendation != "Topical care" {
		t.Errorf("Recommendation = %q", d.Recommendation)
	}
	unknown, _ := p.Disease("Space Flu")
	if unknown.Severity != "Unknown" {
		t.Errorf("unknown disease severity = %q", unknown.Severity)
	}
}

func TestPredictBatch(t *testing.T) {
	p := NewLazy(WithModelDir(trainModelDir(t)))
	out := p.PredictBatch([]Request{
		{Symptoms: []string{"coughing", "sneezing"}},
		{},
		{Symptoms: []string{"skin lesions"}, AnimalType: "Cat"},
	})
	if len(out) != 3 {
		t.Fatalf("got %d responses", len(out))
	}
	if !out[0].OK() || out[1].OK() || !out[2].OK() {
		t.Fatalf("unexpected outcomes: %+v", out)
	}
}
