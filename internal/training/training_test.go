package training

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/vettriage/internal/engine/encoder"
	"github.com/crimson-sun/vettriage/internal/engine/forest"
	"github.com/crimson-sun/vettriage/internal/format"
	"github.com/crimson-sun/vettriage/internal/model"
)

const header = "Animal_Type,Breed,Age,Gender,Weight,Symptom_1,Symptom_2,Symptom_3,Symptom_4,Duration,Appetite_Loss,Vomiting,Diarrhea,Coughing,Labored_Breathing,Lameness,Skin_Lesions,Nasal_Discharge,Eye_Discharge,Body_Temperature,Heart_Rate,Disease_Prediction"

// syntheticCSV builds a small dataset with three well separated diseases and
// one disease too rare to keep.
func syntheticCSV() string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Dog,Labrador,%d,Male,%d,Vomiting,Diarrhea,Lethargy,Fever,3 days,Yes,Yes,Yes,No,No,No,No,No,No,40.%d°C,140,Parvovirus\n", 1+i%2, 20+i)
		fmt.Fprintf(&b, "Dog,Beagle,%d,Female,%d,Coughing,Sneezing,Nasal Discharge,No,1 week,No,No,No,Yes,No,No,No,Yes,No,38.%d°C,100,Kennel Cough\n", 3+i%4, 12+i)
		fmt.Fprintf(&b, "Cat,Siamese,%d,Female,%d,Skin Lesions,No,No,No,2 weeks,No,No,No,No,No,No,Yes,No,No,38.%d°C,160,Dermatitis\n", 2+i%5, 4+i%3, i)
	}
	b.WriteString("Cow,Holstein,4,Female,600,Fever,Lameness,No,No,4 days,Yes,No,No,No,No,Yes,No,No,No,41.0°C,90,Foot and Mouth Disease\n")
	b.WriteString("Cow,Jersey,5,Female,450,Fever,Lameness,No,No,4 days,Yes,No,No,No,No,Yes,No,No,No,40.8°C,88,Foot and Mouth Disease\n")
	// Blank cells exercise imputation; a missing label drops the row.
	b.WriteString("Dog,,2,,22,Vomiting,Diarrhea,,,3 days,Yes,Yes,Yes,No,No,No,No,No,No,unknown,,Parvovirus\n")
	b.WriteString("Dog,Labrador,2,Male,22,Vomiting,Diarrhea,,,3 days,Yes,Yes,Yes,No,No,No,No,No,No,40.1°C,140,\n")
	return b.String()
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Forest.Trees = 20
	return cfg
}

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("A,B\n1,\n,2\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	want := []map[string]string{{"A": "1"}, {"B": "2"}}
	if diff := cmp.Diff(want, ds.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if !ds.HasColumn("B") || ds.HasColumn("C") {
		t.Error("HasColumn mismatch")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	for _, in := range []string{"", "A,B\n"} {
		if _, err := ReadCSV(strings.NewReader(in)); !errors.Is(err, ErrNoData) {
			t.Errorf("ReadCSV(%q) err = %v, want ErrNoData", in, err)
		}
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestMode(t *testing.T) {
	rows := []map[string]string{{"c": "b"}, {"c": "a"}, {"c": "b"}, {"c": "a"}, {}}
	if got := mode(rows, "c"); got != "a" {
		t.Errorf("mode with tie = %q, want a", got)
	}
	rows = append(rows, map[string]string{"c": "b"})
	if got := mode(rows, "c"); got != "b" {
		t.Errorf("mode = %q, want b", got)
	}
	if got := mode(rows, "missing"); got != "Unknown" {
		t.Errorf("mode of empty column = %q, want Unknown", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 2.5},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := median(tt.in); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestImputeNumeric(t *testing.T) {
	rows := []map[string]string{{"t": "39.0°C"}, {"t": "unknown"}, {}, {"t": "41°C"}}
	got := imputeNumeric(rows, "t", encoder.ParseTemperature)
	want := []float64{39, 40, 40, 41}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("imputeNumeric mismatch (-want +got):\n%s", diff)
	}
}

func TestStratifiedSplit(t *testing.T) {
	y := []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2}
	train, test, err := stratifiedSplit(y, 3, 0.2, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(train)+len(test) != len(y) {
		t.Fatalf("split lost rows: %d + %d", len(train), len(test))
	}
	perClass := func(idx []int) map[int]int {
		m := map[int]int{}
		for _, i := range idx {
			m[y[i]]++
		}
		return m
	}
	if diff := cmp.Diff(map[int]int{0: 1, 1: 1, 2: 1}, perClass(test)); diff != "" {
		t.Errorf("test class counts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]int{0: 4, 1: 4, 2: 2}, perClass(train)); diff != "" {
		t.Errorf("train class counts (-want +got):\n%s", diff)
	}

	train2, test2, _ := stratifiedSplit(y, 3, 0.2, 42)
	if !cmp.Equal(train, train2) || !cmp.Equal(test, test2) {
		t.Error("split not reproducible with the same seed")
	}
}

func TestStratifiedSplitSingleton(t *testing.T) {
	_, _, err := stratifiedSplit([]int{0, 0, 1}, 2, 0.2, 1)
	if !errors.Is(err, ErrStratify) {
		t.Fatalf("err = %v, want ErrStratify", err)
	}
	train, test, err := stratifiedSplit([]int{0, 0, 1}, 2, 0, 1)
	if err != nil || len(test) != 0 || len(train) != 3 {
		t.Fatalf("zero fraction split = %v, %v, %v", train, test, err)
	}
}

func TestClassificationReport(t *testing.T) {
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 1, 1, 1}
	cm := confusionMatrix(yTrue, yPred, 3)
	rows, macro, weighted := classificationReport(cm, []string{"A", "B", "C"})
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (class C absent)", len(rows))
	}
	a, b := rows[0], rows[1]
	if a.Precision != 1 || a.Recall != 0.5 || a.Support != 2 {
		t.Errorf("A = %+v", a)
	}
	if b.Precision != 2.0/3 || b.Recall != 1 {
		t.Errorf("B = %+v", b)
	}
	if macro.Support != 4 || weighted.Support != 4 {
		t.Errorf("avg support = %d/%d", macro.Support, weighted.Support)
	}
	if got := accuracy(yTrue, yPred); got != 0.75 {
		t.Errorf("accuracy = %v", got)
	}
}

func TestFit(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(syntheticCSV()))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	art, report, err := Fit(context.Background(), ds, smallConfig())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if diff := cmp.Diff([]string{"Dermatitis", "Kennel Cough", "Parvovirus"}, art.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Foot and Mouth Disease"}, report.DroppedClasses); diff != "" {
		t.Errorf("dropped classes mismatch (-want +got):\n%s", diff)
	}
	if report.DroppedRows != 1 {
		t.Errorf("DroppedRows = %d, want 1", report.DroppedRows)
	}
	if report.Samples != 31 {
		t.Errorf("Samples = %d, want 31", report.Samples)
	}
	if report.TrainSamples+report.TestSamples != report.Samples {
		t.Errorf("split sizes %d + %d != %d", report.TrainSamples, report.TestSamples, report.Samples)
	}
	if report.TestAccuracy < 0.99 {
		t.Errorf("TestAccuracy = %v on separable data", report.TestAccuracy)
	}

	wantCols := append([]string{}, encoder.DefaultFeatureColumns()...)
	if diff := cmp.Diff(wantCols, art.FeatureColumns); diff != "" {
		t.Errorf("feature columns mismatch (-want +got):\n%s", diff)
	}
	if art.ModelType != forest.Kind || art.Model.Forest == nil {
		t.Errorf("unexpected model %q", art.ModelType)
	}
	// Encoders were fitted before the rare class was dropped.
	animal, _ := art.LabelEncoders.Encoder(encoder.ColAnimalType)
	if _, ok := animal.Transform("Cow"); !ok {
		t.Error("Animal_Type encoder lost the rare class's species")
	}
	// Blank breeds are imputed from observed values, never a placeholder.
	breed, _ := art.LabelEncoders.Encoder(encoder.ColBreed)
	if breed.Len() != 5 {
		t.Errorf("breed classes = %v", breed.Classes())
	}
	if _, ok := breed.Transform("Unknown"); ok {
		t.Error("breed imputed as Unknown")
	}

	// Inference on a case shaped like the training rows agrees with the label.
	enc := art.Encoder()
	vec, err := enc.Encode([]string{"coughing", "sneezing", "nasal discharge"}, encoderAttrs())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	k, err := art.Model.Forest.Predict(vec)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if art.Classes[k] != "Kennel Cough" {
		t.Errorf("predicted %s, want Kennel Cough", art.Classes[k])
	}
}

func TestFitMissingTarget(t *testing.T) {
	ds, _ := ReadCSV(strings.NewReader("Animal_Type,Age\nDog,3\n"))
	_, _, err := Fit(context.Background(), ds, smallConfig())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestFitAllClassesRare(t *testing.T) {
	ds, _ := ReadCSV(strings.NewReader("Animal_Type,Age,Disease_Prediction\nDog,3,A\nCat,2,B\n"))
	art, _, err := Fit(context.Background(), ds, smallConfig())
	if !errors.Is(err, ErrNoData) || art != nil {
		t.Fatalf("Fit = %v, %v; want ErrNoData and no artifact", art, err)
	}
}

func TestFitStratifyFailure(t *testing.T) {
	cfg := smallConfig()
	cfg.MinClassSamples = 1
	ds, _ := ReadCSV(strings.NewReader("Animal_Type,Age,Disease_Prediction\nDog,3,A\nCat,2,B\nCat,4,B\n"))
	art, _, err := Fit(context.Background(), ds, cfg)
	if !errors.Is(err, ErrStratify) || art != nil {
		t.Fatalf("Fit = %v, %v; want ErrStratify and no artifact", art, err)
	}
}

func TestReportRender(t *testing.T) {
	ds, _ := ReadCSV(strings.NewReader(syntheticCSV()))
	_, report, err := Fit(context.Background(), ds, smallConfig())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, format.Markdown); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Test accuracy", "Kennel Cough", "macro avg", "Feature Importance", "%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	body := "test_fraction: 0.25\nforest:\n  trees: 50\n  max_depth: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	want.TestFraction = 0.25
	want.Forest.Trees = 50
	want.Forest.MaxDepth = 10
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	os.WriteFile(path, []byte("test_fraction: 1.5\n"), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for test_fraction 1.5")
	}
}

func encoderAttrs() model.Attributes {
	return model.Attributes{Species: "Dog", Breed: "Beagle", Gender: "Female", Duration: "1 week", Age: model.Float(4), Weight: model.Float(14), HeartRate: model.Float(100), Temperature: model.Float(38.5)}
}
