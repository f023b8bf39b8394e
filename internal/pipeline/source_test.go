package pipeline

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crimson-sun/vettriage/internal/engine"
	"github.com/crimson-sun/vettriage/internal/model"
)

func drain(t *testing.T, src Source) ([]Item, []error) {
	t.Helper()
	var items []Item
	var errs []error
	for {
		it, err := src.Next()
		if errors.Is(err, io.EOF) {
			return items, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, it)
	}
}

func TestCSVSourceParsesTrainingLayout(t *testing.T) {
	data := "id,Animal_Type,Breed,Age,Gender,Weight,Symptom_1,Symptom_2,Symptom_3,Symptom_4,Duration,Body_Temperature,Heart_Rate\n" +
		"c1,Dog,Beagle,4,Female,12.5,Vomiting,Diarrhea,No,No,2 days,39.8°C,130\n" +
		"c2,Cat,,,,,Sneezing,,,,,,\n"
	src, err := NewCSVSource(io.NopCloser(strings.NewReader(data)))
	if err != nil {
		t.Fatal(err)
	}
	items, errs := drain(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []Item{
		{ID: "c1", Line: 2, Request: engine.Request{
			Symptoms: []string{"Vomiting", "Diarrhea"},
			Attributes: model.Attributes{
				Species: "Dog", Breed: "Beagle", Gender: "Female", Duration: "2 days",
				Age: model.Float(4), Weight: model.Float(12.5), HeartRate: model.Float(130), Temperature: model.Float(39.8),
			},
		}},
		{ID: "c2", Line: 3, Request: engine.Request{
			Symptoms:   []string{"Sneezing"},
			Attributes: model.Attributes{Species: "Cat"},
		}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVSourceBadNumberIsRowError(t *testing.T) {
	data := "Symptom_1,Age\nFever,old\nCough,2\n"
	src, err := NewCSVSource(io.NopCloser(strings.NewReader(data)))
	if err != nil {
		t.Fatal(err)
	}
	items, errs := drain(t, src)
	if len(errs) != 1 || !errors.Is(errs[0], ErrBadRow) {
		t.Fatalf("errs = %v, want one ErrBadRow", errs)
	}
	var re *RowError
	if !errors.As(errs[0], &re) || re.Line != 2 {
		t.Fatalf("row error = %#v", errs[0])
	}
	if len(items) != 1 || model.Value(items[0].Request.Attributes.Age) != 2 {
		t.Fatalf("items = %+v", items)
	}
}

func TestCSVSourceEmptyInput(t *testing.T) {
	if _, err := NewCSVSource(io.NopCloser(strings.NewReader(""))); err == nil {
		t.Fatal("expected header error")
	}
}

func TestJSONLSourceDecodesRequestShape(t *testing.T) {
	data := `{"id":"x1","symptoms":["Coughing","Fever"],"animal_type":"Dog","age":2,"weight":8.5,"gender":"Male","breed":"Pug"}` + "\n\n" +
		`{"symptoms":["Limping"]}`
	src := NewJSONLSource(io.NopCloser(strings.NewReader(data)))
	items, errs := drain(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []Item{
		{ID: "x1", Line: 1, Request: engine.Request{
			Symptoms:   []string{"Coughing", "Fever"},
			Attributes: model.Attributes{Species: "Dog", Breed: "Pug", Gender: "Male", Age: model.Float(2), Weight: model.Float(8.5)},
		}},
		{Line: 3, Request: engine.Request{Symptoms: []string{"Limping"}}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenPicksSourceByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "cases.csv")
	jsonPath := filepath.Join(dir, "cases.jsonl")
	os.WriteFile(csvPath, []byte("Symptom_1\nFever\n"), 0o644)
	os.WriteFile(jsonPath, []byte(`{"symptoms":["Fever"]}`+"\n"), 0o644)

	for _, path := range []string{csvPath, jsonPath} {
		src, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s): %v", path, err)
		}
		items, errs := drain(t, src)
		src.Close()
		if len(errs) != 0 || len(items) != 1 || items[0].Request.Symptoms[0] != "Fever" {
			t.Errorf("%s: items=%+v errs=%v", path, items, errs)
		}
	}

	if _, err := Open(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
