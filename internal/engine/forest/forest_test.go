package forest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// blobs returns three well separated clusters in the first two features plus
// one noise feature.
func blobs(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(1, 2))
	centers := [][2]float64{{0, 0}, {10, 0}, {0, 10}}
	var x [][]float64
	var y []int
	for i := 0; i < n; i++ {
		k := i % len(centers)
		c := centers[k]
		x = append(x, []float64{
			c[0] + rng.NormFloat64(),
			c[1] + rng.NormFloat64(),
			rng.Float64() * 100,
		})
		y = append(y, k)
	}
	return x, y
}

func smallParams() Params {
	p := DefaultParams()
	p.Trees = 15
	return p
}

func TestFitSeparatesClusters(t *testing.T) {
	x, y := blobs(150)
	f, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	tests := []struct {
		point []float64
		want  int
	}{
		{[]float64{0, 0, 50}, 0},
		{[]float64{10, 0, 50}, 1},
		{[]float64{0, 10, 50}, 2},
	}
	for _, tt := range tests {
		got, err := f.Predict(tt.point)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		if got != tt.want {
			t.Errorf("Predict(%v) = %d, want %d", tt.point, got, tt.want)
		}
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	x, y := blobs(90)
	f, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	probs, err := f.PredictProba([]float64{5, 5, 5})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if len(probs) != f.NumClasses() {
		t.Fatalf("len(probs) = %d, want %d", len(probs), f.NumClasses())
	}
	sum := 0.0
	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("probability %v out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestFitDeterministic(t *testing.T) {
	x, y := blobs(90)
	a, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	b, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different forests:\n%s", diff)
	}
}

func TestFeatureImportances(t *testing.T) {
	x, y := blobs(150)
	f, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	imp := f.FeatureImportances()
	if len(imp) != 3 {
		t.Fatalf("len(importances) = %d, want 3", len(imp))
	}
	sum := imp[0] + imp[1] + imp[2]
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances sum to %v", sum)
	}
	if imp[2] >= imp[0] || imp[2] >= imp[1] {
		t.Errorf("noise feature ranked too high: %v", imp)
	}
}

func TestSingleClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []int{0, 0, 0}
	f, err := Fit(context.Background(), x, y, 1, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	probs, err := f.PredictProba([]float64{2})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if diff := cmp.Diff([]float64{1}, probs); diff != "" {
		t.Errorf("probs mismatch (-want +got):\n%s", diff)
	}
}

func TestFitValidation(t *testing.T) {
	bad := DefaultParams()
	bad.Trees = 0
	tests := []struct {
		name   string
		x      [][]float64
		y      []int
		k      int
		params Params
	}{
		{"empty", nil, nil, 2, DefaultParams()},
		{"length mismatch", [][]float64{{1}}, []int{0, 1}, 2, DefaultParams()},
		{"ragged", [][]float64{{1, 2}, {1}}, []int{0, 1}, 2, DefaultParams()},
		{"label range", [][]float64{{1}, {2}}, []int{0, 2}, 2, DefaultParams()},
		{"zero trees", [][]float64{{1}, {2}}, []int{0, 1}, 2, bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Fit(context.Background(), tt.x, tt.y, tt.k, tt.params); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	x, y := blobs(30)
	_, err := Fit(ctx, x, y, 3, smallParams())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPredictWrongWidth(t *testing.T) {
	x, y := blobs(30)
	f, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := f.PredictProba([]float64{1}); err == nil {
		t.Fatal("expected error for wrong width")
	}
}

func TestJSONRoundTripPredictsIdentically(t *testing.T) {
	x, y := blobs(90)
	f, err := Fit(context.Background(), x, y, 3, smallParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var g Forest
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, row := range x[:10] {
		a, _ := f.PredictProba(row)
		b, _ := g.PredictProba(row)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("decoded forest disagrees:\n%s", diff)
		}
	}
}

func TestValidateRejectsMalformed(t *testing.T) {
	f := &Forest{
		NClasses:  2,
		NFeatures: 1,
		Trees: []*Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 1, Left: 0, Right: 1},
			{Feature: -1, Value: []float64{1, 0}},
		}}},
	}
	if err := f.Validate(); err == nil {
		t.Fatal("expected error for self-referencing node")
	}

	f.Trees[0].Nodes[1].Value = []float64{1}
	f.Trees[0].Nodes[0].Left = 1
	if err := f.Validate(); err == nil {
		t.Fatal("expected error for short leaf")
	}
}
