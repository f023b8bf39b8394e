package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrProbabilityShape is returned when a classifier yields a probability
// vector whose length does not match the class list.
var ErrProbabilityShape = errors.New("classifier: probability vector length mismatch")

// ErrProbabilityValue is returned when a probability is NaN or infinite.
var ErrProbabilityValue = errors.New("classifier: non-finite probability")

// Classifier maps a feature vector to one probability per class index.
type Classifier interface {
	PredictProba(features []float64) ([]float64, error)
	NumClasses() int
}

// Ranked is one class index with its probability.
type Ranked struct {
	Index       int
	Probability float64
}

// Rank returns the top k classes by probability, highest first. Equal
// probabilities keep the lower class index first, so output is deterministic.
// k larger than len(probs) returns every class.
func Rank(probs []float64, k int) []Ranked {
	if k <= 0 || len(probs) == 0 {
		return []Ranked{}
	}
	all := make([]Ranked, len(probs))
	for i, p := range probs {
		all[i] = Ranked{Index: i, Probability: p}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Probability > all[j].Probability
	})
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// CheckShape verifies that probs has exactly n entries, all finite. Rank
// has no defined order for NaN, so such vectors never reach it.
func CheckShape(probs []float64, n int) error {
	if len(probs) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrProbabilityShape, len(probs), n)
	}
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: class %d is %v", ErrProbabilityValue, i, p)
		}
	}
	return nil
}

// FormatConfidence renders p as a whole percentage, e.g. "85%". Used on the
// request/response path.
func FormatConfidence(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}

// FormatConfidenceDetailed renders p with one decimal, e.g. "85.3%". Used by
// the CLI and training reports.
func FormatConfidenceDetailed(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
