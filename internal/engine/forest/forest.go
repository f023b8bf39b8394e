// Package forest implements a random forest of CART classification trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Kind is the model_type recorded for forests in saved artifacts.
const Kind = "random_forest"

// Params controls forest growth.
type Params struct {
	Trees           int   `json:"n_estimators" yaml:"trees"`
	MaxDepth        int   `json:"max_depth" yaml:"max_depth"` // 0 = unlimited
	MinSamplesSplit int   `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features,omitempty" yaml:"max_features"` // 0 = floor(sqrt(features))
	Seed            int64 `json:"random_state" yaml:"seed"`
}

// DefaultParams returns 100 trees, depth 15, min split 5, min leaf 2, seed 42.
func DefaultParams() Params {
	return Params{
		Trees:           100,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

func (p Params) validate() error {
	switch {
	case p.Trees <= 0:
		return fmt.Errorf("forest: trees must be positive, got %d", p.Trees)
	case p.MaxDepth < 0:
		return fmt.Errorf("forest: max depth must be non-negative, got %d", p.MaxDepth)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("forest: min samples split must be at least 2, got %d", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("forest: min samples leaf must be at least 1, got %d", p.MinSamplesLeaf)
	case p.MaxFeatures < 0:
		return fmt.Errorf("forest: max features must be non-negative, got %d", p.MaxFeatures)
	}
	return nil
}

// Forest is a fitted ensemble. It is immutable after Fit and safe for
// concurrent prediction.
type Forest struct {
	Params      Params    `json:"params"`
	NClasses    int       `json:"n_classes"`
	NFeatures   int       `json:"n_features"`
	Trees       []*Tree   `json:"trees"`
	Importances []float64 `json:"feature_importances"`
}

// ErrEmpty is returned when Fit receives no samples.
var ErrEmpty = errors.New("forest: no training samples")

// Fit grows a forest on x (rows of equal width) and labels y in
// [0, numClasses). Trees are fitted in parallel; results do not depend on
// scheduling because each tree draws from its own seeded source.
func Fit(ctx context.Context, x [][]float64, y []int, numClasses int, p Params) (*Forest, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d rows but %d labels", len(x), len(y))
	}
	if numClasses <= 0 {
		return nil, fmt.Errorf("forest: class count must be positive, got %d", numClasses)
	}
	width := len(x[0])
	if width == 0 {
		return nil, fmt.Errorf("forest: rows have no features")
	}
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), width)
		}
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, fmt.Errorf("forest: label %d at row %d out of range [0,%d)", label, i, numClasses)
		}
	}

	maxFeatures := p.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	maxFeatures = min(maxFeatures, width)

	trees := make([]*Tree, p.Trees)
	imps := make([][]float64, p.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < p.Trees; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(t)))
			b := &builder{
				x:           x,
				y:           y,
				numClasses:  numClasses,
				numFeatures: width,
				maxFeatures: maxFeatures,
				maxDepth:    p.MaxDepth,
				minSplit:    p.MinSamplesSplit,
				minLeaf:     p.MinSamplesLeaf,
				rng:         rng,
				importance:  make([]float64, width),
			}
			b.grow(bootstrap(rng, len(x)), 0)
			trees[t] = &Tree{Nodes: b.nodes}
			imps[t] = normalize(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forest: fit: %w", err)
	}

	total := make([]float64, width)
	for _, imp := range imps {
		for j, v := range imp {
			total[j] += v
		}
	}
	return &Forest{
		Params:      p,
		NClasses:    numClasses,
		NFeatures:   width,
		Trees:       trees,
		Importances: normalize(total),
	}, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// normalize scales v to sum to 1. An all-zero vector stays zero.
func normalize(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

// NumClasses reports the width of PredictProba output.
func (f *Forest) NumClasses() int { return f.NClasses }

// PredictProba averages the leaf class distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("forest: got %d features, want %d", len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest: no trees")
	}
	out := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		for k, p := range t.leaf(x) {
			out[k] += p
		}
	}
	n := float64(len(f.Trees))
	for k := range out {
		out[k] /= n
	}
	return out, nil
}

// Predict returns the most probable class, preferring the lower index on ties.
func (f *Forest) Predict(x []float64) (int, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for k, p := range probs {
		if p > probs[best] {
			best = k
		}
	}
	return best, nil
}

// FeatureImportances returns the mean decrease in impurity per feature,
// normalized to sum to 1.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.Importances))
	copy(out, f.Importances)
	return out
}

// Validate checks structural consistency of a decoded forest.
func (f *Forest) Validate() error {
	if f.NClasses <= 0 || f.NFeatures <= 0 {
		return fmt.Errorf("forest: invalid shape %d classes x %d features", f.NClasses, f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest: no trees")
	}
	for ti, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("forest: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature < 0 {
				if len(n.Value) != f.NClasses {
					return fmt.Errorf("forest: tree %d node %d: leaf has %d values, want %d", ti, ni, len(n.Value), f.NClasses)
				}
				continue
			}
			// Children are always appended after their parent, so this also rules out cycles.
			if n.Feature >= f.NFeatures || n.Left <= ni || n.Right <= ni ||
				n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("forest: tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return nil
}
