package forest

import (
	"math/rand/v2"
	"slices"
)

// Node is one flattened tree node. Leaves have Feature == -1 and carry the
// class distribution of their training samples in Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree is a fitted CART tree stored as a node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// leaf walks x down the tree and returns the leaf distribution.
func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// builder grows a single tree. It is not safe for concurrent use; each tree
// gets its own.
type builder struct {
	x           [][]float64
	y           []int
	numClasses  int
	numFeatures int
	maxFeatures int
	maxDepth    int
	minSplit    int
	minLeaf     int
	rng         *rand.Rand

	nodes      []Node
	importance []float64
}

func (b *builder) counts(idx []int) []float64 {
	c := make([]float64, b.numClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	s := 0.0
	for _, c := range counts {
		p := c / n
		s += p * p
	}
	return 1 - s
}

func (b *builder) newLeaf(counts []float64, n float64) int {
	v := make([]float64, len(counts))
	for k, c := range counts {
		v[k] = c / n
	}
	b.nodes = append(b.nodes, Node{Feature: -1, Value: v})
	return len(b.nodes) - 1
}

// grow builds the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	counts := b.counts(idx)
	n := float64(len(idx))
	impurity := gini(counts, n)

	if impurity == 0 || len(idx) < b.minSplit || len(idx) < 2*b.minLeaf ||
		(b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.newLeaf(counts, n)
	}

	feature, threshold, childImpurity, ok := b.bestSplit(idx, counts)
	if !ok || childImpurity >= impurity*n {
		return b.newLeaf(counts, n)
	}
	b.importance[feature] += impurity*n - childImpurity

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit searches a random subset of features for the split minimizing the
// weighted child gini. Constant features do not count toward the subset size.
func (b *builder) bestSplit(idx []int, total []float64) (feature int, threshold, score float64, ok bool) {
	order := b.rng.Perm(b.numFeatures)
	sorted := make([]int, len(idx))
	left := make([]float64, b.numClasses)
	right := make([]float64, b.numClasses)
	n := len(idx)

	visited := 0
	for _, f := range order {
		if visited >= b.maxFeatures {
			break
		}
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int {
			va, vc := b.x[a][f], b.x[c][f]
			switch {
			case va < vc:
				return -1
			case va > vc:
				return 1
			}
			return 0
		})
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}
		visited++

		clear(left)
		copy(right, total)
		for i := 0; i < n-1; i++ {
			k := b.y[sorted[i]]
			left[k]++
			right[k]--
			lo, hi := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			s := float64(nl)*gini(left, float64(nl)) + float64(nr)*gini(right, float64(nr))
			if !ok || s < score {
				t := lo + (hi-lo)/2
				if t == hi {
					t = lo
				}
				feature, threshold, score, ok = f, t, s, true
			}
		}
	}
	return feature, threshold, score, ok
}
