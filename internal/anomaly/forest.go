package anomaly

import (
	"fmt"
	"math"
	"math/rand"
)

// ForestConfig controls isolation forest construction.
type ForestConfig struct {
	Trees         int
	SubsampleSize int
	Seed          int64
}

// DefaultForestConfig returns the standard ensemble parameters.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:         100,
		SubsampleSize: 256,
		Seed:          42,
	}
}

// Forest is an ensemble of randomized partition trees over a single
// numeric feature. A point isolated in few random splits sits far from
// the bulk of the distribution and scores close to 1; typical points
// score near 0.5 or below.
type Forest struct {
	trees      []*treeNode
	normalizer float64 // expected path length for the subsample size
}

type treeNode struct {
	split    float64
	left     *treeNode
	right    *treeNode
	size     int  // points at this node
	external bool // leaf
}

// ForestStrategy builds isolation forests. It is the reference Strategy
// implementation.
type ForestStrategy struct {
	cfg ForestConfig
}

// NewForestStrategy creates a strategy with the given config, filling
// zero values from the defaults.
func NewForestStrategy(cfg ForestConfig) *ForestStrategy {
	def := DefaultForestConfig()
	if cfg.Trees <= 0 {
		cfg.Trees = def.Trees
	}
	if cfg.SubsampleSize <= 0 {
		cfg.SubsampleSize = def.SubsampleSize
	}
	return &ForestStrategy{cfg: cfg}
}

// Fit builds the ensemble over the given feature sample. Construction is
// deterministic for a fixed seed, input, and config.
func (s *ForestStrategy) Fit(features []float64) (Model, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("fit forest: empty feature sample")
	}

	rng := rand.New(rand.NewSource(s.cfg.Seed))

	psi := s.cfg.SubsampleSize
	if psi > len(features) {
		psi = len(features)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))
	if maxDepth < 1 {
		maxDepth = 1
	}

	forest := &Forest{
		trees:      make([]*treeNode, s.cfg.Trees),
		normalizer: avgPathLength(psi),
	}

	for i := 0; i < s.cfg.Trees; i++ {
		sample := subsample(features, psi, rng)
		forest.trees[i] = buildTree(sample, 0, maxDepth, rng)
	}

	return forest, nil
}

// Score returns the anomaly score for a value, normalized to roughly
// [0,1] via the expected path length of a random binary search tree over
// the subsample size.
func (f *Forest) Score(v float64) float64 {
	if f.normalizer == 0 {
		// Subsample of one point: no splits possible, nothing is anomalous.
		return 0.5
	}
	total := 0.0
	for _, t := range f.trees {
		total += pathLength(t, v, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/f.normalizer)
}

// subsample draws psi points without replacement.
func subsample(features []float64, psi int, rng *rand.Rand) []float64 {
	if psi >= len(features) {
		return features
	}
	out := make([]float64, psi)
	for i, j := range rng.Perm(len(features))[:psi] {
		out[i] = features[j]
	}
	return out
}

// buildTree recursively partitions the sample at uniformly random split
// values within the observed range. A node terminates when it holds a
// single point, the range collapses, or the depth limit is reached.
func buildTree(sample []float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	if len(sample) <= 1 || depth >= maxDepth {
		return &treeNode{size: len(sample), external: true}
	}

	lo, hi := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// Degenerate partition: identical values cannot be separated.
		return &treeNode{size: len(sample), external: true}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right []float64
	for _, v := range sample {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}

	return &treeNode{
		split: split,
		left:  buildTree(left, depth+1, maxDepth, rng),
		right: buildTree(right, depth+1, maxDepth, rng),
		size:  len(sample),
	}
}

// pathLength walks a tree and returns the isolation depth of v, with the
// standard size adjustment at external nodes.
func pathLength(n *treeNode, v float64, depth int) float64 {
	if n.external {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

const eulerMascheroni = 0.5772156649

// avgPathLength is c(n), the expected path length of an unsuccessful
// search in a random binary search tree over n points.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		h := math.Log(float64(n-1)) + eulerMascheroni
		return 2*h - 2*float64(n-1)/float64(n)
	}
}
