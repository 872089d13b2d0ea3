// Package regression implements the random forest regressor used for waste prediction.
package regression

import (
	"math/rand"
	"sort"
)

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

// Tree is a CART regression tree grown on variance reduction.
type Tree struct {
	root      *node
	nFeatures int
}

// Predict walks the tree. x must have the length the tree was fit on.
func (t *Tree) Predict(x []float64) float64 {
	n := t.root
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	return depth(t.root)
}

func depth(n *node) int {
	if n == nil || n.leaf {
		return 0
	}
	l, r := depth(n.left), depth(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	params   Params
	rng      *rand.Rand
	features []int
}

// fitTree grows a tree on the rows listed in sample (duplicates allowed).
func fitTree(x [][]float64, y []float64, sample []int, params Params, rng *rand.Rand) *Tree {
	nFeatures := len(x[0])
	b := &treeBuilder{
		x:        x,
		y:        y,
		params:   params,
		rng:      rng,
		features: make([]int, nFeatures),
	}
	for i := range b.features {
		b.features[i] = i
	}

	rows := append([]int(nil), sample...)
	return &Tree{root: b.grow(rows, 0), nFeatures: nFeatures}
}

func (b *treeBuilder) grow(rows []int, level int) *node {
	mean, sse := b.stats(rows)

	if sse <= 1e-12 ||
		len(rows) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && level >= b.params.MaxDepth) {
		return &node{leaf: true, value: mean}
	}

	split, ok := b.bestSplit(rows, sse)
	if !ok {
		return &node{leaf: true, value: mean}
	}

	left := make([]int, 0, split.nLeft)
	right := make([]int, 0, len(rows)-split.nLeft)
	for _, r := range rows {
		if b.x[r][split.feature] <= split.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &node{
		feature:   split.feature,
		threshold: split.threshold,
		left:      b.grow(left, level+1),
		right:     b.grow(right, level+1),
	}
}

func (b *treeBuilder) stats(rows []int) (mean, sse float64) {
	var sum, sumSq float64
	for _, r := range rows {
		sum += b.y[r]
		sumSq += b.y[r] * b.y[r]
	}
	n := float64(len(rows))
	mean = sum / n
	sse = sumSq - sum*sum/n
	return mean, sse
}

type split struct {
	feature   int
	threshold float64
	nLeft     int
	score     float64
}

// candidateFeatures returns the features to try at one node. With MaxFeatures
// unset every feature is tried, in a shuffled order so ties do not always
// favour the first column.
func (b *treeBuilder) candidateFeatures() []int {
	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})
	k := b.params.MaxFeatures
	if k <= 0 || k > len(b.features) {
		k = len(b.features)
	}
	return b.features[:k]
}

// bestSplit finds the threshold minimising the summed squared error of both
// children. Only splits that reduce the parent's error are accepted.
func (b *treeBuilder) bestSplit(rows []int, parentSSE float64) (split, bool) {
	best := split{score: parentSSE}
	found := false
	minLeaf := b.params.MinSamplesLeaf

	sorted := make([]int, len(rows))
	for _, f := range b.candidateFeatures() {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		var totalSum, totalSq float64
		for _, r := range sorted {
			totalSum += b.y[r]
			totalSq += b.y[r] * b.y[r]
		}

		var leftSum, leftSq float64
		n := len(sorted)
		for i := 0; i < n-1; i++ {
			yi := b.y[sorted[i]]
			leftSum += yi
			leftSq += yi * yi

			nl := i + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			score := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))

			if score < best.score-1e-12 {
				best = split{
					feature:   f,
					threshold: cur + (next-cur)/2,
					nLeft:     nl,
					score:     score,
				}
				found = true
			}
		}
	}
	return best, found
}
