package regression

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Params configures the forest.
type Params struct {
	Trees          int
	Seed           int64
	MaxDepth       int // 0 grows until leaves are pure
	MinSamplesLeaf int
	MaxFeatures    int // 0 considers every feature at each split
	Bootstrap      bool
}

// DefaultParams mirrors the usual random forest defaults for regression.
func DefaultParams() Params {
	return Params{
		Trees:          100,
		Seed:           42,
		MinSamplesLeaf: 1,
		Bootstrap:      true,
	}
}

// RandomForest averages the predictions of independently grown trees.
// It is immutable after Fit and safe for concurrent Predict calls.
type RandomForest struct {
	trees     []*Tree
	nFeatures int
	params    Params
}

// Fit grows the forest. Trees are fitted in parallel; each tree draws from
// its own RNG seeded from params.Seed, so the result does not depend on
// scheduling.
func Fit(ctx context.Context, x [][]float64, y []float64, params Params) (*RandomForest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and targets (%d) differ", len(x), len(y))
	}
	nFeatures := len(x[0])
	if nFeatures == 0 {
		return nil, fmt.Errorf("no features")
	}
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), nFeatures)
		}
	}
	if params.Trees < 1 {
		return nil, fmt.Errorf("trees must be positive")
	}
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}

	master := rand.New(rand.NewSource(params.Seed))
	seeds := make([]int64, params.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*Tree, params.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range trees {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			trees[i] = fitTree(x, y, sampleRows(len(x), params.Bootstrap, rng), params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &RandomForest{trees: trees, nFeatures: nFeatures, params: params}, nil
}

func sampleRows(n int, bootstrap bool, rng *rand.Rand) []int {
	rows := make([]int, n)
	for i := range rows {
		if bootstrap {
			rows[i] = rng.Intn(n)
		} else {
			rows[i] = i
		}
	}
	return rows
}

// Predict returns the mean of the tree predictions.
func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("got %d features, model expects %d", len(x), f.nFeatures)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

func (f *RandomForest) NumTrees() int   { return len(f.trees) }
func (f *RandomForest) NumFeatures() int { return f.nFeatures }
func (f *RandomForest) Params() Params   { return f.params }
