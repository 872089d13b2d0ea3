package regression

import "math/rand"

// TrainTestSplit shuffles 0..n-1 with seed and holds out round(n*testRatio)
// rows for testing. At least one row always stays in the training set.
func TrainTestSplit(n int, testRatio float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	nTest := int(float64(n)*testRatio + 0.5)
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}

// Subset picks rows of x and y by index.
func Subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	sx := make([][]float64, len(idx))
	sy := make([]float64, len(idx))
	for i, j := range idx {
		sx[i] = x[j]
		sy[i] = y[j]
	}
	return sx, sy
}
