package regression

import (
	"fmt"
	"math"
)

// Evaluation summarises predictions against held-out targets.
type Evaluation struct {
	Samples int     `json:"samples"`
	R2      float64 `json:"r2"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
}

// Predictor is anything that maps a feature row to a value.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// Evaluate scores model on x/y. R2 is 0 when the targets have no variance.
func Evaluate(model Predictor, x [][]float64, y []float64) (Evaluation, error) {
	if len(x) != len(y) {
		return Evaluation{}, fmt.Errorf("feature rows (%d) and targets (%d) differ", len(x), len(y))
	}
	if len(y) == 0 {
		return Evaluation{}, nil
	}

	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	var absSum, sqSum, totSum float64
	for i, row := range x {
		pred, err := model.Predict(row)
		if err != nil {
			return Evaluation{}, err
		}
		diff := pred - y[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		totSum += (y[i] - mean) * (y[i] - mean)
	}

	n := float64(len(y))
	ev := Evaluation{
		Samples: len(y),
		MAE:     absSum / n,
		RMSE:    math.Sqrt(sqSum / n),
	}
	if totSum > 0 {
		ev.R2 = 1 - sqSum/totSum
	}
	return ev, nil
}
