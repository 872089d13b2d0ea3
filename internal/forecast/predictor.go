package forecast

import (
	"fmt"
	"math"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/forecast/encoding"
)

// Predict runs the model once per aggregated dish and rolls the results up.
// Cost is prepared quantity times mean unit cost; predicted waste does not
// enter it.
func Predict(model Model, bank *encoding.Bank, ctx EncodedContext, aggregates []DishAggregate) (*Result, error) {
	if len(aggregates) == 0 {
		return nil, errors.NewNoDataFoundError(fmt.Sprintf(
			"season=%d day_type=%d day=%d meal_category=%d",
			ctx.Season, ctx.DayType, ctx.Day, ctx.MealCategory,
		))
	}

	res := &Result{
		Predictions: make(map[string]float64, len(aggregates)),
		Dishes:      make([]DishBreakdown, 0, len(aggregates)),
	}

	for _, agg := range aggregates {
		dish, err := bank.Decode(encoding.DishName, agg.DishCode)
		if err != nil {
			return nil, err
		}

		waste, err := model.Predict(ctx.Features(agg.PreparedQty))
		if err != nil {
			return nil, errors.NewInferenceFailureError(dish, err)
		}
		if math.IsNaN(waste) || math.IsInf(waste, 0) || waste < 0 {
			return nil, errors.NewInferenceError(dish, waste)
		}

		minCost := agg.PreparedQty * agg.CostMin
		maxCost := agg.PreparedQty * agg.CostMax

		res.Predictions[dish] = waste
		res.Dishes = append(res.Dishes, DishBreakdown{
			Dish:           dish,
			PredictedWaste: waste,
			PreparedQty:    agg.PreparedQty,
			MinCost:        minCost,
			MaxCost:        maxCost,
			Samples:        agg.Samples,
		})

		res.TotalWaste += waste
		res.TotalPrepared += agg.PreparedQty
		res.TotalMinCost += minCost
		res.TotalMaxCost += maxCost
	}

	return res, nil
}
