// Package forecast predicts per-dish food waste and ingredient cost for a planned meal service.
package forecast

import "meal-waste-workers/internal/forecast/encoding"

// FeatureOrder is the column order of every feature vector fed to the model,
// at training and at inference.
var FeatureOrder = []string{"Season", "Day_Type", "Day", "Meal_Category", "Student_Count", "Prepared_kg"}

// Model is a trained regressor over FeatureOrder vectors.
type Model interface {
	Predict(features []float64) (float64, error)
}

// EncodedRecord is a historical record with its categorical fields encoded.
type EncodedRecord struct {
	Season       int
	DayType      int
	Day          int
	MealCategory int
	DishName     int
	StudentCount int
	PreparedQty  float64
	ConsumedQty  float64
	WasteQty     float64
	CostMin      float64
	CostMax      float64
}

// PredictionContext is a validated request with labels still decoded.
type PredictionContext struct {
	Season       string `json:"season"`
	DayType      string `json:"day_type"`
	Day          string `json:"day"`
	MealCategory string `json:"meal_category"`
	StudentCount int    `json:"students"`
}

// EncodedContext is a PredictionContext after encoding.
type EncodedContext struct {
	Season       int
	DayType      int
	Day          int
	MealCategory int
	StudentCount int
}

// Encode maps the context labels through bank.
func (c PredictionContext) Encode(bank *encoding.Bank) (EncodedContext, error) {
	enc := EncodedContext{StudentCount: c.StudentCount}

	fields := []struct {
		field encoding.Field
		label string
		dst   *int
	}{
		{encoding.Season, c.Season, &enc.Season},
		{encoding.DayType, c.DayType, &enc.DayType},
		{encoding.Day, c.Day, &enc.Day},
		{encoding.MealCategory, c.MealCategory, &enc.MealCategory},
	}
	for _, f := range fields {
		code, err := bank.Encode(f.field, f.label)
		if err != nil {
			return EncodedContext{}, err
		}
		*f.dst = code
	}
	return enc, nil
}

// Features builds the model input for one dish in FeatureOrder.
func (c EncodedContext) Features(preparedQty float64) []float64 {
	return []float64{
		float64(c.Season),
		float64(c.DayType),
		float64(c.Day),
		float64(c.MealCategory),
		float64(c.StudentCount),
		preparedQty,
	}
}

// DishAggregate holds the mean historical quantities of one dish for a context.
type DishAggregate struct {
	DishCode    int
	PreparedQty float64
	CostMin     float64
	CostMax     float64
	Samples     int
}

// DishBreakdown is the per-dish part of a Result.
type DishBreakdown struct {
	Dish           string  `json:"dish"`
	PredictedWaste float64 `json:"predicted_waste"`
	PreparedQty    float64 `json:"prepared"`
	MinCost        float64 `json:"min_cost"`
	MaxCost        float64 `json:"max_cost"`
	Samples        int     `json:"samples"`
}

// Result is the outcome of one prediction.
type Result struct {
	Predictions   map[string]float64 `json:"predictions"`
	TotalWaste    float64            `json:"total_waste"`
	TotalPrepared float64            `json:"total_prepared"`
	TotalMinCost  float64            `json:"total_min_cost"`
	TotalMaxCost  float64            `json:"total_max_cost"`
	Dishes        []DishBreakdown    `json:"dishes"`
}
