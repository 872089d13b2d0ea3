package predictfoodwaste

import "meal-waste-workers/internal/forecast"

// inputVariables are the process variables forwarded to the predictor. They
// stay untyped so the shared request validation sees exactly what the
// process sent.
var inputVariables = []string{"season", "day_type", "day", "meal_category", "students"}

type Output struct {
	Predictions   map[string]float64       `json:"predictions"`
	TotalWaste    float64                  `json:"totalWaste"`
	TotalPrepared float64                  `json:"totalPrepared"`
	TotalMinCost  float64                  `json:"totalMinCost"`
	TotalMaxCost  float64                  `json:"totalMaxCost"`
	Dishes        []forecast.DishBreakdown `json:"dishes,omitempty"`
	DishCount     int                      `json:"dishCount"`
	PredictedAt   string                   `json:"predictedAt"`
}
