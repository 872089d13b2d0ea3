// Package dataset loads the historical meal records the forecast model is built from.
package dataset

import (
	"context"
	"fmt"
	"strings"
)

// Canonical column names.
const (
	ColSeason       = "Season"
	ColDayType      = "Day_Type"
	ColDay          = "Day"
	ColMealCategory = "Meal_Category"
	ColDishName     = "Dish_Name"
	ColStudentCount = "Student_Count"
	ColPrepared     = "Prepared_kg"
	ColConsumed     = "Consumed_kg"
	ColWaste        = "Waste_kg"
	ColCostMin      = "Cost_Min"
	ColCostMax      = "Cost_Max"
)

// Columns lists every column a dataset must provide.
var Columns = []string{
	ColSeason, ColDayType, ColDay, ColMealCategory, ColDishName,
	ColStudentCount, ColPrepared, ColConsumed, ColWaste, ColCostMin, ColCostMax,
}

// headerRenames maps the survey spreadsheet headers onto canonical names.
var headerRenames = map[string]string{
	"Meal Type":          ColMealCategory,
	"Food Item":          ColDishName,
	"Wasted (kg)":        ColWaste,
	"Consumed (kg)":      ColConsumed,
	"Prepared (kg)":      ColPrepared,
	"Number of Students": ColStudentCount,
	"Holiday or Weekday": ColDayType,
	"1kg Cost (Min)":     ColCostMin,
	"1kg Cost (Max)":     ColCostMax,
}

// CanonicalName returns the canonical name for a raw header. Unknown headers pass through trimmed.
func CanonicalName(header string) string {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if renamed, ok := headerRenames[h]; ok {
		return renamed
	}
	return h
}

// Record is one historical meal service for one dish, with labels still decoded.
type Record struct {
	Season       string
	DayType      string
	Day          string
	MealCategory string
	DishName     string
	StudentCount int
	PreparedQty  float64
	ConsumedQty  float64
	WasteQty     float64
	CostMin      float64
	CostMax      float64
}

// Source loads the full set of historical records.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
	Name() string
}

// columnIndex resolves the position of every canonical column in header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[CanonicalName(h)] = i
	}

	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}
