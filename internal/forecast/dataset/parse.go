package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rowParser turns one row of string cells into a Record.
type rowParser struct {
	idx map[string]int
}

func (p rowParser) parse(cells []string) (Record, error) {
	get := func(col string) string {
		i := p.idx[col]
		if i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	rec := Record{
		Season:       get(ColSeason),
		DayType:      get(ColDayType),
		Day:          get(ColDay),
		MealCategory: get(ColMealCategory),
		DishName:     get(ColDishName),
	}
	for _, col := range []string{ColSeason, ColDayType, ColDay, ColMealCategory, ColDishName} {
		if get(col) == "" {
			return Record{}, fmt.Errorf("column %s is empty", col)
		}
	}

	students, err := parseCount(get(ColStudentCount))
	if err != nil {
		return Record{}, fmt.Errorf("column %s: %w", ColStudentCount, err)
	}
	rec.StudentCount = students

	nums := []struct {
		col string
		dst *float64
	}{
		{ColPrepared, &rec.PreparedQty},
		{ColConsumed, &rec.ConsumedQty},
		{ColWaste, &rec.WasteQty},
		{ColCostMin, &rec.CostMin},
		{ColCostMax, &rec.CostMax},
	}
	for _, n := range nums {
		v, err := parseQuantity(get(n.col))
		if err != nil {
			return Record{}, fmt.Errorf("column %s: %w", n.col, err)
		}
		*n.dst = v
	}
	return rec, nil
}

func parseQuantity(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

// parseCount accepts "120" and "120.0" but not "120.5".
func parseCount(s string) (int, error) {
	v, err := parseQuantity(s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return int(v), nil
}
