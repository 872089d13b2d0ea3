package forecast

// Aggregate selects the records whose four context codes equal ctx exactly and
// averages prepared quantity and unit costs per dish. Dishes come back in the
// order they first appear in records. No match yields an empty slice.
func Aggregate(records []EncodedRecord, ctx EncodedContext) []DishAggregate {
	type acc struct {
		prepared, costMin, costMax float64
		n                          int
	}

	var order []int
	sums := make(map[int]*acc)

	for i := range records {
		r := &records[i]
		if r.Season != ctx.Season ||
			r.DayType != ctx.DayType ||
			r.Day != ctx.Day ||
			r.MealCategory != ctx.MealCategory {
			continue
		}

		a, ok := sums[r.DishName]
		if !ok {
			a = &acc{}
			sums[r.DishName] = a
			order = append(order, r.DishName)
		}
		a.prepared += r.PreparedQty
		a.costMin += r.CostMin
		a.costMax += r.CostMax
		a.n++
	}

	out := make([]DishAggregate, 0, len(order))
	for _, dish := range order {
		a := sums[dish]
		n := float64(a.n)
		out = append(out, DishAggregate{
			DishCode:    dish,
			PreparedQty: a.prepared / n,
			CostMin:     a.costMin / n,
			CostMax:     a.costMax / n,
			Samples:     a.n,
		})
	}
	return out
}
