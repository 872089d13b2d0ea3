package dataset

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"meal-waste-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalName(t *testing.T) {
	tests := map[string]string{
		"Meal Type":          ColMealCategory,
		"Food Item":          ColDishName,
		"Wasted (kg)":        ColWaste,
		"Consumed (kg)":      ColConsumed,
		"Prepared (kg)":      ColPrepared,
		"Number of Students": ColStudentCount,
		"Holiday or Weekday": ColDayType,
		"1kg Cost (Min)":     ColCostMin,
		"1kg Cost (Max)":     ColCostMax,
		" Season ":           ColSeason,
		"\ufeffSeason":        ColSeason,
		"Day_Type":           ColDayType,
	}

	for raw, want := range tests {
		assert.Equal(t, want, CanonicalName(raw), "header %q", raw)
	}
}

func TestCSVSource_Load(t *testing.T) {
	src := NewCSVSource(filepath.Join("testdata", "meals.csv"))

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "Summer", first.Season)
	assert.Equal(t, "Weekday", first.DayType)
	assert.Equal(t, "Monday", first.Day)
	assert.Equal(t, "Lunch", first.MealCategory)
	assert.Equal(t, "Rice", first.DishName)
	assert.Equal(t, 120, first.StudentCount)
	assert.Equal(t, 10.0, first.PreparedQty)
	assert.Equal(t, 8.0, first.ConsumedQty)
	assert.Equal(t, 2.0, first.WasteQty)
	assert.Equal(t, 2.0, first.CostMin)
	assert.Equal(t, 3.0, first.CostMax)

	assert.Equal(t, 4.5, records[3].ConsumedQty)
}

func TestReadCSV_CanonicalHeaders(t *testing.T) {
	content := strings.Join([]string{
		strings.Join(Columns, ","),
		"Summer,Weekday,Monday,Lunch,Rice,120.0,10,8,2,2,3",
		",,,,,,,,,,",
	}, "\n")

	records, err := ReadCSV(context.Background(), strings.NewReader(content), "inline")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 120, records[0].StudentCount)
}

func TestReadCSV_Failures(t *testing.T) {
	header := strings.Join(Columns, ",")

	tests := []struct {
		name    string
		content string
		detail  string
	}{
		{
			name:    "empty file",
			content: "",
			detail:  "empty",
		},
		{
			name:    "missing column",
			content: "Season,Day\nSummer,Monday\n",
			detail:  "missing columns",
		},
		{
			name:    "bad number",
			content: header + "\nSummer,Weekday,Monday,Lunch,Rice,120,ten,8,2,2,3\n",
			detail:  "line 2",
		},
		{
			name:    "fractional students",
			content: header + "\nSummer,Weekday,Monday,Lunch,Rice,120.5,10,8,2,2,3\n",
			detail:  ColStudentCount,
		},
		{
			name:    "empty label",
			content: header + "\nSummer,Weekday,Monday,Lunch,,120,10,8,2,2,3\n",
			detail:  ColDishName,
		},
		{
			name:    "header only",
			content: header + "\n",
			detail:  "no records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.content), "inline")
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeDatasetLoadFailed, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := NewCSVSource("testdata/nope.csv").Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatasetLoadFailed, errors.CodeOf(err))
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, strings.NewReader(strings.Join(Columns, ",")+"\n"), "inline")
	assert.Error(t, err)
}
