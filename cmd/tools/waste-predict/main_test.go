package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/database"
	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/pkg/registry"
)

type row struct {
	season, dayType, day, meal, dish string
	students                         int
	prepared, waste, costMin, costMax float64
}

func sampleRows() []row {
	var rows []row
	for i := 0; i < 8; i++ {
		s := 100 + i*10
		rows = append(rows,
			row{"Summer", "Weekday", "Monday", "Lunch", "Rice", s, 10 + float64(i), 1 + float64(i)/4, 2, 3},
			row{"Summer", "Weekday", "Monday", "Lunch", "Dal", s, 6, 0.5 + float64(i)/8, 4, 5},
			row{"Winter", "Holiday", "Sunday", "Dinner", "Roti", s, 5, 0.25 * float64(i), 1.5, 2},
		)
	}
	return rows
}

func writeCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Season,Holiday or Weekday,Day,Meal Type,Food Item,Number of Students,Prepared (kg),Consumed (kg),Wasted (kg),1kg Cost (Min),1kg Cost (Max)\n")
	for _, r := range sampleRows() {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%d,%g,%g,%g,%g,%g\n",
			r.season, r.dayType, r.day, r.meal, r.dish, r.students,
			r.prepared, r.prepared-r.waste, r.waste, r.costMin, r.costMax)
	}
	path := filepath.Join(t.TempDir(), "meals.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func writeSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meals.db")
	client, err := database.NewSQLite(config.SQLiteConfig{Path: path})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.DB.Exec(`CREATE TABLE meal_waste (
		season TEXT, day_type TEXT, day TEXT, meal_category TEXT, dish_name TEXT,
		student_count INTEGER, prepared_kg REAL, consumed_kg REAL, waste_kg REAL,
		cost_min REAL, cost_max REAL)`)
	require.NoError(t, err)

	for _, r := range sampleRows() {
		_, err = client.DB.Exec(`INSERT INTO meal_waste VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.season, r.dayType, r.day, r.meal, r.dish, r.students,
			r.prepared, r.prepared-r.waste, r.waste, r.costMin, r.costMax)
		require.NoError(t, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var c cli
	parser, err := kong.New(&c,
		kong.Name("waste-predict"),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
		kong.Vars{"version": "test", "registry_path": filepath.Join("..", "..", "..", registry.DefaultPath)},
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	err = kctx.Run(newContext(context.Background(), c.Globals, &out, logger.NewTestLogger(t)))
	return out.String(), err
}

func TestPredict_Table(t *testing.T) {
	path := writeCSV(t)

	out, err := run(t, "--dataset", path, "--trees", "5", "predict", "Summer", "Weekday", "Monday", "Lunch", "120")
	require.NoError(t, err)

	assert.Contains(t, out, "Rice")
	assert.Contains(t, out, "Dal")
	assert.Contains(t, out, "TOTAL")
	assert.NotContains(t, out, "Roti")
}

func TestPredict_JSON(t *testing.T) {
	path := writeCSV(t)

	out, err := run(t, "--dataset", path, "--trees", "5", "--json", "predict", "Summer", "Weekday", "Monday", "Lunch", "120")
	require.NoError(t, err)

	var res struct {
		Predictions  map[string]float64 `json:"predictions"`
		TotalMinCost float64            `json:"total_min_cost"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Predictions, 2)
	// Rice averages 13.5kg at 2/kg, Dal 6kg at 4/kg
	assert.InDelta(t, 51.0, res.TotalMinCost, 1e-9)
}

func TestPredict_Errors(t *testing.T) {
	path := writeCSV(t)

	tests := []struct {
		name    string
		args    []string
		code    errors.ErrorCode
		message string
	}{
		{"non integer students", []string{"Summer", "Weekday", "Monday", "Lunch", "many"}, errors.ErrCodeInvalidType, "Students must be an integer."},
		{"unknown season", []string{"Monsoon", "Weekday", "Monday", "Lunch", "120"}, errors.ErrCodeUnknownCategory, ""},
		{"no history", []string{"Winter", "Weekday", "Monday", "Lunch", "120"}, errors.ErrCodeNoDataFound, "No data found for the given parameters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dataset", path, "--trees", "3", "predict"}, tt.args...)
			_, err := run(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestPredict_MissingArgument(t *testing.T) {
	_, err := run(t, "predict", "Summer", "Weekday")
	assert.Error(t, err)
}

func TestVocab(t *testing.T) {
	path := writeCSV(t)

	out, err := run(t, "--dataset", path, "vocab")
	require.NoError(t, err)
	assert.Contains(t, out, "Season")
	assert.Contains(t, out, "Summer, Winter")
	assert.Contains(t, out, "Dal, Rice, Roti")
}

func TestVocab_SQLite(t *testing.T) {
	db := writeSQLite(t)

	out, err := run(t, "--sqlite", db, "--json", "vocab")
	require.NoError(t, err)

	var vocab map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &vocab))
	assert.Equal(t, []string{"Holiday", "Weekday"}, vocab["Day_Type"])
	assert.Equal(t, []string{"Dinner", "Lunch"}, vocab["Meal_Category"])
}

func TestEvaluate(t *testing.T) {
	path := writeCSV(t)

	out, err := run(t, "--dataset", path, "--trees", "5", "--json", "evaluate", "--test-ratio", "0.25")
	require.NoError(t, err)

	var info struct {
		Records    int `json:"records"`
		TrainRows  int `json:"train_rows"`
		Trees      int `json:"trees"`
		Evaluation struct {
			Samples int `json:"samples"`
		} `json:"evaluation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 24, info.Records)
	assert.Equal(t, 5, info.Trees)
	assert.Equal(t, info.Records, info.TrainRows+info.Evaluation.Samples)
	assert.Positive(t, info.Evaluation.Samples)
}

func TestEvaluate_BadRatio(t *testing.T) {
	path := writeCSV(t)

	_, err := run(t, "--dataset", path, "evaluate", "--test-ratio", "1.5")
	assert.ErrorContains(t, err, "test-ratio")
}

func TestMissingDataset(t *testing.T) {
	_, err := run(t, "--dataset", filepath.Join(t.TempDir(), "absent.csv"), "vocab")
	assert.Error(t, err)
}

func TestActivities(t *testing.T) {
	out, err := run(t, "activities")
	require.NoError(t, err)
	assert.Contains(t, out, "predict-food-waste")
	assert.Contains(t, out, "send-waste-alerts")
	assert.Contains(t, out, "NO_DATA_FOUND")
}

func TestActivities_MissingFile(t *testing.T) {
	_, err := run(t, "activities", "--registry", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
