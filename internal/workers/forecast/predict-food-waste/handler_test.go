package predictfoodwaste

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meal-waste-workers/internal/common/camunda/jobtest"
	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/forecast"
	"meal-waste-workers/internal/forecast/dataset"
	"meal-waste-workers/internal/forecast/encoding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Predictor
// ==========================

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) PredictPayload(ctx context.Context, payload map[string]interface{}) (*forecast.Result, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forecast.Result), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"season":        "Summer",
		"day_type":      "Weekday",
		"day":           "Monday",
		"meal_category": "Lunch",
		"students":      120,
		"requestedBy":   "kitchen-planner",
	}
}

func riceResult() *forecast.Result {
	return &forecast.Result{
		Predictions:   map[string]float64{"Rice": 1.5},
		TotalWaste:    1.5,
		TotalPrepared: 15,
		TotalMinCost:  37.5,
		TotalMaxCost:  45,
		Dishes:        []forecast.DishBreakdown{{Dish: "Rice", PredictedWaste: 1.5, PreparedQty: 15, MinCost: 37.5, MaxCost: 45, Samples: 2}},
	}
}

func newTestHandler(t *testing.T, p Predictor) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: 5 * time.Second, IncludeDishes: true},
		Predictor:    p,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

type wasteModel func([]float64) (float64, error)

func (f wasteModel) Predict(x []float64) (float64, error) { return f(x) }

// ==========================
// Handler Creation Tests
// ==========================

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Predictor: nil})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{
		CustomConfig: &Config{MaxJobsActive: 1},
		Predictor:    &MockPredictor{},
	})
	assert.ErrorContains(t, err, "timeout must be positive")
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	app := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 9, Timeout: 2500},
	}}

	cfg := createConfigFromAppConfig(app, nil)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.IncludeDishes)

	app.Workers[TaskType] = config.WorkerConfig{Enabled: true, Compact: true}
	cfg = createConfigFromAppConfig(app, nil)
	assert.False(t, cfg.IncludeDishes)
	assert.Equal(t, 5, cfg.MaxJobsActive)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(nil, nil))
}

// ==========================
// Handle Tests
// ==========================

func TestHandle_CompletesWithPrediction(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("PredictPayload", mock.Anything, mock.MatchedBy(func(p map[string]interface{}) bool {
		_, extra := p["requestedBy"]
		return len(p) == 5 && !extra && p["season"] == "Summer"
	})).Return(riceResult(), nil)

	client := jobtest.New()
	newTestHandler(t, predictor).Handle(client, jobtest.Job(1, TaskType, validVariables()))

	require.Len(t, client.Completed(), 1)
	assert.Empty(t, client.Thrown())
	assert.Empty(t, client.Failed())

	vars := jobtest.Variables(client.Completed()[0].Variables)
	assert.Equal(t, 1.5, vars["totalWaste"])
	assert.Equal(t, 37.5, vars["totalMinCost"])
	assert.Equal(t, float64(1), vars["dishCount"])
	assert.Equal(t, map[string]interface{}{"Rice": 1.5}, vars["predictions"])
	assert.NotEmpty(t, vars["predictedAt"])
	require.Len(t, vars["dishes"], 1)

	predictor.AssertExpectations(t)
}

func TestExecute_CompactOmitsDishes(t *testing.T) {
	predictor := &MockPredictor{}
	predictor.On("PredictPayload", mock.Anything, mock.Anything).Return(riceResult(), nil)

	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Predictor:    predictor,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), validVariables())
	require.NoError(t, err)
	assert.Nil(t, out.Dishes)
	assert.Equal(t, 1, out.DishCount)
	assert.Equal(t, 37.5, out.TotalMinCost)
}

func TestHandle_ErrorRouting(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantThrown string
		wantFailed bool
	}{
		{
			name:       "missing parameter is thrown",
			err:        errors.NewMissingParameterError("students"),
			wantThrown: string(errors.ErrCodeMissingParameter),
		},
		{
			name:       "invalid type is thrown",
			err:        errors.NewInvalidTypeError("students", "abc"),
			wantThrown: string(errors.ErrCodeInvalidType),
		},
		{
			name:       "no data is thrown",
			err:        errors.NewNoDataFoundError("Winter/Weekday/Monday/Lunch"),
			wantThrown: string(errors.ErrCodeNoDataFound),
		},
		{
			name:       "inference error is thrown",
			err:        errors.NewInferenceError("Rice", -1),
			wantThrown: string(errors.ErrCodeInferenceError),
		},
		{
			name:       "transient failure is retried",
			err:        errors.NewQueryExecutionFailedError("dataset", fmt.Errorf("timeout")),
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &MockPredictor{}
			predictor.On("PredictPayload", mock.Anything, mock.Anything).Return(nil, tt.err)

			client := jobtest.New()
			newTestHandler(t, predictor).Handle(client, jobtest.Job(7, TaskType, validVariables()))

			assert.Empty(t, client.Completed())
			if tt.wantFailed {
				require.Len(t, client.Failed(), 1)
				assert.Equal(t, int32(2), client.Failed()[0].Retries)
				return
			}

			require.Len(t, client.Thrown(), 1)
			thrown := client.Thrown()[0]
			assert.Equal(t, tt.wantThrown, thrown.ErrorCode)
			assert.Equal(t, int64(7), thrown.JobKey)

			vars := jobtest.Variables(thrown.Variables)
			assert.Equal(t, tt.wantThrown, vars["errorCode"])
		})
	}
}

// ==========================
// Integration with the forecast service
// ==========================

func TestHandle_WithForecastService(t *testing.T) {
	records := []dataset.Record{
		{Season: "Summer", DayType: "Weekday", Day: "Monday", MealCategory: "Lunch", DishName: "Rice", StudentCount: 100, PreparedQty: 10, CostMin: 2, CostMax: 3},
		{Season: "Summer", DayType: "Weekday", Day: "Monday", MealCategory: "Lunch", DishName: "Rice", StudentCount: 100, PreparedQty: 20, CostMin: 3, CostMax: 3},
		{Season: "Winter", DayType: "Weekend", Day: "Sunday", MealCategory: "Dinner", DishName: "Dal", StudentCount: 80, PreparedQty: 5, CostMin: 4, CostMax: 5},
	}
	cols := map[encoding.Field][]string{}
	for _, r := range records {
		cols[encoding.Season] = append(cols[encoding.Season], r.Season)
		cols[encoding.DayType] = append(cols[encoding.DayType], r.DayType)
		cols[encoding.Day] = append(cols[encoding.Day], r.Day)
		cols[encoding.MealCategory] = append(cols[encoding.MealCategory], r.MealCategory)
		cols[encoding.DishName] = append(cols[encoding.DishName], r.DishName)
	}
	bank, err := encoding.NewBank(cols)
	require.NoError(t, err)
	encoded, err := forecast.EncodeRecords(bank, records)
	require.NoError(t, err)
	artifact, err := forecast.NewArtifact(bank, wasteModel(func(x []float64) (float64, error) { return x[5] / 10, nil }), encoded)
	require.NoError(t, err)
	svc, err := forecast.NewService(artifact, logger.NewNoOpLogger())
	require.NoError(t, err)

	h := newTestHandler(t, svc)

	client := jobtest.New()
	h.Handle(client, jobtest.Job(2, TaskType, validVariables()))
	require.Len(t, client.Completed(), 1)
	vars := jobtest.Variables(client.Completed()[0].Variables)
	assert.Equal(t, 15.0, vars["totalPrepared"])
	assert.Equal(t, 37.5, vars["totalMinCost"])

	// process variables arrive as JSON, so students is a float64 here
	bad := validVariables()
	bad["students"] = 12.5
	client = jobtest.New()
	h.Handle(client, jobtest.Job(3, TaskType, bad))
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, string(errors.ErrCodeInvalidType), client.Thrown()[0].ErrorCode)

	missing := validVariables()
	delete(missing, "day")
	client = jobtest.New()
	h.Handle(client, jobtest.Job(4, TaskType, missing))
	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, string(errors.ErrCodeMissingParameter), client.Thrown()[0].ErrorCode)
}
