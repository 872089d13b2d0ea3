package forecast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"meal-waste-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "forecast", ttl, logger.NewTestLogger(t)), mr
}

var cachedContext = PredictionContext{Season: "Summer", DayType: "Weekday", Day: "Monday", MealCategory: "Lunch", StudentCount: 120}

func TestCache_RoundTripAndTTL(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "v1", cachedContext)
	assert.False(t, ok)

	want := &Result{Predictions: map[string]float64{"Rice": 1.5}, TotalWaste: 1.5, TotalPrepared: 15, TotalMinCost: 37.5, TotalMaxCost: 45}
	cache.Set(ctx, "v1", cachedContext, want)

	got, ok := cache.Get(ctx, "v1", cachedContext)
	require.True(t, ok)
	assert.Equal(t, want.Predictions, got.Predictions)
	assert.Equal(t, want.TotalMinCost, got.TotalMinCost)

	key := cache.key("v1", cachedContext)
	assert.Equal(t, time.Minute, mr.TTL(key))

	// another artifact build never sees the entry
	_, ok = cache.Get(ctx, "v2", cachedContext)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "v1", cachedContext)
	assert.False(t, ok)
}

func TestCache_KeyDependsOnStudentCount(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)

	other := cachedContext
	other.StudentCount = 121
	assert.NotEqual(t, cache.key("v1", cachedContext), cache.key("v1", other))
	assert.Contains(t, cache.key("v1", cachedContext), "forecast:prediction:v1:")
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	cache, mr := newMiniredisCache(t, time.Minute)
	require.NoError(t, mr.Set(cache.key("v1", cachedContext), "{not json"))

	_, ok := cache.Get(context.Background(), "v1", cachedContext)
	assert.False(t, ok)
}

func TestCache_RedisErrorsAreMisses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, "forecast", time.Minute, logger.NewTestLogger(t))
	key := cache.key("v1", cachedContext)

	mock.ExpectGet(key).SetErr(fmt.Errorf("connection refused"))
	_, ok := cache.Get(context.Background(), "v1", cachedContext)
	assert.False(t, ok)

	mock.Regexp().ExpectSet(key, `.*`, time.Minute).SetErr(fmt.Errorf("connection refused"))
	cache.Set(context.Background(), "v1", cachedContext, &Result{Predictions: map[string]float64{}})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ServesFromCache(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)
	calls := 0
	svc := newTestService(t, funcModel(func(x []float64) (float64, error) {
		calls++
		return x[5] / 10, nil
	}), WithCache(cache))

	first, err := svc.PredictWasteAndCost(context.Background(), lunchRequest(120))
	require.NoError(t, err)
	callsAfterFirst := calls

	second, err := svc.PredictWasteAndCost(context.Background(), lunchRequest("120"))
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, calls, "cached result must not hit the model")
	assert.Equal(t, first.Predictions, second.Predictions)
	assert.Equal(t, first.TotalMaxCost, second.TotalMaxCost)
}
