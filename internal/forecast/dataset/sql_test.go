package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"

	"meal-waste-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ==========================
// Postgres (sqlmock)
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSQLSource_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)

	src, err := NewSQLSource(db, "postgres", "canteen.meal_history")
	require.NoError(t, err)

	rows := sqlmock.NewRows(sqlColumns).
		AddRow("Summer", "Weekday", "Monday", "Lunch", "Rice", int64(120), 10.0, 8.0, 2.0, 2.0, 3.0).
		AddRow("Summer", "Weekday", "Monday", "Lunch", "Dal", int64(120), 6.0, 5.0, 1.0, 4.0, 5.0)
	mock.ExpectQuery(regexp.QuoteMeta(src.Query())).WillReturnRows(rows)

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Dal", records[1].DishName)
	assert.Equal(t, 120, records[1].StudentCount)
	assert.Equal(t, 5.0, records[1].CostMax)
	assert.Equal(t, "postgres:canteen.meal_history", src.Name())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_NullCell(t *testing.T) {
	db, mock := setupMockDB(t)
	src, err := NewSQLSource(db, "postgres", "meal_history")
	require.NoError(t, err)

	rows := sqlmock.NewRows(sqlColumns).
		AddRow("Summer", "Weekday", "Monday", "Lunch", "Rice", int64(120), nil, 8.0, 2.0, 2.0, 3.0)
	mock.ExpectQuery(regexp.QuoteMeta(src.Query())).WillReturnRows(rows)

	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatasetLoadFailed, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), ColPrepared)
}

func TestSQLSource_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	src, err := NewSQLSource(db, "postgres", "meal_history")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(src.Query())).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = src.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatasetLoadFailed, errors.CodeOf(err))
}

func TestNewSQLSource_RejectsTableInjection(t *testing.T) {
	for _, table := range []string{"", "meals; DROP TABLE x", "a.b.c", "1meals"} {
		_, err := NewSQLSource(nil, "postgres", table)
		assert.Error(t, err, table)
	}
}

// ==========================
// SQLite (in-memory)
// ==========================

func TestSQLSource_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE meal_history (
		season TEXT, day_type TEXT, day TEXT, meal_category TEXT, dish_name TEXT,
		student_count INTEGER, prepared_kg REAL, consumed_kg REAL, waste_kg REAL,
		cost_min REAL, cost_max REAL)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO meal_history VALUES
		('Winter','Holiday','Sunday','Dinner','Roti',80,5,4.5,0.5,1.5,2),
		('Winter','Holiday','Sunday','Dinner','Paneer',80,3,2,1,10,12)`)
	require.NoError(t, err)

	src, err := NewSQLSource(db, "sqlite", "meal_history")
	require.NoError(t, err)

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Roti", records[0].DishName)
	assert.Equal(t, 80, records[0].StudentCount)
	assert.Equal(t, 4.5, records[0].ConsumedQty)
	assert.Equal(t, 12.0, records[1].CostMax)
}

func TestSQLSource_EmptyTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE meal_history (
		season TEXT, day_type TEXT, day TEXT, meal_category TEXT, dish_name TEXT,
		student_count INTEGER, prepared_kg REAL, consumed_kg REAL, waste_kg REAL,
		cost_min REAL, cost_max REAL)`)
	require.NoError(t, err)

	src, err := NewSQLSource(db, "sqlite", "meal_history")
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.Equal(t, errors.ErrCodeDatasetLoadFailed, errors.CodeOf(err))
}
