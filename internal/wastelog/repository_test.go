package wastelog

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"meal-waste-workers/internal/common/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestStudentTotals(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students s")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"rollnum", "name", "gmail_id", "phone", "total_waste"}).
			AddRow("R001", "Asha", "asha@example.com", "+911234567890", 12.5).
			AddRow("R002", "Ben", nil, nil, 4.0))

	totals, err := repo.StudentTotals(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, totals, 2)

	assert.Equal(t, StudentTotal{RollNum: "R001", Name: "Asha", Email: "asha@example.com", Phone: "+911234567890", TotalWaste: 12.5}, totals[0])
	assert.Empty(t, totals[1].Email)
	assert.Empty(t, totals[1].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentTotals_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT").WillReturnError(fmt.Errorf("connection reset"))

	_, err := repo.StudentTotals(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
	assert.Equal(t, 500, errors.HTTPStatus(err))
}

func TestMonthlySummary(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM waste_logs")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"rollnum", "total_waste"}).
			AddRow("R001", 3.25).
			AddRow("R007", 1.0))

	rows, err := repo.MonthlySummary(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []RollTotal{{"R001", 3.25}, {"R007", 1.0}}, rows)
}

func TestMonthlySummary_EmptyIsNotNil(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"rollnum", "total_waste"}))

	rows, err := repo.MonthlySummary(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestDetails(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE rollnum = $1")).
		WithArgs("R001").
		WillReturnRows(sqlmock.NewRows([]string{"waste_amount", "created_at"}).AddRow(0.4, at))

	entries, err := repo.Details(context.Background(), "R001")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{WasteAmount: 0.4, CreatedAt: at}}, entries)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("January")
	require.NoError(t, err)
	assert.Equal(t, 1, m)

	m, err = ParseMonth("December")
	require.NoError(t, err)
	assert.Equal(t, 12, m)

	for _, bad := range []string{"january", "Jan", "", "Smarch", "13"} {
		_, err := ParseMonth(bad)
		assert.Equal(t, 400, errors.HTTPStatus(err), bad)
		assert.Equal(t, errors.KindValidation, errors.Kind(err), bad)
	}
}
