// Package wastelog reads per-student plate waste recorded in the
// waste_logs table and manages the student roster it is keyed on.
package wastelog

import (
	"context"
	"database/sql"
	"time"

	"meal-waste-workers/internal/common/errors"
)

// StudentTotal is one student's summed waste, with the contact details the
// alerts worker needs.
type StudentTotal struct {
	RollNum    string  `json:"rollnum"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone,omitempty"`
	TotalWaste float64 `json:"total_waste"`
}

// RollTotal is a row of the monthly summary.
type RollTotal struct {
	RollNum    string  `json:"rollnum"`
	TotalWaste float64 `json:"total_waste"`
}

// Entry is a single logged waste amount.
type Entry struct {
	WasteAmount float64   `json:"waste_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository runs the waste log queries against Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// month 0 means all time
const studentTotalsQuery = `
	SELECT s.rollnum, s.name, s.gmail_id, s.phone, SUM(w.waste_amount) AS total_waste
	FROM students s
	JOIN waste_logs w ON s.rollnum = w.rollnum
	WHERE s.type = 'student'
	  AND ($1 = 0 OR EXTRACT(MONTH FROM w.created_at) = $1)
	GROUP BY s.rollnum, s.gmail_id, s.name, s.phone
	ORDER BY s.rollnum`

const monthlySummaryQuery = `
	SELECT rollnum, SUM(waste_amount) AS total_waste
	FROM waste_logs
	WHERE EXTRACT(MONTH FROM created_at) = $1
	GROUP BY rollnum
	ORDER BY rollnum`

const detailsQuery = `
	SELECT waste_amount, created_at
	FROM waste_logs
	WHERE rollnum = $1
	ORDER BY created_at DESC`

// StudentTotals sums waste per student, optionally restricted to one
// calendar month (1-12).
func (r *Repository) StudentTotals(ctx context.Context, month int) ([]StudentTotal, error) {
	rows, err := r.db.QueryContext(ctx, studentTotalsQuery, month)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("student_waste_totals", err)
	}
	defer rows.Close()

	var out []StudentTotal
	for rows.Next() {
		var (
			st    StudentTotal
			email sql.NullString
			phone sql.NullString
		)
		if err := rows.Scan(&st.RollNum, &st.Name, &email, &phone, &st.TotalWaste); err != nil {
			return nil, errors.NewQueryExecutionFailedError("student_waste_totals", err)
		}
		st.Email, st.Phone = email.String, phone.String
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("student_waste_totals", err)
	}
	return out, nil
}

// MonthlySummary totals waste per roll number for one calendar month.
func (r *Repository) MonthlySummary(ctx context.Context, month int) ([]RollTotal, error) {
	rows, err := r.db.QueryContext(ctx, monthlySummaryQuery, month)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("waste_summary", err)
	}
	defer rows.Close()

	out := []RollTotal{}
	for rows.Next() {
		var rt RollTotal
		if err := rows.Scan(&rt.RollNum, &rt.TotalWaste); err != nil {
			return nil, errors.NewQueryExecutionFailedError("waste_summary", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("waste_summary", err)
	}
	return out, nil
}

// Details lists a student's logged waste, newest first.
func (r *Repository) Details(ctx context.Context, rollnum string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, detailsQuery, rollnum)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("wastage_details", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.WasteAmount, &e.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("wastage_details", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("wastage_details", err)
	}
	return out, nil
}
