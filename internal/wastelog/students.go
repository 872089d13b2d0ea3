package wastelog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"meal-waste-workers/internal/common/errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Student is a row of the students table with type 'student'.
type Student struct {
	RollNum string `json:"rollnum"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone"`
	Age     int    `json:"age"`
}

const listStudentsQuery = `
	SELECT rollnum, name, gmail_id, phone, age
	FROM students
	WHERE type = 'student'
	ORDER BY rollnum`

const insertStudentQuery = `
	INSERT INTO students (rollnum, name, gmail_id, phone, age, type)
	VALUES ($1, $2, $3, $4, $5, 'student')`

const updateStudentQuery = `
	UPDATE students
	SET name = $1, gmail_id = $2, phone = $3, age = $4
	WHERE rollnum = $5 AND type = 'student'`

const deleteStudentQuery = `
	DELETE FROM students
	WHERE rollnum = $1 AND type = 'student'`

// Validate reports the required fields that are blank. The roll number is
// only checked when requireRollNum is set, since updates take it from the path.
func (s Student) Validate(requireRollNum bool) error {
	var missing []string
	if requireRollNum && strings.TrimSpace(s.RollNum) == "" {
		missing = append(missing, "rollnum")
	}
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Phone) == "" {
		missing = append(missing, "phone")
	}
	if s.Age <= 0 {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		return errors.NewMissingParameterError(missing...)
	}
	return nil
}

// ListStudents returns every student, ordered by roll number.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, listStudentsQuery)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_students", err)
	}
	defer rows.Close()

	out := []Student{}
	for rows.Next() {
		var (
			s     Student
			email sql.NullString
			phone sql.NullString
			age   sql.NullInt64
		)
		if err := rows.Scan(&s.RollNum, &s.Name, &email, &phone, &age); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_students", err)
		}
		s.Email, s.Phone, s.Age = email.String, phone.String, int(age.Int64)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_students", err)
	}
	return out, nil
}

func (r *Repository) CreateStudent(ctx context.Context, s Student) error {
	if err := s.Validate(true); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, insertStudentQuery, s.RollNum, s.Name, nullable(s.Email), s.Phone, s.Age)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return errors.NewStudentExistsError(s.RollNum)
		}
		return errors.NewQueryExecutionFailedError("create_student", err)
	}
	return nil
}

// UpdateStudent overwrites the student's details; an unknown roll number
// yields STUDENT_NOT_FOUND.
func (r *Repository) UpdateStudent(ctx context.Context, rollnum string, s Student) error {
	if err := s.Validate(false); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updateStudentQuery, s.Name, nullable(s.Email), s.Phone, s.Age, rollnum)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_student", err)
	}
	return affectedOne(res, rollnum, "update_student")
}

func (r *Repository) DeleteStudent(ctx context.Context, rollnum string) error {
	res, err := r.db.ExecContext(ctx, deleteStudentQuery, rollnum)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete_student", err)
	}
	return affectedOne(res, rollnum, "delete_student")
}

func affectedOne(res sql.Result, rollnum, queryType string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError(queryType, err)
	}
	if n == 0 {
		return errors.NewStudentNotFoundError(rollnum)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
