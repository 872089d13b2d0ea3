package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"meal-waste-workers/internal/common/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// sqlColumns are the snake_case table columns in Columns order.
var sqlColumns = []string{
	"season", "day_type", "day", "meal_category", "dish_name",
	"student_count", "prepared_kg", "consumed_kg", "waste_kg", "cost_min", "cost_max",
}

// SQLSource reads records from a table in Postgres or SQLite. The table
// columns use the snake_case form of the canonical names.
type SQLSource struct {
	db     *sql.DB
	driver string
	table  string
}

func NewSQLSource(db *sql.DB, driver, table string) (*SQLSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLSource{db: db, driver: driver, table: table}, nil
}

func (s *SQLSource) Name() string { return s.driver + ":" + s.table }

// Query is the statement the source runs.
func (s *SQLSource) Query() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(sqlColumns, ", "), s.table)
}

func (s *SQLSource) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, s.Query())
	if err != nil {
		return nil, errors.NewDatasetLoadError(s.Name(), err)
	}
	defer rows.Close()

	idx := make(map[string]int, len(Columns))
	for i, c := range Columns {
		idx[c] = i
	}
	parser := rowParser{idx: idx}

	var records []Record
	for row := 1; rows.Next(); row++ {
		raw := make([]sql.NullString, len(sqlColumns))
		dest := make([]interface{}, len(raw))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.NewDatasetLoadError(s.Name(), fmt.Errorf("row %d: %w", row, err))
		}

		cells := make([]string, len(raw))
		for i, v := range raw {
			cells[i] = v.String
		}
		rec, err := parser.parse(cells)
		if err != nil {
			return nil, errors.NewDatasetLoadError(s.Name(), fmt.Errorf("row %d: %w", row, err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatasetLoadError(s.Name(), err)
	}

	if len(records) == 0 {
		return nil, errors.NewDatasetLoadError(s.Name(), fmt.Errorf("table %s has no records", s.table))
	}
	return records, nil
}
