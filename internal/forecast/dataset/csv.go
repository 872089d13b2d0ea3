package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"meal-waste-workers/internal/common/errors"
)

// CSVSource reads records from a CSV file with a header row.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

func (s *CSVSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.NewDatasetLoadError(s.Name(), err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, s.Name())
}

// ReadCSV parses CSV content. name only appears in error details.
func ReadCSV(ctx context.Context, r io.Reader, name string) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("file is empty")
		}
		return nil, errors.NewDatasetLoadError(name, err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, errors.NewDatasetLoadError(name, err)
	}
	parser := rowParser{idx: idx}

	var records []Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewDatasetLoadError(name, err)
		}

		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDatasetLoadError(name, fmt.Errorf("line %d: %w", line, err))
		}
		if isBlank(cells) {
			continue
		}

		rec, err := parser.parse(cells)
		if err != nil {
			return nil, errors.NewDatasetLoadError(name, fmt.Errorf("line %d: %w", line, err))
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.NewDatasetLoadError(name, fmt.Errorf("no records"))
	}
	return records, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
