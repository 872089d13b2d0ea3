package sendwastealerts

import (
	"encoding/json"
	"fmt"
	"strings"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/validation"
	"meal-waste-workers/internal/wastelog"
)

var inputSchema = func() *validation.Schema {
	months, _ := json.Marshal(wastelog.MonthNames)
	return validation.MustCompileSchema(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"threshold": {"type": "number", "minimum": 0},
			"month":     {"type": "string", "enum": %s}
		},
		"required": ["threshold"]
	}`, months))
}()

func parseInput(variables map[string]interface{}) (*Input, int, error) {
	result, err := inputSchema.Validate(variables)
	if err != nil {
		return nil, 0, errors.NewInvalidPayloadError(err.Error())
	}
	if !result.Valid {
		if result.HasCode(validation.CodeRequired) {
			return nil, 0, errors.NewMissingParameterError(result.FieldsWithCode(validation.CodeRequired)...)
		}
		return nil, 0, errors.NewInvalidPayloadError(strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{Threshold: toFloat(variables["threshold"])}
	month := 0
	if m, ok := variables["month"].(string); ok {
		input.Month = m
		month, err = wastelog.ParseMonth(m)
		if err != nil {
			return nil, 0, err
		}
	}
	return input, month, nil
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}
