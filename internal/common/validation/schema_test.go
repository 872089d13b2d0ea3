package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"season":   {"type": "string", "minLength": 1},
		"students": {"type": ["integer", "string"]},
		"month":    {"type": "string", "enum": ["January", "February"]},
		"threshold": {"type": "number", "minimum": 0}
	},
	"required": ["season", "students"]
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompileSchema(testSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		valid     bool
		wantField string
		wantCode  string
	}{
		{
			name:  "valid with integer students",
			doc:   map[string]interface{}{"season": "Summer", "students": 120},
			valid: true,
		},
		{
			name:  "valid with string students",
			doc:   map[string]interface{}{"season": "Summer", "students": "120"},
			valid: true,
		},
		{
			name:      "missing students",
			doc:       map[string]interface{}{"season": "Summer"},
			wantField: "students",
			wantCode:  CodeRequired,
		},
		{
			name:      "fractional students",
			doc:       map[string]interface{}{"season": "Summer", "students": 12.5},
			wantField: "students",
			wantCode:  CodeInvalidType,
		},
		{
			name:      "empty season",
			doc:       map[string]interface{}{"season": "", "students": 1},
			wantField: "season",
			wantCode:  CodeMinLength,
		},
		{
			name:      "unknown month",
			doc:       map[string]interface{}{"season": "Summer", "students": 1, "month": "Smarch"},
			wantField: "month",
			wantCode:  CodeEnum,
		},
		{
			name:      "negative threshold",
			doc:       map[string]interface{}{"season": "Summer", "students": 1, "threshold": -1.0},
			wantField: "threshold",
			wantCode:  CodeMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)
			require.NoError(t, err)

			assert.Equal(t, tt.valid, result.Valid)
			if tt.valid {
				assert.Empty(t, result.Errors)
				return
			}
			assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
			assert.True(t, result.HasCode(tt.wantCode), "errors: %v", result.Errors)
			assert.Contains(t, result.FieldsWithCode(tt.wantCode), tt.wantField)
		})
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": 12}`)
	assert.Error(t, err)
}

func TestGetErrorsForField(t *testing.T) {
	vr := &ValidationResult{Errors: []ValidationError{
		{Field: "dishes[0]", Code: CodeInvalidType},
		{Field: "dishes.name", Code: CodeRequired},
		{Field: "season", Code: CodeRequired},
	}}

	assert.Len(t, vr.GetErrorsForField("dishes"), 2)
	assert.Len(t, vr.GetErrorsForField("season"), 1)
	assert.Equal(t, []string{"dishes.name", "season"}, vr.FieldsWithCode(CodeRequired))
}
