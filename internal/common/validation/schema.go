package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Codes reported in ValidationError.Code.
const (
	CodeRequired       = "REQUIRED_FIELD_MISSING"
	CodeInvalidType    = "INVALID_TYPE"
	CodeMinLength      = "MIN_LENGTH_VIOLATION"
	CodePattern        = "PATTERN_MISMATCH"
	CodeEnum           = "INVALID_ENUM_VALUE"
	CodeMinimum        = "MINIMUM_VIOLATION"
	CodeMaximum        = "MAXIMUM_VIOLATION"
	CodeExtraField     = "EXTRA_FIELD"
	CodeSchemaMismatch = "SCHEMA_VIOLATION"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema. It is safe for concurrent use.
type Schema struct {
	schema *gojsonschema.Schema
}

// CompileSchema parses a JSON schema document.
func CompileSchema(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(schemaJSON string) *Schema {
	s, err := CompileSchema(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a Go value (typically a decoded JSON object) against the schema.
func (s *Schema) Validate(document interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldOf(re),
			Message: re.Description(),
			Code:    codeOf(re.Type()),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errs,
	}, nil
}

// required errors are reported against the parent object; the missing
// property name is carried in the details.
func fieldOf(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			return prop
		}
	}
	return strings.TrimPrefix(re.Field(), "(root).")
}

func codeOf(errorType string) string {
	switch errorType {
	case "required":
		return CodeRequired
	case "invalid_type":
		return CodeInvalidType
	case "string_gte":
		return CodeMinLength
	case "pattern":
		return CodePattern
	case "enum":
		return CodeEnum
	case "number_gte", "number_gt":
		return CodeMinimum
	case "number_lte", "number_lt":
		return CodeMaximum
	case "additional_property_not_allowed":
		return CodeExtraField
	default:
		return CodeSchemaMismatch
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// HasCode reports whether any error carries code.
func (vr *ValidationResult) HasCode(code string) bool {
	for _, err := range vr.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

// FieldsWithCode lists the fields that failed with code, in report order.
func (vr *ValidationResult) FieldsWithCode(code string) []string {
	var fields []string
	for _, err := range vr.Errors {
		if err.Code == code {
			fields = append(fields, err.Field)
		}
	}
	return fields
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
