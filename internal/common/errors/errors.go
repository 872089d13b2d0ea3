// Package errors provides the standardized error taxonomy shared by the forecast
// core, the HTTP API and the Zeebe workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request validation
const (
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrCodeInvalidType      ErrorCode = "INVALID_TYPE"
	ErrCodeUnknownCategory  ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
)

// Student records
const (
	ErrCodeStudentNotFound ErrorCode = "STUDENT_NOT_FOUND"
	ErrCodeStudentExists   ErrorCode = "STUDENT_EXISTS"
)

// Prediction outcomes
const (
	ErrCodeNoDataFound    ErrorCode = "NO_DATA_FOUND"
	ErrCodeInferenceError ErrorCode = "INFERENCE_ERROR"
)

// Startup and infrastructure
const (
	ErrCodeDatasetLoadFailed        ErrorCode = "DATASET_LOAD_FAILED"
	ErrCodeModelTrainingFailed      ErrorCode = "MODEL_TRAINING_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeBrokerUnavailable        ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// ErrorKind is the tagged variant callers branch on instead of parsing messages.
type ErrorKind string

const (
	KindValidation ErrorKind = "ValidationError"
	KindNoData     ErrorKind = "NoDataFound"
	KindInference  ErrorKind = "InferenceError"
	KindInternal   ErrorKind = "Internal"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Kind reports which branch of the taxonomy the error belongs to.
func (e *StandardError) Kind() ErrorKind {
	return KindOfCode(e.Code)
}

// KindOfCode maps an error code onto its kind.
func KindOfCode(code ErrorCode) ErrorKind {
	switch code {
	case ErrCodeMissingParameter, ErrCodeInvalidType, ErrCodeUnknownCategory, ErrCodeInvalidPayload,
		ErrCodeStudentNotFound, ErrCodeStudentExists:
		return KindValidation
	case ErrCodeNoDataFound:
		return KindNoData
	case ErrCodeInferenceError:
		return KindInference
	default:
		return KindInternal
	}
}

// As extracts a *StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Kind returns the kind of any error; errors outside the taxonomy are Internal.
func Kind(err error) ErrorKind {
	if stdErr, ok := As(err); ok {
		return stdErr.Kind()
	}
	return KindInternal
}

// CodeOf returns the error code of err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeStudentNotFound:
		return http.StatusNotFound
	case ErrCodeStudentExists:
		return http.StatusConflict
	}
	switch Kind(err) {
	case KindValidation, KindNoData:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMissingParameterError is returned when any of the five request inputs is absent.
func NewMissingParameterError(fields ...string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameter,
		Message:   "All parameters are required.",
		Details:   strings.Join(fields, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewStudentNotFoundError is returned when no student row carries the roll number.
func NewStudentNotFoundError(rollnum string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStudentNotFound,
		Message:   "Student not found or already deleted.",
		Details:   fmt.Sprintf("rollnum: %s", rollnum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStudentExistsError is returned when an insert collides with an existing roll number.
func NewStudentExistsError(rollnum string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStudentExists,
		Message:   "Student already exists.",
		Details:   fmt.Sprintf("rollnum: %s", rollnum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTypeError is returned when students is not an integer.
func NewInvalidTypeError(field string, value interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidType,
		Message:   "Students must be an integer.",
		Details:   fmt.Sprintf("%s: %v", field, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCategoryError is returned when a label is outside the closed vocabulary.
func NewUnknownCategoryError(field, label string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCategory,
		Message:   fmt.Sprintf("Unknown value for %s.", field),
		Details:   fmt.Sprintf("%s: %q", field, label),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field, "label": label},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCodeError is returned when decoding a code that was never assigned.
func NewUnknownCodeError(field string, code int) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCategory,
		Message:   fmt.Sprintf("Unknown code for %s.", field),
		Details:   fmt.Sprintf("%s: %d", field, code),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field, "code": code},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError is returned when a payload fails schema validation.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid request payload.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoDataFoundError is returned when no historical row matches the context.
func NewNoDataFoundError(context string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoDataFound,
		Message:   "No data found for the given parameters.",
		Details:   context,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInferenceError is returned when the model yields a non-finite or negative value.
func NewInferenceError(dish string, value float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeInferenceError,
		Message:   "Model produced an invalid prediction.",
		Details:   fmt.Sprintf("dish: %s, value: %v", dish, value),
		Retryable: false,
		Metadata:  map[string]interface{}{"dish": dish},
		Timestamp: time.Now().UTC(),
	}
}

// NewInferenceFailureError is returned when the model itself fails for a dish.
func NewInferenceFailureError(dish string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInferenceError,
		Message:   "Model produced an invalid prediction.",
		Details:   fmt.Sprintf("dish: %s, error: %s", dish, err.Error()),
		Retryable: false,
		Metadata:  map[string]interface{}{"dish": dish},
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetLoadError creates a non-retryable dataset error.
func NewDatasetLoadError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetLoadFailed,
		Message:   "Failed to load historical dataset",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelTrainingError creates a non-retryable training error.
func NewModelTrainingError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelTrainingFailed,
		Message:   "Failed to train regression model",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError wraps a failed call to the workflow broker.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   "Workflow broker unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		// validation, no-data and inference are deterministic
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorKind":         string(stdErr.Kind()),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the wire category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeMissingParameter:
		return "missing-parameter"
	case ErrCodeInvalidType:
		return "invalid-type"
	case ErrCodeUnknownCategory:
		return "unknown-category"
	case ErrCodeInvalidPayload:
		return "invalid-payload"
	case ErrCodeNoDataFound:
		return "no-data-found"
	case ErrCodeInferenceError:
		return "inference-error"
	case ErrCodeStudentNotFound, ErrCodeStudentExists:
		return "student"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "database"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "notification"
	case strings.Contains(codeStr, "BROKER"):
		return "broker"
	case strings.Contains(codeStr, "DATASET") || strings.Contains(codeStr, "MODEL"):
		return "startup"
	default:
		return "internal"
	}
}
