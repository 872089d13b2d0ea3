package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want ErrorKind
	}{
		{ErrCodeMissingParameter, KindValidation},
		{ErrCodeInvalidType, KindValidation},
		{ErrCodeUnknownCategory, KindValidation},
		{ErrCodeInvalidPayload, KindValidation},
		{ErrCodeStudentNotFound, KindValidation},
		{ErrCodeNoDataFound, KindNoData},
		{ErrCodeInferenceError, KindInference},
		{ErrCodeDatasetLoadFailed, KindInternal},
		{ErrCodeQueryExecutionFailed, KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOfCode(tt.code))
		})
	}
}

func TestKind_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("predict: %w", NewNoDataFoundError("Summer/Weekday"))

	assert.Equal(t, KindNoData, Kind(wrapped))
	assert.Equal(t, ErrCodeNoDataFound, CodeOf(wrapped))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
}

func TestKind_ForeignError(t *testing.T) {
	err := fmt.Errorf("boom")

	assert.Equal(t, KindInternal, Kind(err))
	assert.Equal(t, ErrCodeInternal, CodeOf(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))

	normalized := Normalize(err)
	assert.Equal(t, ErrCodeInternal, normalized.Code)
	assert.Equal(t, "boom", normalized.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewMissingParameterError("season")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewInvalidTypeError("students", "abc")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewUnknownCategoryError("Season", "Monsoon")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewInferenceError("Rice", -1)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewStudentNotFoundError("R404")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(NewStudentExistsError("R001")))
	assert.Equal(t, "student", GetErrorCategory(ErrCodeStudentNotFound))
}

func TestMissingAndInvalidTypeAreDistinguishable(t *testing.T) {
	missing := NewMissingParameterError("students")
	invalid := NewInvalidTypeError("students", "abc")

	assert.NotEqual(t, missing.Code, invalid.Code)
	assert.NotEqual(t, missing.Message, invalid.Message)
	assert.Equal(t, "All parameters are required.", missing.Message)
	assert.Equal(t, "Students must be an integer.", invalid.Message)
	assert.Equal(t, "missing-parameter", GetErrorCategory(missing.Code))
	assert.Equal(t, "invalid-type", GetErrorCategory(invalid.Code))
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("business errors are not retried", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewNoDataFoundError("ctx"))
		assert.Equal(t, "NO_DATA_FOUND", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)
		assert.Equal(t, "NoDataFound", bpmn.ErrorVariables["errorKind"])
	})

	t.Run("technical errors keep their retry budget", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewQueryExecutionFailedError("waste_summary", fmt.Errorf("conn reset")))
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
	})

	t.Run("error variables merge", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewInferenceError("Dal", 0))
		vars := bpmn.ToErrorVariables()
		require.Contains(t, vars, "errorCode")
		assert.Equal(t, "INFERENCE_ERROR", vars["originalErrorCode"])
	})
}

func TestGetErrorCategory_Infrastructure(t *testing.T) {
	assert.Equal(t, "database", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "notification", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "startup", GetErrorCategory(ErrCodeDatasetLoadFailed))
	assert.Equal(t, "internal", GetErrorCategory(ErrCodeInternal))
}
