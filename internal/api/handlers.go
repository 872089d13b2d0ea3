package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/wastelog"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Details  string `json:"details,omitempty"`
}

type dataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// Predict handles POST /predict. The body is a JSON object with season,
// day_type, day, meal_category and students.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil || payload == nil {
		detail := "request body must be a JSON object"
		if err != nil {
			detail = fmt.Sprintf("%s: %v", detail, err)
		}
		h.writeError(w, errors.NewInvalidPayloadError(detail))
		return
	}

	res, err := h.forecaster.PredictPayload(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// Vocabulary handles GET /vocabulary: the known labels per field.
func (h *Handlers) Vocabulary(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.forecaster.Artifact().Bank().Vocabulary())
}

// Model handles GET /model.
func (h *Handlers) Model(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.forecaster.Artifact().Info())
}

// WasteSummary handles GET /waste-summary/{month}.
func (h *Handlers) WasteSummary(w http.ResponseWriter, r *http.Request) {
	month, err := wastelog.ParseMonth(mux.Vars(r)["month"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.wasteLog.MonthlySummary(r.Context(), month)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: rows})
}

// WastageDetails handles GET /wastage-details/{rollnum}.
func (h *Handlers) WastageDetails(w http.ResponseWriter, r *http.Request) {
	entries, err := h.wasteLog.Details(r.Context(), mux.Vars(r)["rollnum"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: entries})
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready runs every dependency check; any failure answers 503.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	h.writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr)

	resp := errorResponse{
		Error:    stdErr.Message,
		Code:     string(stdErr.Code),
		Category: errors.GetErrorCategory(stdErr.Code),
	}
	// internals stay in the logs
	if status < http.StatusInternalServerError {
		resp.Details = stdErr.Details
	} else {
		h.logger.Error("request error", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
	h.writeJSON(w, status, resp)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("error encoding response", map[string]interface{}{"error": err.Error()})
	}
}
