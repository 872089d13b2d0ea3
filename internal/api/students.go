package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/wastelog"

	"github.com/gorilla/mux"
)

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListStudents handles GET /students.
func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.ListStudents(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: students})
}

// CreateStudent handles POST /students. rollnum, name, phone and age are
// required; email is optional.
func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.decodeStudent(w, r)
	if !ok {
		return
	}
	if err := h.students.CreateStudent(r.Context(), s); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, messageResponse{Success: true, Message: "Student added successfully."})
}

// UpdateStudent handles PUT /students/{rollnum}.
func (h *Handlers) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	s, ok := h.decodeStudent(w, r)
	if !ok {
		return
	}
	if err := h.students.UpdateStudent(r.Context(), mux.Vars(r)["rollnum"], s); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Student updated successfully."})
}

// DeleteStudent handles DELETE /students/{rollnum}.
func (h *Handlers) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.students.DeleteStudent(r.Context(), mux.Vars(r)["rollnum"]); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Student deleted successfully."})
}

func (h *Handlers) decodeStudent(w http.ResponseWriter, r *http.Request) (wastelog.Student, bool) {
	var s wastelog.Student
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&s); err != nil {
		h.writeError(w, errors.NewInvalidPayloadError(fmt.Sprintf("request body must be a student object: %v", err)))
		return s, false
	}
	return s, true
}
