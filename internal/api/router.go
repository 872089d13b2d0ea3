// Package api exposes the forecast service and waste log reports over HTTP.
package api

import (
	"context"
	"net/http"

	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/forecast"
	"meal-waste-workers/internal/wastelog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Forecaster is the part of forecast.Service the API serves.
type Forecaster interface {
	PredictPayload(ctx context.Context, payload map[string]interface{}) (*forecast.Result, error)
	Artifact() *forecast.Artifact
}

// WasteLog answers the student waste report routes.
type WasteLog interface {
	MonthlySummary(ctx context.Context, month int) ([]wastelog.RollTotal, error)
	Details(ctx context.Context, rollnum string) ([]wastelog.Entry, error)
}

// Students manages the student roster behind the /students routes.
type Students interface {
	ListStudents(ctx context.Context) ([]wastelog.Student, error)
	CreateStudent(ctx context.Context, s wastelog.Student) error
	UpdateStudent(ctx context.Context, rollnum string, s wastelog.Student) error
	DeleteStudent(ctx context.Context, rollnum string) error
}

// Check is a readiness check for one dependency.
type Check func(ctx context.Context) error

type Options struct {
	Forecaster     Forecaster
	WasteLog       WasteLog // optional; report routes are omitted without it
	Students       Students // optional; roster routes are omitted without it
	Checks         map[string]Check
	AllowedOrigins []string
	Logger         logger.Logger
}

type Handlers struct {
	forecaster Forecaster
	wasteLog   WasteLog
	students   Students
	checks     map[string]Check
	logger     logger.Logger
}

// NewRouter wires every route and wraps the router in the access log,
// CORS and panic recovery.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})

	h := &Handlers{
		forecaster: opts.Forecaster,
		wasteLog:   opts.WasteLog,
		students:   opts.Students,
		checks:     opts.Checks,
		logger:     log,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/predict", h.Predict).Methods(http.MethodPost)
	router.HandleFunc("/vocabulary", h.Vocabulary).Methods(http.MethodGet)
	router.HandleFunc("/model", h.Model).Methods(http.MethodGet)

	if h.wasteLog != nil {
		router.HandleFunc("/waste-summary/{month}", h.WasteSummary).Methods(http.MethodGet)
		router.HandleFunc("/wastage-details/{rollnum}", h.WastageDetails).Methods(http.MethodGet)
	}

	if h.students != nil {
		router.HandleFunc("/students", h.ListStudents).Methods(http.MethodGet)
		router.HandleFunc("/students", h.CreateStudent).Methods(http.MethodPost)
		router.HandleFunc("/students/{rollnum}", h.UpdateStudent).Methods(http.MethodPut)
		router.HandleFunc("/students/{rollnum}", h.DeleteStudent).Methods(http.MethodDelete)
	}

	var handler http.Handler = router
	handler = recoverer(log)(handler)
	handler = cors(opts.AllowedOrigins)(handler)
	return requestLogger(log)(handler)
}
