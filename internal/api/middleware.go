package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"meal-waste-workers/internal/common/logger"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
)

const requestIDHeader = "X-Request-ID"

// cors allows every origin when the list is empty or contains "*".
func cors(allowed []string) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(allowed))
	for _, o := range allowed {
		origins = append(origins, strings.TrimRight(o, "/"))
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
}

// panicLogger sends recovered panics to the structured logger.
type panicLogger struct {
	log logger.Logger
}

func (p panicLogger) Println(v ...interface{}) {
	p.log.Error("panic recovered", map[string]interface{}{"panic": fmt.Sprint(v...)})
}

func recoverer(log logger.Logger) func(http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(panicLogger{log: log}),
		handlers.PrintRecoveryStack(true),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(requestIDHeader, id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := map[string]interface{}{
				"requestId":  id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"durationMs": time.Since(started).Milliseconds(),
			}
			if rec.status >= http.StatusInternalServerError {
				log.Error("request failed", fields)
			} else {
				log.Debug("request served", fields)
			}
		})
	}
}
