package forecast

import (
	"context"
	"fmt"
	"time"

	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/common/metrics"
	"meal-waste-workers/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Service is the prediction entry point. It holds only the shared read-only
// artifact plus optional cache and audit sinks.
type Service struct {
	artifact *Artifact
	cache    *Cache
	auditor  Auditor
	log      logger.Logger
}

type Option func(*Service)

// WithCache enables result caching.
func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithAuditor records every request outcome.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

func NewService(artifact *Artifact, log logger.Logger, opts ...Option) (*Service, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact is required")
	}
	s := &Service{
		artifact: artifact,
		log:      log.WithFields(map[string]interface{}{"component": "forecast-service"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Artifact returns the artifact the service predicts with.
func (s *Service) Artifact() *Artifact { return s.artifact }

// PredictPayload validates a decoded JSON object and predicts for it.
func (s *Service) PredictPayload(ctx context.Context, payload map[string]interface{}) (*Result, error) {
	req, err := RequestFromPayload(payload)
	if err != nil {
		s.finish(ctx, Request{}, nil, err, false, time.Now())
		return nil, err
	}
	return s.PredictWasteAndCost(ctx, req)
}

// PredictWasteAndCost validates req, encodes the context, aggregates the
// matching history and runs the model per dish. Every error it returns is a
// *errors.StandardError of kind ValidationError, NoDataFound or InferenceError.
func (s *Service) PredictWasteAndCost(ctx context.Context, req Request) (res *Result, err error) {
	started := time.Now()
	cached := false

	ctx, span := observability.StartSpan(ctx, "forecast.PredictWasteAndCost")
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.NewInferenceFailureError("unknown", fmt.Errorf("panic: %v", r))
		}
		observability.EndSpan(span, err)
		s.finish(ctx, req, res, err, cached, started)
	}()

	pc, err := req.Validate()
	if err != nil {
		return nil, err
	}

	tag := s.artifact.Tag()
	if s.cache != nil {
		if hit, ok := s.cache.Get(ctx, tag, pc); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			cached = true
			return hit, nil
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	enc, err := pc.Encode(s.artifact.Bank())
	if err != nil {
		return nil, err
	}

	aggregates := Aggregate(s.artifact.Records(), enc)
	span.SetAttributes(attribute.Int("forecast.dishes", len(aggregates)))

	res, err = Predict(s.artifact.Model(), s.artifact.Bank(), enc, aggregates)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, tag, pc, res)
	}
	return res, nil
}

func (s *Service) finish(ctx context.Context, req Request, res *Result, err error, cached bool, started time.Time) {
	elapsed := time.Since(started)
	metrics.PredictionDuration.Observe(elapsed.Seconds())

	outcome := "success"
	if err != nil {
		outcome = string(errors.Kind(err))
		s.log.Warn("prediction rejected", map[string]interface{}{
			"errorCode": string(errors.CodeOf(err)),
			"errorKind": outcome,
			"error":     err.Error(),
		})
	} else {
		metrics.DishesPredicted.Observe(float64(len(res.Predictions)))
		s.log.Debug("prediction served", map[string]interface{}{
			"dishes":     len(res.Predictions),
			"totalWaste": res.TotalWaste,
			"cached":     cached,
		})
	}
	metrics.PredictionsTotal.WithLabelValues(outcome).Inc()

	if s.auditor == nil {
		return
	}

	entry := AuditEntry{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		Request:    req,
		Outcome:    outcome,
		Cached:     cached,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		ModelTag:   s.artifact.Tag(),
	}
	if err != nil {
		entry.ErrorCode = string(errors.CodeOf(err))
	} else {
		entry.Predictions = res.Predictions
		entry.TotalWaste = res.TotalWaste
		entry.TotalPrepared = res.TotalPrepared
		entry.TotalMinCost = res.TotalMinCost
		entry.TotalMaxCost = res.TotalMaxCost
	}

	// detached from the request; audit failures are only logged
	go func() {
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.auditor.Record(auditCtx, entry); err != nil {
			s.log.Warn("audit record failed", map[string]interface{}{"error": err.Error(), "auditId": entry.ID})
		}
	}()
}
