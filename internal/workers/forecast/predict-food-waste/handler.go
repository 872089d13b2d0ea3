package predictfoodwaste

import (
	"context"
	"fmt"
	"time"

	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/common/metrics"
	"meal-waste-workers/internal/forecast"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "predict-food-waste"

// Predictor is the slice of forecast.Service the worker needs.
type Predictor interface {
	PredictPayload(ctx context.Context, payload map[string]interface{}) (*forecast.Result, error)
}

type Handler struct {
	config       *Config
	predictor    Predictor
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Predictor    Predictor
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Predictor == nil {
		return nil, fmt.Errorf("%s needs a predictor", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		predictor:    opts.Predictor,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		h.fail(ctx, client, job, errors.NewInvalidPayloadError(fmt.Sprintf("parse job variables: %v", err)))
		return
	}

	output, err := h.Execute(ctx, variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute predicts for the five request variables; other process variables
// are ignored.
func (h *Handler) Execute(ctx context.Context, variables map[string]interface{}) (*Output, error) {
	payload := make(map[string]interface{}, len(inputVariables))
	for _, k := range inputVariables {
		if v, ok := variables[k]; ok {
			payload[k] = v
		}
	}

	res, err := h.predictor.PredictPayload(ctx, payload)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Predictions:   res.Predictions,
		TotalWaste:    res.TotalWaste,
		TotalPrepared: res.TotalPrepared,
		TotalMinCost:  res.TotalMinCost,
		TotalMaxCost:  res.TotalMaxCost,
		DishCount:     len(res.Predictions),
		PredictedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.config.IncludeDishes {
		out.Dishes = res.Dishes
	}
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("prediction completed", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"dishes":     output.DishCount,
		"totalWaste": output.TotalWaste,
	})
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) GetConfig() *Config { return h.config }
