// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"meal-waste-workers/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobOpener is the part of zbc.Client the registry needs.
type JobOpener interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

// Registry opens job workers and closes them together on shutdown.
type Registry struct {
	client  JobOpener
	logger  *zap.Logger
	workers []worker.JobWorker
	types   []string
}

func NewRegistry(client zbc.Client, logger *zap.Logger) *Registry {
	return &Registry{client: client, logger: logger}
}

// Start opens a job worker for taskType unless the worker config disables it.
func (r *Registry) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", zap.String("taskType", taskType))
		return false
	}

	jobWorker := r.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	r.workers = append(r.workers, jobWorker)
	r.types = append(r.types, taskType)

	r.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return true
}

// TaskTypes lists the started workers.
func (r *Registry) TaskTypes() []string {
	return append([]string(nil), r.types...)
}

// Stop closes every worker and waits for in-flight jobs to finish.
func (r *Registry) Stop() {
	for i, w := range r.workers {
		r.logger.Info("stopping worker", zap.String("taskType", r.types[i]))
		w.Close()
		w.AwaitClose()
	}
	r.workers = nil
	r.types = nil
}
