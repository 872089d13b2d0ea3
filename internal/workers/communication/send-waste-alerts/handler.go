package sendwastealerts

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	awsclient "meal-waste-workers/internal/common/aws"
	"meal-waste-workers/internal/common/config"
	"meal-waste-workers/internal/common/errors"
	"meal-waste-workers/internal/common/logger"
	"meal-waste-workers/internal/common/metrics"
	"meal-waste-workers/internal/wastelog"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-waste-alerts"

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// StudentSource yields summed waste per student.
type StudentSource interface {
	StudentTotals(ctx context.Context, month int) ([]wastelog.StudentTotal, error)
}

type Handler struct {
	config       *Config
	students     StudentSource
	sesClient    SESService
	snsClient    SNSService
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Students     StudentSource
	SES          SESService
	SNS          SNSService
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Students == nil {
		return nil, fmt.Errorf("%s needs a student waste source", TaskType)
	}
	if cfg.EmailEnabled && opts.SES == nil {
		return nil, fmt.Errorf("%s: email enabled without an SES client", TaskType)
	}
	if cfg.SMSEnabled && opts.SNS == nil {
		return nil, fmt.Errorf("%s: sms enabled without an SNS client", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		students:     opts.Students,
		sesClient:    opts.SES,
		snsClient:    opts.SNS,
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
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		h.fail(ctx, client, job, errors.NewInvalidPayloadError(fmt.Sprintf("parse job variables: %v", err)))
		return
	}

	input, month, err := parseInput(variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input, month)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute notifies every student with logged waste. Students over the
// threshold get an alert with a computed fine, the rest a notice with the
// default fine. It fails only when no e-mail could be delivered at all, so a
// retry never notifies a student twice.
func (h *Handler) Execute(ctx context.Context, input *Input, month int) (*Output, error) {
	totals, err := h.students.StudentTotals(ctx, month)
	if err != nil {
		return nil, err
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Recipients:     []string{},
		Exceeded:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if len(totals) == 0 {
		output.Status = StatusNoRecipients
		return output, nil
	}

	var lastErr error
	for _, st := range totals {
		n := h.compose(st, input.Threshold)
		if n.exceeded {
			output.Exceeded = append(output.Exceeded, n.rollnum)
		}

		if h.config.EmailEnabled && n.email != "" {
			if err := h.sendEmail(ctx, n.email, n.subject, n.body); err != nil {
				h.logger.Error("email send failed", map[string]interface{}{
					"error":   err.Error(),
					"rollnum": n.rollnum,
				})
				metrics.AlertsSent.WithLabelValues("email", "failed").Inc()
				output.Failed = append(output.Failed, n.email)
				lastErr = err
			} else {
				metrics.AlertsSent.WithLabelValues("email", "sent").Inc()
				output.Recipients = append(output.Recipients, n.email)
			}
		}

		if h.config.SMSEnabled && n.exceeded && n.phone != "" {
			if err := h.sendSMS(ctx, n.phone, smsText(n)); err != nil {
				h.logger.Warn("SMS send failed", map[string]interface{}{
					"error":   err.Error(),
					"rollnum": n.rollnum,
				})
				metrics.AlertsSent.WithLabelValues("sms", "failed").Inc()
			} else {
				metrics.AlertsSent.WithLabelValues("sms", "sent").Inc()
			}
		}
	}

	switch {
	case !h.config.EmailEnabled:
		output.Status = StatusDisabled
	case len(output.Recipients) == 0 && lastErr != nil:
		return nil, errors.NewNotificationSendFailedError("email", lastErr)
	case len(output.Recipients) == 0 && len(output.Failed) == 0:
		output.Status = StatusNoRecipients
	case len(output.Failed) > 0:
		output.Status = StatusPartial
	default:
		output.Status = StatusSent
	}

	h.logger.Info("waste alerts dispatched", map[string]interface{}{
		"students":   len(totals),
		"recipients": len(output.Recipients),
		"exceeded":   len(output.Exceeded),
		"failed":     len(output.Failed),
		"threshold":  input.Threshold,
		"month":      input.Month,
	})
	return output, nil
}

// Fine is the amount a student owes: waste plus FinePercent of it when over
// the threshold, the flat default otherwise. Rounded to paise.
func (h *Handler) Fine(totalWaste, threshold float64) float64 {
	if totalWaste > threshold {
		return math.Round((totalWaste/100*h.config.FinePercent+totalWaste)*100) / 100
	}
	return h.config.DefaultFine
}

func (h *Handler) compose(st wastelog.StudentTotal, threshold float64) notice {
	n := notice{
		rollnum:  st.RollNum,
		email:    st.Email,
		phone:    st.Phone,
		exceeded: st.TotalWaste > threshold,
		fine:     h.Fine(st.TotalWaste, threshold),
	}

	total := formatAmount(st.TotalWaste)
	limit := formatAmount(threshold)
	if n.exceeded {
		n.subject = SubjectExceeded
		n.body = fmt.Sprintf("Dear %s,\n\nYour total food waste this month is %s, which exceeds the allowed threshold of %s.\n"+
			"Please manage your food portions more responsibly.\n\nYour fine amount will be ₹%.2f/-\n\nThank you.",
			st.Name, total, limit, n.fine)
	} else {
		n.subject = SubjectWithinLimit
		n.body = fmt.Sprintf("Dear %s,\n\nYour total food waste this month is %s, which is within the allowed threshold of %s.\n\n"+
			"However, a default fine of ₹%s/- will still be considered as per hostel policy.\n\nThank you.",
			st.Name, total, limit, formatAmount(n.fine))
	}
	return n
}

func smsText(n notice) string {
	return fmt.Sprintf("%s: your food waste is over the limit. Fine: Rs %.2f", SubjectExceeded, n.fine)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, awsclient.TextEmail(h.config.FromEmail, to, subject, body))
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, awsclient.TransactionalSMS(to, message, h.config.SMSSenderID))
	return err
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
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) GetTaskType() string { return TaskType }
