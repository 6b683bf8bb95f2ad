package replacerequisitioncriteria

import (
	"context"
	"errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	apperrors "ats-scoring/internal/common/errors"
	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/common/metrics"
	"ats-scoring/internal/common/observability"
	"ats-scoring/internal/models"
	"ats-scoring/internal/scoring"
	"ats-scoring/pkg/registry"
)

const (
	TaskType = registry.TaskReplaceRequisitionCriteria

	reportTimeout = 10 * time.Second
)

type CriteriaReplacer interface {
	ReplaceCriteria(ctx context.Context, requisitionID string, inputs []models.CriterionInput) ([]models.RequisitionCriterion, *scoring.BatchResult, error)
}

type Handler struct {
	config     *Config
	replacer   CriteriaReplacer
	registry   *registry.ActivityRegistry
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, replacer CriteriaReplacer, reg *registry.ActivityRegistry, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		replacer:   replacer,
		registry:   reg,
		errHandler: apperrors.NewErrorHandler(l),
		obs:        obs,
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, "job "+TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		if output, err = h.Execute(ctx, input); err == nil {
			h.completeJob(client, job, output)
			h.record(ctx, start, "completed")
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			return
		}
	}

	stdErr := toStandardError(err)
	h.record(ctx, start, "failed")
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	reportCtx, cancelReport := context.WithTimeout(context.Background(), reportTimeout)
	defer cancelReport()
	h.errHandler.HandleJobError(reportCtx, client, job, stdErr)
}

func (h *Handler) record(ctx context.Context, start time.Time, status string) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJob(ctx, TaskType, status, elapsed)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("variables are not a JSON object: " + err.Error())
	}
	if err := h.registry.ValidateInput(TaskType, vars); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	var input Input
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, apperrors.NewInvalidCriteriaError(err.Error())
	}
	return &input, nil
}

// Execute replaces the criteria and reports the rescore that followed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	criteria, batch, err := h.replacer.ReplaceCriteria(ctx, input.RequisitionID, input.Criteria)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(criteria))
	for i, c := range criteria {
		ids[i] = c.ID
	}

	h.logger.Info("requisition criteria replaced", map[string]interface{}{
		"requisitionId": input.RequisitionID,
		"criteria":      len(criteria),
		"rescored":      batch.Scored,
		"rescoreFailed": len(batch.Failed),
	})

	return &Output{
		RequisitionID: input.RequisitionID,
		CriterionIDs:  ids,
		Rescore:       batch,
	}, nil
}

func toStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, scoring.ErrInvalidCriteria):
		return apperrors.NewInvalidCriteriaError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(TaskType, err)
	case errors.Is(err, scoring.ErrCriteriaReplaceFailed):
		return apperrors.NewCriteriaReplaceFailedError(err)
	case errors.Is(err, scoring.ErrPipelineListFailed):
		return apperrors.NewRescoreFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":        job.Key,
		"requisitionId": output.RequisitionID,
	})
}
