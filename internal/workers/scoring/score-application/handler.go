package scoreapplication

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
	TaskType = registry.TaskScoreApplication

	// reportTimeout bounds the complete/fail command, which runs after the job context may have expired.
	reportTimeout = 10 * time.Second
)

// Scorer is the part of the orchestrator this worker drives.
type Scorer interface {
	ScoreApplication(ctx context.Context, applicationID string) (*models.CandidateScore, error)
}

type Handler struct {
	config     *Config
	scorer     Scorer
	registry   *registry.ActivityRegistry
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, scorer Scorer, reg *registry.ActivityRegistry, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		scorer:     scorer,
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

	stdErr := toStandardError(input, err)
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
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute scores one application and shapes the stored record into job variables.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	score, err := h.scorer.ScoreApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application scored", map[string]interface{}{
		"applicationId": score.ApplicationID,
		"finalScore":    score.FinalScore,
		"meetsRequired": score.MeetsRequiredCriteria,
	})

	return &Output{
		ApplicationID:         score.ApplicationID,
		ProfileScore:          score.ProfileScore,
		InterviewScore:        score.InterviewScore,
		AssessmentScore:       score.AssessmentScore,
		FinalScore:            score.FinalScore,
		MeetsRequiredCriteria: score.MeetsRequiredCriteria,
		ScoringVersion:        score.ScoringVersion,
		ScoredAt:              score.ScoredAt,
	}, nil
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, scoring.ErrApplicationNotFound):
		id := ""
		if input != nil {
			id = input.ApplicationID
		}
		return apperrors.NewApplicationNotFoundError(id)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError(TaskType, err)
	case errors.Is(err, scoring.ErrScoreFetchFailed):
		return apperrors.NewScoreFetchFailedError(err)
	case errors.Is(err, scoring.ErrScorePersistFailed):
		return apperrors.NewScorePersistFailedError(err)
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
		"applicationId": output.ApplicationID,
	})
}
