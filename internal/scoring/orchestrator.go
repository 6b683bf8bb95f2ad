package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/common/metrics"
	"ats-scoring/internal/models"
)

var (
	ErrApplicationNotFound   = errors.New("APPLICATION_NOT_FOUND")
	ErrScoreNotFound         = errors.New("SCORE_NOT_FOUND")
	ErrScoreFetchFailed      = errors.New("SCORE_FETCH_FAILED")
	ErrScorePersistFailed    = errors.New("SCORE_PERSIST_FAILED")
	ErrInvalidCriteria       = errors.New("INVALID_CRITERIA")
	ErrCriteriaReplaceFailed = errors.New("CRITERIA_REPLACE_FAILED")
	ErrPipelineListFailed    = errors.New("PIPELINE_LIST_FAILED")
)

// Store is the persistence the orchestrator needs.
// LoadAggregate and GetScore return ErrApplicationNotFound / ErrScoreNotFound for missing rows.
type Store interface {
	LoadAggregate(ctx context.Context, applicationID string) (*models.ApplicationAggregate, error)
	UpsertScore(ctx context.Context, score *models.CandidateScore) error
	GetScore(ctx context.Context, applicationID string) (*models.CandidateScore, error)
	ListPipelineApplications(ctx context.Context, requisitionID string, statuses []string) ([]string, error)
	GetCriteria(ctx context.Context, requisitionID string) ([]models.RequisitionCriterion, error)
	ReplaceCriteria(ctx context.Context, requisitionID string, criteria []models.RequisitionCriterion) error
}

// SideEffect is a best-effort downstream update run after a score is persisted.
type SideEffect interface {
	Name() string
	Apply(ctx context.Context, agg *models.ApplicationAggregate, score *models.CandidateScore) error
}

// ScoreReader serves persisted scores ahead of the store, e.g. a cache.
type ScoreReader interface {
	GetScore(ctx context.Context, applicationID string) (*models.CandidateScore, error)
}

// CriteriaValidator rejects a criteria list before anything is written.
type CriteriaValidator func(inputs []models.CriterionInput) error

type Options struct {
	Weights          Weights
	Version          string
	PipelineStatuses []string
	SideEffects      []SideEffect
	Cache            ScoreReader
	Validate         CriteriaValidator
	NewID            func() string
	Now              func() time.Time
}

type Orchestrator struct {
	store            Store
	weights          Weights
	version          string
	pipelineStatuses []string
	sideEffects      []SideEffect
	cache            ScoreReader
	validate         CriteriaValidator
	newID            func() string
	now              func() time.Time
	logger           logger.Logger
}

func NewOrchestrator(store Store, opts Options, log logger.Logger) *Orchestrator {
	o := &Orchestrator{
		store:            store,
		weights:          opts.Weights,
		version:          opts.Version,
		pipelineStatuses: opts.PipelineStatuses,
		sideEffects:      opts.SideEffects,
		cache:            opts.Cache,
		validate:         opts.Validate,
		newID:            opts.NewID,
		now:              opts.Now,
		logger:           log.WithFields(map[string]interface{}{"component": "scoring"}),
	}
	if o.weights == (Weights{}) {
		o.weights = DefaultWeights()
	}
	if o.version == "" {
		o.version = "v1"
	}
	if len(o.pipelineStatuses) == 0 {
		o.pipelineStatuses = []string{
			models.ApplicationStatusApplied,
			models.ApplicationStatusScreening,
			models.ApplicationStatusInterview,
			models.ApplicationStatusAssessment,
			models.ApplicationStatusOffer,
		}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// ==========================
// Single application
// ==========================

// ScoreApplication recomputes and upserts the score of one application and returns the stored record.
// Concurrent calls for the same application are not serialized; the last upsert wins.
func (o *Orchestrator) ScoreApplication(ctx context.Context, applicationID string) (*models.CandidateScore, error) {
	ctx, span := otel.Tracer("ats-scoring/scoring").Start(ctx, "ScoreApplication")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))

	start := time.Now()
	defer func() { metrics.ScoringDuration.Observe(time.Since(start).Seconds()) }()

	agg, err := o.store.LoadAggregate(ctx, applicationID)
	if err != nil {
		metrics.ScoreFailures.WithLabelValues("fetch").Inc()
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, ErrApplicationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: application %s: %v", ErrScoreFetchFailed, applicationID, err)
	}

	score := o.compute(agg)

	if err := o.store.UpsertScore(ctx, score); err != nil {
		metrics.ScoreFailures.WithLabelValues("persist").Inc()
		span.SetStatus(codes.Error, "persist failed")
		return nil, fmt.Errorf("%w: application %s: %v", ErrScorePersistFailed, applicationID, err)
	}

	metrics.ScoresComputed.WithLabelValues(fmt.Sprintf("%t", score.MeetsRequiredCriteria)).Inc()
	if score.FinalScore != nil {
		metrics.FinalScore.Observe(float64(*score.FinalScore))
		span.SetAttributes(attribute.Int("score.final", *score.FinalScore))
	}

	o.applySideEffects(ctx, agg, score)
	return score, nil
}

// Compute runs the three scorers and the aggregator without persisting anything.
func (o *Orchestrator) Compute(agg *models.ApplicationAggregate) *models.CandidateScore {
	return o.compute(agg)
}

func (o *Orchestrator) compute(agg *models.ApplicationAggregate) *models.CandidateScore {
	now := o.now()

	profile := ScoreProfile(agg.Candidate, agg.Criteria, now)
	interview := ScoreInterviews(agg.Interviews)
	assessment := ScoreAssessments(agg.Assessments)

	return &models.CandidateScore{
		ApplicationID:         agg.Application.ID,
		ProfileScore:          profile.Score,
		InterviewScore:        interview.Score,
		AssessmentScore:       assessment.Score,
		FinalScore:            o.weights.Combine(profile.Score, interview.Score, assessment.Score, profile.MeetsRequired),
		ProfileBreakdown:      models.ProfileBreakdown{Items: profile.Breakdown},
		InterviewBreakdown:    models.InterviewBreakdown{Scorecards: interview.Breakdown},
		AssessmentBreakdown:   models.AssessmentBreakdown{Assessments: assessment.Breakdown},
		MeetsRequiredCriteria: profile.MeetsRequired,
		ScoringVersion:        o.version,
		ScoredAt:              now.UTC(),
	}
}

func (o *Orchestrator) applySideEffects(ctx context.Context, agg *models.ApplicationAggregate, score *models.CandidateScore) {
	for _, se := range o.sideEffects {
		if err := se.Apply(ctx, agg, score); err != nil {
			metrics.SideEffectFailures.WithLabelValues(se.Name()).Inc()
			o.logger.Warn("downstream update failed", map[string]interface{}{
				"sideEffect":    se.Name(),
				"applicationId": score.ApplicationID,
				"error":         err.Error(),
			})
		}
	}
}

// GetScore reads the persisted score, trying the cache first.
func (o *Orchestrator) GetScore(ctx context.Context, applicationID string) (*models.CandidateScore, error) {
	if o.cache != nil {
		score, err := o.cache.GetScore(ctx, applicationID)
		if err == nil && score != nil {
			return score, nil
		}
		if err != nil && !errors.Is(err, ErrScoreNotFound) {
			o.logger.Warn("score cache read failed", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err.Error(),
			})
		}
	}

	score, err := o.store.GetScore(ctx, applicationID)
	if err != nil {
		if errors.Is(err, ErrScoreNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: score %s: %v", ErrScoreFetchFailed, applicationID, err)
	}
	return score, nil
}

// ==========================
// Requisition batch
// ==========================

type BatchFailure struct {
	ApplicationID string `json:"applicationId"`
	Error         string `json:"error"`
}

type BatchResult struct {
	RequisitionID string         `json:"requisitionId"`
	Total         int            `json:"total"`
	Scored        int            `json:"scored"`
	Failed        []BatchFailure `json:"failed"`
}

// RescoreRequisition rescores every in-pipeline application of a requisition, one at a time.
// A failing application is logged and recorded; the rest of the batch still runs.
// Only listing the applications can fail the call as a whole.
func (o *Orchestrator) RescoreRequisition(ctx context.Context, requisitionID string) (*BatchResult, error) {
	ids, err := o.store.ListPipelineApplications(ctx, requisitionID, o.pipelineStatuses)
	if err != nil {
		return nil, fmt.Errorf("%w: requisition %s: %v", ErrPipelineListFailed, requisitionID, err)
	}

	result := &BatchResult{
		RequisitionID: requisitionID,
		Total:         len(ids),
		Failed:        []BatchFailure{},
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, BatchFailure{ApplicationID: id, Error: ctx.Err().Error()})
			metrics.BatchItems.WithLabelValues("failed").Inc()
			continue
		}
		if _, err := o.ScoreApplication(ctx, id); err != nil {
			o.logger.Error("rescore failed for application", map[string]interface{}{
				"requisitionId": requisitionID,
				"applicationId": id,
				"error":         err.Error(),
			})
			result.Failed = append(result.Failed, BatchFailure{ApplicationID: id, Error: err.Error()})
			metrics.BatchItems.WithLabelValues("failed").Inc()
			continue
		}
		result.Scored++
		metrics.BatchItems.WithLabelValues("scored").Inc()
	}

	o.logger.Info("requisition rescored", map[string]interface{}{
		"requisitionId": requisitionID,
		"total":         result.Total,
		"scored":        result.Scored,
		"failed":        len(result.Failed),
	})
	return result, nil
}

// ==========================
// Criteria
// ==========================

func (o *Orchestrator) GetCriteria(ctx context.Context, requisitionID string) ([]models.RequisitionCriterion, error) {
	criteria, err := o.store.GetCriteria(ctx, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("%w: criteria %s: %v", ErrScoreFetchFailed, requisitionID, err)
	}
	return criteria, nil
}

// ReplaceCriteria deletes and recreates the requisition's criteria, then rescores its pipeline.
// Invalid input is rejected before anything is written.
func (o *Orchestrator) ReplaceCriteria(ctx context.Context, requisitionID string, inputs []models.CriterionInput) ([]models.RequisitionCriterion, *BatchResult, error) {
	if o.validate != nil {
		if err := o.validate(inputs); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
		}
	}

	criteria := make([]models.RequisitionCriterion, 0, len(inputs))
	for i, in := range inputs {
		order := in.Order
		if order == 0 {
			order = i + 1
		}
		var id string
		if o.newID != nil {
			id = o.newID()
		}
		criteria = append(criteria, models.RequisitionCriterion{
			ID:             id,
			RequisitionID:  requisitionID,
			Type:           in.Type,
			Value:          in.Value,
			Weight:         in.Weight,
			IsRequired:     in.IsRequired,
			MinProficiency: in.MinProficiency,
			MinYears:       in.MinYears,
			Order:          order,
		})
	}

	if err := o.store.ReplaceCriteria(ctx, requisitionID, criteria); err != nil {
		return nil, nil, fmt.Errorf("%w: requisition %s: %v", ErrCriteriaReplaceFailed, requisitionID, err)
	}

	batch, err := o.RescoreRequisition(ctx, requisitionID)
	if err != nil {
		return criteria, nil, err
	}
	return criteria, batch, nil
}
