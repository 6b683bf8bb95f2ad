// Package store persists scores and reads scoring inputs from Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ats-scoring/internal/models"
	"ats-scoring/internal/scoring"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// aggregateQuery materializes one application with everything scoring reads, as a single JSON document.
// Dates are cast to timestamptz so they decode as RFC 3339.
const aggregateQuery = `
SELECT json_build_object(
	'application', json_build_object(
		'id', a.id,
		'candidate_id', a.candidate_id,
		'requisition_id', a.requisition_id,
		'status', a.status
	),
	'candidate', json_build_object(
		'id', c.id,
		'skills', COALESCE((
			SELECT json_agg(json_build_object('name', s.name, 'proficiency', s.proficiency))
			FROM candidate_skills s WHERE s.candidate_id = c.id
		), '[]'::json),
		'experiences', COALESCE((
			SELECT json_agg(json_build_object(
				'title', e.title,
				'start_date', e.start_date::timestamptz,
				'end_date', e.end_date::timestamptz
			))
			FROM work_experiences e WHERE e.candidate_id = c.id
		), '[]'::json),
		'education', COALESCE((
			SELECT json_agg(json_build_object('degree', ed.degree))
			FROM candidate_education ed WHERE ed.candidate_id = c.id
		), '[]'::json)
	),
	'criteria', COALESCE((
		SELECT json_agg(json_build_object(
			'id', rc.id,
			'requisition_id', rc.requisition_id,
			'criterion_type', rc.criterion_type,
			'value', rc.value,
			'weight', rc.weight,
			'is_required', rc.is_required,
			'min_proficiency', COALESCE(rc.min_proficiency, ''),
			'min_years', rc.min_years,
			'order', rc.sort_order
		) ORDER BY rc.sort_order, rc.id)
		FROM requisition_criteria rc WHERE rc.requisition_id = a.requisition_id
	), '[]'::json),
	'interviews', COALESCE((
		SELECT json_agg(json_build_object(
			'id', i.id,
			'scorecards', COALESCE((
				SELECT json_agg(json_build_object(
					'id', sc.id,
					'interviewer_name', sc.interviewer_name,
					'status', sc.status,
					'overall_rating', sc.overall_rating,
					'ratings', COALESCE((
						SELECT json_agg(json_build_object(
							'criterion_name', ic.name,
							'weight', ic.weight,
							'rating', r.rating
						))
						FROM scorecard_ratings r
						JOIN interview_criteria ic ON ic.id = r.interview_criterion_id
						WHERE r.scorecard_id = sc.id
					), '[]'::json)
				))
				FROM scorecards sc WHERE sc.interview_id = i.id
			), '[]'::json)
		))
		FROM interviews i WHERE i.application_id = a.id
	), '[]'::json),
	'assessments', COALESCE((
		SELECT json_agg(json_build_object(
			'id', asm.id,
			'template_name', t.name,
			'status', asm.status,
			'score', asm.score
		))
		FROM assessments asm
		JOIN assessment_templates t ON t.id = asm.template_id
		WHERE asm.application_id = a.id
	), '[]'::json)
)
FROM applications a
JOIN candidates c ON c.id = a.candidate_id
WHERE a.id = $1`

func (s *PostgresStore) LoadAggregate(ctx context.Context, applicationID string) (*models.ApplicationAggregate, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, aggregateQuery, applicationID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scoring.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load application %s: %w", applicationID, err)
	}

	var agg models.ApplicationAggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, fmt.Errorf("decode application %s: %w", applicationID, err)
	}
	return &agg, nil
}

const upsertScoreQuery = `
INSERT INTO candidate_scores (
	application_id, profile_score, interview_score, assessment_score, final_score,
	profile_breakdown, interview_breakdown, assessment_breakdown,
	meets_required_criteria, scoring_version, scored_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (application_id) DO UPDATE SET
	profile_score = EXCLUDED.profile_score,
	interview_score = EXCLUDED.interview_score,
	assessment_score = EXCLUDED.assessment_score,
	final_score = EXCLUDED.final_score,
	profile_breakdown = EXCLUDED.profile_breakdown,
	interview_breakdown = EXCLUDED.interview_breakdown,
	assessment_breakdown = EXCLUDED.assessment_breakdown,
	meets_required_criteria = EXCLUDED.meets_required_criteria,
	scoring_version = EXCLUDED.scoring_version,
	scored_at = EXCLUDED.scored_at`

func (s *PostgresStore) UpsertScore(ctx context.Context, score *models.CandidateScore) error {
	profile, err := json.Marshal(score.ProfileBreakdown)
	if err != nil {
		return fmt.Errorf("encode profile breakdown: %w", err)
	}
	interview, err := json.Marshal(score.InterviewBreakdown)
	if err != nil {
		return fmt.Errorf("encode interview breakdown: %w", err)
	}
	assessment, err := json.Marshal(score.AssessmentBreakdown)
	if err != nil {
		return fmt.Errorf("encode assessment breakdown: %w", err)
	}

	_, err = s.db.ExecContext(ctx, upsertScoreQuery,
		score.ApplicationID,
		nullInt(score.ProfileScore),
		nullInt(score.InterviewScore),
		nullInt(score.AssessmentScore),
		nullInt(score.FinalScore),
		profile,
		interview,
		assessment,
		score.MeetsRequiredCriteria,
		score.ScoringVersion,
		score.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert score %s: %w", score.ApplicationID, err)
	}
	return nil
}

const getScoreQuery = `
SELECT application_id, profile_score, interview_score, assessment_score, final_score,
	profile_breakdown, interview_breakdown, assessment_breakdown,
	meets_required_criteria, scoring_version, scored_at
FROM candidate_scores
WHERE application_id = $1`

func (s *PostgresStore) GetScore(ctx context.Context, applicationID string) (*models.CandidateScore, error) {
	var (
		score                            models.CandidateScore
		profile, interview, assessment   sql.NullInt64
		final                            sql.NullInt64
		profileRaw, interviewRaw, asmRaw []byte
	)

	err := s.db.QueryRowContext(ctx, getScoreQuery, applicationID).Scan(
		&score.ApplicationID, &profile, &interview, &assessment, &final,
		&profileRaw, &interviewRaw, &asmRaw,
		&score.MeetsRequiredCriteria, &score.ScoringVersion, &score.ScoredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scoring.ErrScoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get score %s: %w", applicationID, err)
	}

	score.ProfileScore = intFromNull(profile)
	score.InterviewScore = intFromNull(interview)
	score.AssessmentScore = intFromNull(assessment)
	score.FinalScore = intFromNull(final)

	if err := decodeJSONB(profileRaw, &score.ProfileBreakdown); err != nil {
		return nil, fmt.Errorf("decode profile breakdown: %w", err)
	}
	if err := decodeJSONB(interviewRaw, &score.InterviewBreakdown); err != nil {
		return nil, fmt.Errorf("decode interview breakdown: %w", err)
	}
	if err := decodeJSONB(asmRaw, &score.AssessmentBreakdown); err != nil {
		return nil, fmt.Errorf("decode assessment breakdown: %w", err)
	}
	return &score, nil
}

const pipelineQuery = `
SELECT id
FROM applications
WHERE requisition_id = $1 AND status = ANY($2)
ORDER BY created_at, id`

func (s *PostgresStore) ListPipelineApplications(ctx context.Context, requisitionID string, statuses []string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, pipelineQuery, requisitionID, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("list pipeline for requisition %s: %w", requisitionID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const criteriaQuery = `
SELECT id, requisition_id, criterion_type, value, weight, is_required,
	COALESCE(min_proficiency, ''), min_years, sort_order
FROM requisition_criteria
WHERE requisition_id = $1
ORDER BY sort_order, id`

func (s *PostgresStore) GetCriteria(ctx context.Context, requisitionID string) ([]models.RequisitionCriterion, error) {
	rows, err := s.db.QueryContext(ctx, criteriaQuery, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("get criteria for requisition %s: %w", requisitionID, err)
	}
	defer rows.Close()

	criteria := []models.RequisitionCriterion{}
	for rows.Next() {
		var (
			c        models.RequisitionCriterion
			minYears sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.RequisitionID, &c.Type, &c.Value, &c.Weight, &c.IsRequired,
			&c.MinProficiency, &minYears, &c.Order); err != nil {
			return nil, err
		}
		if minYears.Valid {
			v := minYears.Float64
			c.MinYears = &v
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}

const (
	deleteCriteriaQuery  = `DELETE FROM requisition_criteria WHERE requisition_id = $1`
	insertCriterionQuery = `
INSERT INTO requisition_criteria (
	id, requisition_id, criterion_type, value, weight, is_required, min_proficiency, min_years, sort_order
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// ReplaceCriteria swaps the whole criteria set of a requisition in one transaction.
func (s *PostgresStore) ReplaceCriteria(ctx context.Context, requisitionID string, criteria []models.RequisitionCriterion) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin criteria replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteCriteriaQuery, requisitionID); err != nil {
		return fmt.Errorf("delete criteria for requisition %s: %w", requisitionID, err)
	}

	for _, c := range criteria {
		_, err = tx.ExecContext(ctx, insertCriterionQuery,
			c.ID, requisitionID, c.Type, c.Value, c.Weight, c.IsRequired,
			nullString(c.MinProficiency), nullFloat(c.MinYears), c.Order,
		)
		if err != nil {
			return fmt.Errorf("insert criterion %s: %w", c.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit criteria replace: %w", err)
	}
	return nil
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func decodeJSONB(raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
