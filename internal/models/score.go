package models

import "time"

// CandidateScore is the persisted, one-per-application scoring result.
// A nil sub-score means the signal was absent; FinalScore is nil exactly when ProfileScore is.
type CandidateScore struct {
	ApplicationID         string              `json:"application_id"`
	ProfileScore          *int                `json:"profile_score"`
	InterviewScore        *int                `json:"interview_score"`
	AssessmentScore       *int                `json:"assessment_score"`
	FinalScore            *int                `json:"final_score"`
	ProfileBreakdown      ProfileBreakdown    `json:"profile_breakdown"`
	InterviewBreakdown    InterviewBreakdown  `json:"interview_breakdown"`
	AssessmentBreakdown   AssessmentBreakdown `json:"assessment_breakdown"`
	MeetsRequiredCriteria bool                `json:"meets_required_criteria"`
	ScoringVersion        string              `json:"scoring_version"`
	ScoredAt              time.Time           `json:"scored_at"`
}

type ProfileBreakdown struct {
	Items []CriterionBreakdown `json:"items"`
}

type InterviewBreakdown struct {
	Scorecards []ScorecardBreakdown `json:"scorecards"`
}

type AssessmentBreakdown struct {
	Assessments []AssessmentResult `json:"assessments"`
}

type CriterionBreakdown struct {
	CriterionID string  `json:"criterion_id"`
	Type        string  `json:"type"`
	Value       string  `json:"value"`
	Weight      int     `json:"weight"`
	IsRequired  bool    `json:"is_required"`
	Factor      float64 `json:"factor"`
	Earned      float64 `json:"earned"`
	Detail      string  `json:"detail"`
}

const (
	ScorecardSourceCriterionRatings = "criterion_ratings"
	ScorecardSourceOverallRating    = "overall_rating"
)

type ScorecardBreakdown struct {
	ScorecardID     string            `json:"scorecard_id"`
	Interviewer     string            `json:"interviewer"`
	NormalizedScore float64           `json:"normalized_score"`
	Ratings         []CriterionRating `json:"ratings"`
	Source          string            `json:"source"`
}

type AssessmentResult struct {
	AssessmentID string  `json:"assessment_id"`
	TemplateName string  `json:"template_name"`
	Score        float64 `json:"score"`
}

// ScoreUpdatedEvent is published after a score is persisted.
type ScoreUpdatedEvent struct {
	EventID               string    `json:"eventId"`
	ApplicationID         string    `json:"applicationId"`
	RequisitionID         string    `json:"requisitionId"`
	CandidateID           string    `json:"candidateId"`
	FinalScore            *int      `json:"finalScore"`
	MeetsRequiredCriteria bool      `json:"meetsRequiredCriteria"`
	ScoringVersion        string    `json:"scoringVersion"`
	ScoredAt              time.Time `json:"scoredAt"`
}
