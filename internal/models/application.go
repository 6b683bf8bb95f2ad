package models

const (
	ApplicationStatusApplied    = "applied"
	ApplicationStatusScreening  = "screening"
	ApplicationStatusInterview  = "interview"
	ApplicationStatusAssessment = "assessment"
	ApplicationStatusOffer      = "offer"
)

const (
	ScorecardStatusDraft     = "draft"
	ScorecardStatusSubmitted = "submitted"

	AssessmentStatusCompleted = "completed"
)

type Application struct {
	ID            string `json:"id"`
	CandidateID   string `json:"candidate_id"`
	RequisitionID string `json:"requisition_id"`
	Status        string `json:"status"`
}

type Interview struct {
	ID         string      `json:"id"`
	Scorecards []Scorecard `json:"scorecards"`
}

type Scorecard struct {
	ID              string            `json:"id"`
	InterviewerName string            `json:"interviewer_name"`
	Status          string            `json:"status"`
	OverallRating   *int              `json:"overall_rating"`
	Ratings         []CriterionRating `json:"ratings"`
}

// CriterionRating carries the interview criterion's name and weight alongside the 1-5 rating.
type CriterionRating struct {
	CriterionName string  `json:"criterion_name"`
	Weight        float64 `json:"weight"`
	Rating        int     `json:"rating"`
}

type Assessment struct {
	ID           string   `json:"id"`
	TemplateName string   `json:"template_name"`
	Status       string   `json:"status"`
	Score        *float64 `json:"score"`
}

// ApplicationAggregate is everything scoring one application needs, loaded in a single fetch.
type ApplicationAggregate struct {
	Application Application            `json:"application"`
	Candidate   CandidateProfile       `json:"candidate"`
	Criteria    []RequisitionCriterion `json:"criteria"`
	Interviews  []Interview            `json:"interviews"`
	Assessments []Assessment           `json:"assessments"`
}
