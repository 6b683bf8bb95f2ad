package scoreapplication

import "time"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID         string    `json:"applicationId"`
	ProfileScore          *int      `json:"profileScore"`
	InterviewScore        *int      `json:"interviewScore"`
	AssessmentScore       *int      `json:"assessmentScore"`
	FinalScore            *int      `json:"finalScore"`
	MeetsRequiredCriteria bool      `json:"meetsRequiredCriteria"`
	ScoringVersion        string    `json:"scoringVersion"`
	ScoredAt              time.Time `json:"scoredAt"`
}
