package rescorerequisition

import "ats-scoring/internal/scoring"

type Input struct {
	RequisitionID string `json:"requisitionId"`
}

// Output mirrors the batch summary so a process can branch on partial failures.
type Output struct {
	RequisitionID string                 `json:"requisitionId"`
	Total         int                    `json:"total"`
	Scored        int                    `json:"scored"`
	Failed        []scoring.BatchFailure `json:"failed"`
	AllScored     bool                   `json:"allScored"`
}
