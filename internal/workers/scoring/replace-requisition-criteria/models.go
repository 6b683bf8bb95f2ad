package replacerequisitioncriteria

import (
	"ats-scoring/internal/models"
	"ats-scoring/internal/scoring"
)

type Input struct {
	RequisitionID string                  `json:"requisitionId"`
	Criteria      []models.CriterionInput `json:"criteria"`
}

type Output struct {
	RequisitionID string               `json:"requisitionId"`
	CriterionIDs  []string             `json:"criterionIds"`
	Rescore       *scoring.BatchResult `json:"rescore"`
}
