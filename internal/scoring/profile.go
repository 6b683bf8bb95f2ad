package scoring

import (
	"time"

	"ats-scoring/internal/models"
)

type ProfileResult struct {
	Score         *int
	MeetsRequired bool
	Breakdown     []models.CriterionBreakdown
}

// ScoreProfile scores a candidate against a requisition's weighted criteria.
// No criteria, or a total weight of zero, yields a nil score that still meets the required gate.
func ScoreProfile(candidate models.CandidateProfile, criteria []models.RequisitionCriterion, now time.Time) ProfileResult {
	result := ProfileResult{
		MeetsRequired: true,
		Breakdown:     []models.CriterionBreakdown{},
	}

	totalWeight := 0
	for _, c := range criteria {
		totalWeight += c.Weight
	}
	if len(criteria) == 0 || totalWeight <= 0 {
		return result
	}

	var earnedSum float64
	for _, c := range criteria {
		eval := evaluate(VariantOf(c), candidate, now)
		earned := float64(c.Weight) * eval.factor
		earnedSum += earned

		if c.IsRequired && eval.unmet {
			result.MeetsRequired = false
		}

		result.Breakdown = append(result.Breakdown, models.CriterionBreakdown{
			CriterionID: c.ID,
			Type:        c.Type,
			Value:       c.Value,
			Weight:      c.Weight,
			IsRequired:  c.IsRequired,
			Factor:      roundTo(eval.factor, 3),
			Earned:      roundTo(earned, 2),
			Detail:      eval.detail,
		})
	}

	result.Score = intPtr(roundScore(100 * earnedSum / float64(totalWeight)))
	return result
}
