package scoring

import "ats-scoring/internal/models"

type AssessmentResult struct {
	Score     *int
	Breakdown []models.AssessmentResult
}

// ScoreAssessments is the rounded mean of completed assessments that carry a score.
func ScoreAssessments(assessments []models.Assessment) AssessmentResult {
	result := AssessmentResult{Breakdown: []models.AssessmentResult{}}

	var sum float64
	for _, a := range assessments {
		if a.Status != models.AssessmentStatusCompleted || a.Score == nil {
			continue
		}
		sum += *a.Score
		result.Breakdown = append(result.Breakdown, models.AssessmentResult{
			AssessmentID: a.ID,
			TemplateName: a.TemplateName,
			Score:        *a.Score,
		})
	}

	if len(result.Breakdown) == 0 {
		return result
	}
	result.Score = intPtr(roundScore(sum / float64(len(result.Breakdown))))
	return result
}
