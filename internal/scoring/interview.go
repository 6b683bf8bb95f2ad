package scoring

import (
	"strings"

	"ats-scoring/internal/models"
)

type InterviewResult struct {
	Score     *int
	Breakdown []models.ScorecardBreakdown
}

const (
	minRating = 1
	maxRating = 5
)

// NormalizeRating maps a 1-5 rating linearly onto 0-100.
func NormalizeRating(raw float64) float64 {
	return (raw - minRating) / (maxRating - minRating) * 100
}

// ScoreInterviews averages the normalized scores of every non-draft scorecard.
func ScoreInterviews(interviews []models.Interview) InterviewResult {
	result := InterviewResult{Breakdown: []models.ScorecardBreakdown{}}

	var sum float64
	var count int
	for _, interview := range interviews {
		for _, sc := range interview.Scorecards {
			if strings.EqualFold(sc.Status, models.ScorecardStatusDraft) {
				continue
			}
			entry, ok := scoreScorecard(sc)
			if !ok {
				continue
			}
			sum += entry.NormalizedScore
			count++
			entry.NormalizedScore = roundTo(entry.NormalizedScore, 2)
			result.Breakdown = append(result.Breakdown, entry)
		}
	}

	if count == 0 {
		return result
	}
	result.Score = intPtr(roundScore(sum / float64(count)))
	return result
}

// scoreScorecard returns the unrounded normalized score, or false when the scorecard contributes nothing.
func scoreScorecard(sc models.Scorecard) (models.ScorecardBreakdown, bool) {
	entry := models.ScorecardBreakdown{
		ScorecardID: sc.ID,
		Interviewer: sc.InterviewerName,
		Ratings:     []models.CriterionRating{},
	}

	if len(sc.Ratings) > 0 {
		var weighted, weightSum float64
		for _, r := range sc.Ratings {
			if r.Rating < minRating || r.Rating > maxRating {
				continue
			}
			weighted += float64(r.Rating) * r.Weight
			weightSum += r.Weight
			entry.Ratings = append(entry.Ratings, r)
		}
		if weightSum == 0 {
			return entry, false
		}
		entry.NormalizedScore = NormalizeRating(weighted / weightSum)
		entry.Source = models.ScorecardSourceCriterionRatings
		return entry, true
	}

	if sc.OverallRating == nil || *sc.OverallRating < minRating || *sc.OverallRating > maxRating {
		return entry, false
	}
	entry.NormalizedScore = NormalizeRating(float64(*sc.OverallRating))
	entry.Source = models.ScorecardSourceOverallRating
	return entry, true
}
