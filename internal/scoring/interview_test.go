package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-scoring/internal/models"
)

func ratingPtr(v int) *int {
	return &v
}

func submitted(id string, ratings ...models.CriterionRating) models.Scorecard {
	return models.Scorecard{
		ID:              id,
		InterviewerName: "Interviewer " + id,
		Status:          models.ScorecardStatusSubmitted,
		Ratings:         ratings,
	}
}

func TestNormalizeRating(t *testing.T) {
	assert.Equal(t, 100.0, NormalizeRating(5))
	assert.Equal(t, 0.0, NormalizeRating(1))
	assert.Equal(t, 50.0, NormalizeRating(3))
}

func TestScoreInterviews_SingleCriterionRating(t *testing.T) {
	tests := []struct {
		rating int
		want   int
	}{
		{5, 100},
		{1, 0},
		{3, 50},
	}
	for _, tt := range tests {
		interviews := []models.Interview{{
			ID:         "i1",
			Scorecards: []models.Scorecard{submitted("s1", models.CriterionRating{CriterionName: "Design", Weight: 1, Rating: tt.rating})},
		}}
		result := ScoreInterviews(interviews)

		require.NotNil(t, result.Score)
		assert.Equal(t, tt.want, *result.Score)
		require.Len(t, result.Breakdown, 1)
		assert.Equal(t, models.ScorecardSourceCriterionRatings, result.Breakdown[0].Source)
	}
}

func TestScoreInterviews_NoScorecards(t *testing.T) {
	result := ScoreInterviews(nil)
	assert.Nil(t, result.Score)
	assert.NotNil(t, result.Breakdown)
	assert.Empty(t, result.Breakdown)
}

func TestScoreInterviews_DraftsIgnored(t *testing.T) {
	draft := submitted("s1", models.CriterionRating{CriterionName: "Design", Weight: 1, Rating: 5})
	draft.Status = models.ScorecardStatusDraft

	result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{draft}}})

	assert.Nil(t, result.Score)
	assert.Empty(t, result.Breakdown)
}

func TestScoreInterviews_AnyNonDraftStatusCounts(t *testing.T) {
	tests := []struct {
		status    string
		wantScore *int
	}{
		{status: models.ScorecardStatusSubmitted, wantScore: intPtr(100)},
		{status: "completed", wantScore: intPtr(100)},
		{status: "", wantScore: intPtr(100)},
		{status: models.ScorecardStatusDraft, wantScore: nil},
		{status: "DRAFT", wantScore: nil},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			sc := submitted("s1", models.CriterionRating{CriterionName: "Design", Weight: 1, Rating: 5})
			sc.Status = tt.status

			result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{sc}}})
			assert.Equal(t, tt.wantScore, result.Score)
		})
	}
}

func TestScoreInterviews_WeightedAverage(t *testing.T) {
	// (4*2 + 2*1) / 3 = 3.333 -> 58.33
	sc := submitted("s1",
		models.CriterionRating{CriterionName: "Coding", Weight: 2, Rating: 4},
		models.CriterionRating{CriterionName: "Communication", Weight: 1, Rating: 2},
	)

	result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{sc}}})

	require.NotNil(t, result.Score)
	assert.Equal(t, 58, *result.Score)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, 58.33, result.Breakdown[0].NormalizedScore)
	assert.Len(t, result.Breakdown[0].Ratings, 2)
}

func TestScoreInterviews_OutOfRangeRatingsSkipped(t *testing.T) {
	sc := submitted("s1",
		models.CriterionRating{CriterionName: "Coding", Weight: 1, Rating: 5},
		models.CriterionRating{CriterionName: "Bogus", Weight: 10, Rating: 0},
		models.CriterionRating{CriterionName: "Bogus", Weight: 10, Rating: 9},
	)

	result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{sc}}})

	require.NotNil(t, result.Score)
	assert.Equal(t, 100, *result.Score)
	assert.Len(t, result.Breakdown[0].Ratings, 1)
}

func TestScoreInterviews_ZeroWeightScorecardSkipped(t *testing.T) {
	zero := submitted("s1", models.CriterionRating{CriterionName: "Coding", Weight: 0, Rating: 5})
	// ratings exist, so the overall rating is not used as a fallback
	zero.OverallRating = ratingPtr(5)
	good := submitted("s2", models.CriterionRating{CriterionName: "Coding", Weight: 1, Rating: 3})

	result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{zero, good}}})

	require.NotNil(t, result.Score)
	assert.Equal(t, 50, *result.Score)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, "s2", result.Breakdown[0].ScorecardID)
}

func TestScoreInterviews_OverallRatingFallback(t *testing.T) {
	overall := submitted("s1")
	overall.OverallRating = ratingPtr(4)
	noRating := submitted("s2")

	result := ScoreInterviews([]models.Interview{{ID: "i1", Scorecards: []models.Scorecard{overall, noRating}}})

	require.NotNil(t, result.Score)
	assert.Equal(t, 75, *result.Score)
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, models.ScorecardSourceOverallRating, result.Breakdown[0].Source)
	assert.Empty(t, result.Breakdown[0].Ratings)
	assert.NotNil(t, result.Breakdown[0].Ratings)
}

func TestScoreInterviews_MeanAcrossInterviews(t *testing.T) {
	a := submitted("s1", models.CriterionRating{CriterionName: "Coding", Weight: 1, Rating: 5})
	b := submitted("s2", models.CriterionRating{CriterionName: "Coding", Weight: 1, Rating: 2})
	c := submitted("s3")
	c.OverallRating = ratingPtr(3)

	result := ScoreInterviews([]models.Interview{
		{ID: "i1", Scorecards: []models.Scorecard{a}},
		{ID: "i2", Scorecards: []models.Scorecard{b, c}},
	})

	// (100 + 25 + 50) / 3 = 58.33
	require.NotNil(t, result.Score)
	assert.Equal(t, 58, *result.Score)
	assert.Len(t, result.Breakdown, 3)
}

// ==========================
// Assessments
// ==========================

func scorePtr(v float64) *float64 {
	return &v
}

func TestScoreAssessments(t *testing.T) {
	tests := []struct {
		name        string
		assessments []models.Assessment
		want        *int
		wantItems   int
	}{
		{name: "none", assessments: nil, want: nil, wantItems: 0},
		{
			name: "only pending or unscored",
			assessments: []models.Assessment{
				{ID: "a1", Status: "pending", Score: scorePtr(90)},
				{ID: "a2", Status: models.AssessmentStatusCompleted, Score: nil},
			},
			want:      nil,
			wantItems: 0,
		},
		{
			name: "mean of completed",
			assessments: []models.Assessment{
				{ID: "a1", TemplateName: "Go quiz", Status: models.AssessmentStatusCompleted, Score: scorePtr(70)},
				{ID: "a2", TemplateName: "SQL quiz", Status: models.AssessmentStatusCompleted, Score: scorePtr(85)},
				{ID: "a3", TemplateName: "Draft", Status: "in_progress", Score: scorePtr(10)},
			},
			want:      ratingPtr(78),
			wantItems: 2,
		},
		{
			name: "out of range is clamped",
			assessments: []models.Assessment{
				{ID: "a1", Status: models.AssessmentStatusCompleted, Score: scorePtr(140)},
			},
			want:      ratingPtr(100),
			wantItems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ScoreAssessments(tt.assessments)
			assert.Equal(t, tt.want, result.Score)
			assert.Len(t, result.Breakdown, tt.wantItems)
			assert.NotNil(t, result.Breakdown)
		})
	}
}

func TestScoreAssessments_Breakdown(t *testing.T) {
	result := ScoreAssessments([]models.Assessment{
		{ID: "a1", TemplateName: "Go quiz", Status: models.AssessmentStatusCompleted, Score: scorePtr(66.5)},
	})

	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, models.AssessmentResult{AssessmentID: "a1", TemplateName: "Go quiz", Score: 66.5}, result.Breakdown[0])
	require.NotNil(t, result.Score)
	assert.Equal(t, 67, *result.Score)
}
