package scoring

import (
	"fmt"

	"ats-scoring/internal/common/config"
)

// Weights is the immutable weighting used to combine sub-scores. Build it with NewWeights or DefaultWeights.
type Weights struct {
	profile    float64
	interview  float64
	assessment float64

	// profile/assessment split when no interview score exists
	noInterviewProfile    float64
	noInterviewAssessment float64

	// profile/interview split when no assessment score exists
	noAssessmentProfile   float64
	noAssessmentInterview float64

	gateCap int
}

func DefaultWeights() Weights {
	return Weights{
		profile:               0.50,
		interview:             0.35,
		assessment:            0.15,
		noInterviewProfile:    0.70,
		noInterviewAssessment: 0.30,
		noAssessmentProfile:   0.59,
		noAssessmentInterview: 0.41,
		gateCap:               40,
	}
}

// NewWeights validates the scoring config and freezes it into a Weights value.
func NewWeights(cfg config.ScoringConfig) (Weights, error) {
	if err := config.ValidateScoring(cfg); err != nil {
		return Weights{}, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return Weights{
		profile:               cfg.ProfileWeight,
		interview:             cfg.InterviewWeight,
		assessment:            cfg.AssessmentWeight,
		noInterviewProfile:    cfg.NoInterview.Primary,
		noInterviewAssessment: cfg.NoInterview.Secondary,
		noAssessmentProfile:   cfg.NoAssessment.Primary,
		noAssessmentInterview: cfg.NoAssessment.Secondary,
		gateCap:               cfg.GateCap,
	}, nil
}

func (w Weights) GateCap() int { return w.gateCap }

// Combine merges the three sub-scores into the final score.
// A nil profile score always yields nil. meetsRequired must come from the profile scorer alone;
// when false the result is capped at the gate cap.
func (w Weights) Combine(profile, interview, assessment *int, meetsRequired bool) *int {
	if profile == nil {
		return nil
	}

	p := float64(*profile)
	var raw float64
	switch {
	case interview == nil && assessment == nil:
		raw = p
	case interview == nil:
		raw = p*w.noInterviewProfile + float64(*assessment)*w.noInterviewAssessment
	case assessment == nil:
		raw = p*w.noAssessmentProfile + float64(*interview)*w.noAssessmentInterview
	default:
		raw = p*w.profile + float64(*interview)*w.interview + float64(*assessment)*w.assessment
	}

	final := roundScore(raw)
	if !meetsRequired {
		final = min(final, w.gateCap)
	}
	return &final
}
