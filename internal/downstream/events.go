package downstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ats-scoring/internal/models"
)

const EventTypeScoreUpdated = "candidate.score.updated"

// Publisher is satisfied by aws.SNSClient.
type Publisher interface {
	PublishJSON(ctx context.Context, topicARN, body string, attributes map[string]string) (string, error)
}

// ScoreEvents announces every persisted score on an SNS topic.
type ScoreEvents struct {
	publisher Publisher
	topicARN  string
	newID     func() string
}

func NewScoreEvents(publisher Publisher, topicARN string) *ScoreEvents {
	return &ScoreEvents{publisher: publisher, topicARN: topicARN, newID: uuid.NewString}
}

func (e *ScoreEvents) Name() string { return "events" }

func (e *ScoreEvents) Apply(ctx context.Context, agg *models.ApplicationAggregate, score *models.CandidateScore) error {
	event := models.ScoreUpdatedEvent{
		EventID:               e.newID(),
		ApplicationID:         score.ApplicationID,
		RequisitionID:         agg.Application.RequisitionID,
		CandidateID:           agg.Application.CandidateID,
		FinalScore:            score.FinalScore,
		MeetsRequiredCriteria: score.MeetsRequiredCriteria,
		ScoringVersion:        score.ScoringVersion,
		ScoredAt:              score.ScoredAt,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode score event: %w", err)
	}

	_, err = e.publisher.PublishJSON(ctx, e.topicARN, string(body), map[string]string{
		"eventType":     EventTypeScoreUpdated,
		"requisitionId": event.RequisitionID,
	})
	if err != nil {
		return fmt.Errorf("publish score event %s: %w", score.ApplicationID, err)
	}
	return nil
}
