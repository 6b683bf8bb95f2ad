package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"ats-scoring/internal/models"
)

// ScoreDocument is what recruiters search and sort on in the score index.
type ScoreDocument struct {
	ApplicationID         string    `json:"applicationId"`
	RequisitionID         string    `json:"requisitionId"`
	CandidateID           string    `json:"candidateId"`
	Status                string    `json:"status"`
	ProfileScore          *int      `json:"profileScore"`
	InterviewScore        *int      `json:"interviewScore"`
	AssessmentScore       *int      `json:"assessmentScore"`
	FinalScore            *int      `json:"finalScore"`
	MeetsRequiredCriteria bool      `json:"meetsRequiredCriteria"`
	ScoringVersion        string    `json:"scoringVersion"`
	ScoredAt              time.Time `json:"scoredAt"`
}

func NewScoreDocument(agg *models.ApplicationAggregate, score *models.CandidateScore) ScoreDocument {
	return ScoreDocument{
		ApplicationID:         score.ApplicationID,
		RequisitionID:         agg.Application.RequisitionID,
		CandidateID:           agg.Application.CandidateID,
		Status:                agg.Application.Status,
		ProfileScore:          score.ProfileScore,
		InterviewScore:        score.InterviewScore,
		AssessmentScore:       score.AssessmentScore,
		FinalScore:            score.FinalScore,
		MeetsRequiredCriteria: score.MeetsRequiredCriteria,
		ScoringVersion:        score.ScoringVersion,
		ScoredAt:              score.ScoredAt,
	}
}

// ScoreIndexer upserts one document per application into Elasticsearch.
type ScoreIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewScoreIndexer(client *elasticsearch.Client, index string) *ScoreIndexer {
	if index == "" {
		index = "candidate-scores"
	}
	return &ScoreIndexer{client: client, index: index}
}

func (i *ScoreIndexer) Name() string { return "index" }

func (i *ScoreIndexer) Apply(ctx context.Context, agg *models.ApplicationAggregate, score *models.CandidateScore) error {
	body, err := json.Marshal(NewScoreDocument(agg, score))
	if err != nil {
		return fmt.Errorf("encode score document: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(score.ApplicationID),
	)
	if err != nil {
		return fmt.Errorf("index score %s: %w", score.ApplicationID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index score %s: %s: %s", score.ApplicationID, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
