package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/models"
	"ats-scoring/internal/scoring"
)

// ==========================
// Test Helper Functions
// ==========================

func intPtr(v int) *int { return &v }

func sampleAggregate() *models.ApplicationAggregate {
	return &models.ApplicationAggregate{
		Application: models.Application{
			ID:            "app-1",
			CandidateID:   "cand-1",
			RequisitionID: "req-1",
			Status:        models.ApplicationStatusInterview,
		},
	}
}

func sampleScore() *models.CandidateScore {
	return &models.CandidateScore{
		ApplicationID:         "app-1",
		ProfileScore:          intPtr(80),
		FinalScore:            intPtr(80),
		ProfileBreakdown:      models.ProfileBreakdown{Items: []models.CriterionBreakdown{}},
		InterviewBreakdown:    models.InterviewBreakdown{Scorecards: []models.ScorecardBreakdown{}},
		AssessmentBreakdown:   models.AssessmentBreakdown{Assessments: []models.AssessmentResult{}},
		MeetsRequiredCriteria: true,
		ScoringVersion:        "v1",
		ScoredAt:              time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Cache
// ==========================

func TestScoreCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewScoreCache(client, time.Hour)
	ctx := context.Background()

	_, err := cache.GetScore(ctx, "app-1")
	assert.ErrorIs(t, err, scoring.ErrScoreNotFound)

	require.NoError(t, cache.Apply(ctx, sampleAggregate(), sampleScore()))
	assert.Equal(t, time.Hour, mr.TTL("score:app-1"))

	got, err := cache.GetScore(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, intPtr(80), got.FinalScore)
	assert.Nil(t, got.InterviewScore)
	assert.True(t, got.ScoredAt.Equal(sampleScore().ScoredAt))

	mr.FastForward(2 * time.Hour)
	_, err = cache.GetScore(ctx, "app-1")
	assert.ErrorIs(t, err, scoring.ErrScoreNotFound)
}

func TestScoreCache_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewScoreCache(client, 0)
	ctx := context.Background()

	require.NoError(t, cache.Apply(ctx, sampleAggregate(), sampleScore()))
	assert.True(t, mr.Exists("score:app-1"))

	require.NoError(t, cache.Invalidate(ctx, "app-1", "app-2"))
	assert.False(t, mr.Exists("score:app-1"))
	assert.NoError(t, cache.Invalidate(ctx))
}

func TestScoreCache_Errors(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewScoreCache(client, time.Minute)
	ctx := context.Background()

	data, err := json.Marshal(sampleScore())
	require.NoError(t, err)
	redisMock.ExpectSet("score:app-1", data, time.Minute).SetErr(errors.New("READONLY"))
	redisMock.ExpectDel("score:app-1").SetVal(1)
	err = cache.Apply(ctx, sampleAggregate(), sampleScore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READONLY")

	redisMock.ExpectGet("score:app-1").SetErr(errors.New("i/o timeout"))
	_, err = cache.GetScore(ctx, "app-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, scoring.ErrScoreNotFound)

	redisMock.ExpectGet("score:app-2").SetVal("not json")
	_, err = cache.GetScore(ctx, "app-2")
	assert.Error(t, err)

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestScoreCache_FailedWriteNeverServesPreviousScore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := NewScoreCache(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Apply(ctx, sampleAggregate(), sampleScore()))

	rescored := sampleScore()
	rescored.FinalScore = intPtr(0)
	mr.SetError("LOADING Redis is loading the dataset in memory")
	require.Error(t, cache.Apply(ctx, sampleAggregate(), rescored))
	mr.SetError("")

	_, err := cache.GetScore(ctx, "app-1")
	assert.ErrorIs(t, err, scoring.ErrScoreNotFound)
	assert.False(t, mr.Exists("score:app-1"))

	require.NoError(t, cache.Apply(ctx, sampleAggregate(), rescored))
	got, err := cache.GetScore(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, intPtr(0), got.FinalScore)
}

// memoryStore keeps one aggregate and the last upserted score per application.
type memoryStore struct {
	aggregates map[string]*models.ApplicationAggregate
	scores     map[string]*models.CandidateScore
}

func (s *memoryStore) LoadAggregate(_ context.Context, applicationID string) (*models.ApplicationAggregate, error) {
	agg, ok := s.aggregates[applicationID]
	if !ok {
		return nil, scoring.ErrApplicationNotFound
	}
	return agg, nil
}

func (s *memoryStore) UpsertScore(_ context.Context, score *models.CandidateScore) error {
	s.scores[score.ApplicationID] = score
	return nil
}

func (s *memoryStore) GetScore(_ context.Context, applicationID string) (*models.CandidateScore, error) {
	score, ok := s.scores[applicationID]
	if !ok {
		return nil, scoring.ErrScoreNotFound
	}
	return score, nil
}

func (s *memoryStore) ListPipelineApplications(context.Context, string, []string) ([]string, error) {
	return []string{"app-1"}, nil
}

func (s *memoryStore) GetCriteria(_ context.Context, requisitionID string) ([]models.RequisitionCriterion, error) {
	return s.aggregates["app-1"].Criteria, nil
}

func (s *memoryStore) ReplaceCriteria(_ context.Context, _ string, criteria []models.RequisitionCriterion) error {
	s.aggregates["app-1"].Criteria = criteria
	return nil
}

func TestScoreCache_ReadThroughAfterRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := NewScoreCache(client, time.Hour)
	ctx := context.Background()

	agg := sampleAggregate()
	agg.Candidate.Skills = []models.Skill{{Name: "Go", Proficiency: models.ProficiencyExpert}}
	agg.Criteria = []models.RequisitionCriterion{
		{ID: "c1", RequisitionID: "req-1", Type: models.CriterionSkill, Value: "Go", Weight: 50, IsRequired: true},
	}
	store := &memoryStore{
		aggregates: map[string]*models.ApplicationAggregate{"app-1": agg},
		scores:     map[string]*models.CandidateScore{},
	}
	o := scoring.NewOrchestrator(store, scoring.Options{
		SideEffects: []scoring.SideEffect{cache},
		Cache:       cache,
	}, logger.NewTestLogger(t))

	first, err := o.ScoreApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, intPtr(100), first.FinalScore)

	mr.SetError("LOADING Redis is loading the dataset in memory")
	_, _, err = o.ReplaceCriteria(ctx, "req-1", []models.CriterionInput{
		{Type: models.CriterionSkill, Value: "Rust", Weight: 50, IsRequired: true},
	})
	require.NoError(t, err)
	mr.SetError("")

	persisted, err := store.GetScore(ctx, "app-1")
	require.NoError(t, err)
	require.NotNil(t, persisted.FinalScore)

	got, err := o.GetScore(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, persisted.FinalScore, got.FinalScore)
	assert.NotEqual(t, first.FinalScore, got.FinalScore)
}

// ==========================
// Index
// ==========================

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *ScoreIndexer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewScoreIndexer(client, "candidate-scores")
}

func TestScoreIndexer_Apply(t *testing.T) {
	var (
		gotPath string
		gotDoc  ScoreDocument
	)
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	require.NoError(t, indexer.Apply(context.Background(), sampleAggregate(), sampleScore()))
	assert.Equal(t, "/candidate-scores/_doc/app-1", gotPath)
	assert.Equal(t, "req-1", gotDoc.RequisitionID)
	assert.Equal(t, "interview", gotDoc.Status)
	assert.Equal(t, intPtr(80), gotDoc.FinalScore)
}

func TestScoreIndexer_ErrorResponse(t *testing.T) {
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := indexer.Apply(context.Background(), sampleAggregate(), sampleScore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

// ==========================
// Events
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, topicARN, body string, attributes map[string]string) (string, error) {
	args := m.Called(ctx, topicARN, body, attributes)
	return args.String(0), args.Error(1)
}

func TestScoreEvents_Apply(t *testing.T) {
	pub := new(MockPublisher)
	events := NewScoreEvents(pub, "arn:aws:sns:us-east-1:123456789012:scores")
	events.newID = func() string { return "evt-1" }

	var body string
	pub.On("PublishJSON", mock.Anything, "arn:aws:sns:us-east-1:123456789012:scores", mock.AnythingOfType("string"),
		map[string]string{"eventType": EventTypeScoreUpdated, "requisitionId": "req-1"}).
		Run(func(args mock.Arguments) { body = args.String(2) }).
		Return("msg-1", nil)

	require.NoError(t, events.Apply(context.Background(), sampleAggregate(), sampleScore()))
	pub.AssertExpectations(t)

	var event models.ScoreUpdatedEvent
	require.NoError(t, json.Unmarshal([]byte(body), &event))
	assert.Equal(t, "evt-1", event.EventID)
	assert.Equal(t, "cand-1", event.CandidateID)
	assert.Equal(t, intPtr(80), event.FinalScore)
	assert.True(t, event.MeetsRequiredCriteria)
}

func TestScoreEvents_PublishError(t *testing.T) {
	pub := new(MockPublisher)
	events := NewScoreEvents(pub, "arn:topic")
	pub.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("throttled"))

	err := events.Apply(context.Background(), sampleAggregate(), sampleScore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestDefaultEventIDsAreUUIDs(t *testing.T) {
	events := NewScoreEvents(new(MockPublisher), "arn:topic")
	id := events.newID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, events.newID())
}
