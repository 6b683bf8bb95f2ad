package rescorerequisition

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ats-scoring/internal/common/config"
	apperrors "ats-scoring/internal/common/errors"
	"ats-scoring/internal/common/logger"
	"ats-scoring/internal/scoring"
	"ats-scoring/pkg/registry"
)

type MockRescorer struct {
	mock.Mock
}

func (m *MockRescorer) RescoreRequisition(ctx context.Context, requisitionID string) (*scoring.BatchResult, error) {
	args := m.Called(ctx, requisitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scoring.BatchResult), args.Error(1)
}

func createTestHandler(t *testing.T, rescorer Rescorer) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(config.WorkerConfig{Timeout: 60000}), rescorer, registry.Default(), nil, logger.NewTestLogger(t))
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, new(MockRescorer))

	input, err := h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"requisitionId":"req-1"}`}})
	require.NoError(t, err)
	assert.Equal(t, "req-1", input.RequisitionID)

	_, err = h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{}`}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsStandardError(err).Code)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name          string
		batch         *scoring.BatchResult
		wantAllScored bool
	}{
		{
			name:          "all scored",
			batch:         &scoring.BatchResult{RequisitionID: "req-1", Total: 2, Scored: 2, Failed: []scoring.BatchFailure{}},
			wantAllScored: true,
		},
		{
			name: "partial failure still completes",
			batch: &scoring.BatchResult{RequisitionID: "req-1", Total: 3, Scored: 2, Failed: []scoring.BatchFailure{
				{ApplicationID: "app-2", Error: "SCORE_PERSIST_FAILED: deadlock"},
			}},
			wantAllScored: false,
		},
		{
			name:          "empty pipeline",
			batch:         &scoring.BatchResult{RequisitionID: "req-1", Failed: []scoring.BatchFailure{}},
			wantAllScored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rescorer := new(MockRescorer)
			rescorer.On("RescoreRequisition", mock.Anything, "req-1").Return(tt.batch, nil)

			output, err := createTestHandler(t, rescorer).Execute(context.Background(), &Input{RequisitionID: "req-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.batch.Total, output.Total)
			assert.Equal(t, tt.batch.Scored, output.Scored)
			assert.Equal(t, tt.wantAllScored, output.AllScored)
			assert.Len(t, output.Failed, len(tt.batch.Failed))
		})
	}
}

func TestHandler_Execute_ListFailure(t *testing.T) {
	rescorer := new(MockRescorer)
	listErr := fmt.Errorf("%w: requisition req-1: connection refused", scoring.ErrPipelineListFailed)
	rescorer.On("RescoreRequisition", mock.Anything, "req-1").Return(nil, listErr)

	_, err := createTestHandler(t, rescorer).Execute(context.Background(), &Input{RequisitionID: "req-1"})
	require.Error(t, err)

	stdErr := toStandardError(err)
	assert.Equal(t, apperrors.ErrCodeRescoreFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestToStandardError(t *testing.T) {
	assert.Equal(t, apperrors.ErrCodeTimeout, toStandardError(context.DeadlineExceeded).Code)
	assert.Equal(t, apperrors.ErrCodeInternal, toStandardError(errors.New("x")).Code)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, toStandardError(apperrors.NewInvalidInputError("x")).Code)
}
