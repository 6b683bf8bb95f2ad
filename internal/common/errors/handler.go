package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns a worker failure into either a FailJob (retryable) or a ThrowError (business).
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Outcome describes what HandleJobError sent to the broker.
type Outcome struct {
	Thrown    bool
	Retries   int
	BPMNError *BPMNError
}

// Decide computes the outcome without talking to the broker.
// Retryable failures hand back job.Retries-1, so an exhausted job raises an incident.
func Decide(job entities.Job, err error) Outcome {
	stdErr := AsStandardError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if !stdErr.Retryable || !IsRetryableErrorCode(stdErr.Code) {
		return Outcome{Thrown: true, BPMNError: bpmnErr}
	}

	remaining := int(job.Retries) - 1
	if remaining < 0 {
		remaining = 0
	}
	return Outcome{Retries: remaining, BPMNError: bpmnErr}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Outcome {
	outcome := Decide(job, err)
	h.logError(job, AsStandardError(err), outcome)

	if outcome.Thrown {
		h.throwBPMNError(ctx, client, job, outcome.BPMNError)
	} else {
		attempt := outcome.BPMNError.Retries - outcome.Retries
		h.failJob(ctx, client, job, outcome, attempt)
	}
	return outcome
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, outcome Outcome, attempt int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(outcome.Retries)).
		RetryBackoff(RetryBackoff(attempt)).
		ErrorMessage(outcome.BPMNError.Message)

	if payload, err := json.Marshal(outcome.BPMNError.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(payload)); err == nil {
			if _, err := withVars.Send(ctx); err != nil {
				h.logSendFailure(job, "fail", err)
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logSendFailure(job, "fail", err)
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if payload, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if withVars, err := cmd.VariablesFromString(string(payload)); err == nil {
			if _, err := withVars.Send(ctx); err != nil {
				h.logSendFailure(job, "throw", err)
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logSendFailure(job, "throw", err)
	}
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, outcome Outcome) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    outcome.BPMNError.Code,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"thrown":           outcome.Thrown,
		"remainingRetries": outcome.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"processInstance":  job.ProcessInstanceKey,
	})
}

func (h *ErrorHandler) logSendFailure(job entities.Job, command string, err error) {
	h.logger.Error("failed to report job failure", map[string]interface{}{
		"jobKey":  job.Key,
		"command": command,
		"error":   err.Error(),
	})
}
