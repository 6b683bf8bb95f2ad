package registry

import (
	"fmt"

	"ats-scoring/internal/common/validation"
)

const (
	TaskScoreApplication           = "score-application"
	TaskRescoreRequisition         = "rescore-requisition"
	TaskReplaceRequisitionCriteria = "replace-requisition-criteria"
)

func idSchema(field string) map[string]interface{} {
	return map[string]interface{}{
		field: map[string]interface{}{"type": "string", "minLength": 1},
	}
}

// Default returns the activities this service serves.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:          TaskScoreApplication,
				DisplayName: "Score Application",
				Description: "Computes and persists the candidate score for one application",
				Category:    "scoring",
				Version:     "1.0.0",
				TaskType:    TaskScoreApplication,
				InputSchema: map[string]interface{}{
					"type":       "object",
					"required":   []interface{}{"applicationId"},
					"properties": idSchema("applicationId"),
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"applicationId", "meetsRequiredCriteria", "scoringVersion"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "APPLICATION_NOT_FOUND", "SCORE_FETCH_FAILED", "SCORE_PERSIST_FAILED"},
				Timeout:    "15s",
				Retries:    3,
				Tags:       []string{"scoring"},
			},
			{
				ID:          TaskRescoreRequisition,
				DisplayName: "Rescore Requisition",
				Description: "Rescores every application of a requisition in an active pipeline stage",
				Category:    "scoring",
				Version:     "1.0.0",
				TaskType:    TaskRescoreRequisition,
				InputSchema: map[string]interface{}{
					"type":       "object",
					"required":   []interface{}{"requisitionId"},
					"properties": idSchema("requisitionId"),
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"requisitionId", "total", "scored", "failed"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "RESCORE_FAILED"},
				Timeout:    "5m",
				Retries:    3,
				Tags:       []string{"scoring", "batch"},
			},
			{
				ID:          TaskReplaceRequisitionCriteria,
				DisplayName: "Replace Requisition Criteria",
				Description: "Replaces a requisition's criteria and rescores its pipeline",
				Category:    "scoring",
				Version:     "1.0.0",
				TaskType:    TaskReplaceRequisitionCriteria,
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"requisitionId", "criteria"},
					"properties": map[string]interface{}{
						"requisitionId": map[string]interface{}{"type": "string", "minLength": 1},
						"criteria":      map[string]interface{}{"type": "array"},
					},
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"requisitionId", "criterionIds", "rescore"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "INVALID_CRITERIA", "CRITERIA_REPLACE_FAILED", "RESCORE_FAILED"},
				Timeout:    "5m",
				Retries:    3,
				Tags:       []string{"scoring", "criteria"},
			},
		},
	}
}

// ValidateInput checks job variables against the activity's input schema.
// Criteria entries are only checked for shape here; their content is validated when they are replaced.
func (r *ActivityRegistry) ValidateInput(taskType string, variables map[string]interface{}) error {
	activity, ok := r.Lookup(taskType)
	if !ok {
		return fmt.Errorf("unknown task type %q", taskType)
	}
	result, err := validation.ValidateAgainstSchema(activity.InputSchema, variables)
	if err != nil {
		return err
	}
	return result.Err()
}
