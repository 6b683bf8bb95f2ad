package validation

import (
	"ats-scoring/internal/models"
)

func stringsToAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// CriterionSchema describes one entry of a criteria replace request.
func CriterionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"criterionType", "value", "weight"},
		"properties": map[string]interface{}{
			"criterionType": map[string]interface{}{
				"type": "string",
				"enum": stringsToAny(models.CriterionTypes),
			},
			"value": map[string]interface{}{"type": "string"},
			"weight": map[string]interface{}{
				"type":    "integer",
				"minimum": models.MinCriterionWeight,
				"maximum": models.MaxCriterionWeight,
			},
			"isRequired": map[string]interface{}{"type": "boolean"},
			"minProficiency": map[string]interface{}{
				"type": "string",
				"enum": stringsToAny(append([]string{""}, models.ProficiencyLevels...)),
			},
			"minYears": map[string]interface{}{
				"type":    []interface{}{"number", "null"},
				"minimum": 0,
			},
			"order": map[string]interface{}{"type": "integer", "minimum": 0},
		},
	}
}

// CriteriaListSchema wraps CriterionSchema in an array.
func CriteriaListSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": CriterionSchema(),
	}
}

// ValidateCriteria rejects a criteria list that has any invalid entry. An empty list is valid.
func ValidateCriteria(inputs []models.CriterionInput) error {
	if len(inputs) == 0 {
		return nil
	}
	result, err := ValidateAgainstSchema(CriteriaListSchema(), inputs)
	if err != nil {
		return err
	}
	return result.Err()
}
