package models

const (
	CriterionSkill           = "skill"
	CriterionExperienceYears = "experience_years"
	CriterionEducation       = "education"
	CriterionJobTitle        = "job_title"
)

var CriterionTypes = []string{
	CriterionSkill,
	CriterionExperienceYears,
	CriterionEducation,
	CriterionJobTitle,
}

const (
	MinCriterionWeight = 1
	MaxCriterionWeight = 100
)

// RequisitionCriterion is one weighted requirement of a requisition as stored.
type RequisitionCriterion struct {
	ID             string   `json:"id"`
	RequisitionID  string   `json:"requisition_id"`
	Type           string   `json:"criterion_type"`
	Value          string   `json:"value"`
	Weight         int      `json:"weight"`
	IsRequired     bool     `json:"is_required"`
	MinProficiency string   `json:"min_proficiency"`
	MinYears       *float64 `json:"min_years"`
	Order          int      `json:"order"`
}

// CriterionInput is a criterion submitted for a full replace, before ids are assigned.
type CriterionInput struct {
	Type           string   `json:"criterionType"`
	Value          string   `json:"value"`
	Weight         int      `json:"weight"`
	IsRequired     bool     `json:"isRequired"`
	MinProficiency string   `json:"minProficiency,omitempty"`
	MinYears       *float64 `json:"minYears,omitempty"`
	Order          int      `json:"order"`
}
