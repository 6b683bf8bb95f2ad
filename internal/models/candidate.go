package models

import "time"

// Proficiency levels a candidate can declare for a skill, lowest first.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

var ProficiencyLevels = []string{
	ProficiencyBeginner,
	ProficiencyIntermediate,
	ProficiencyAdvanced,
	ProficiencyExpert,
}

type CandidateProfile struct {
	ID          string           `json:"id"`
	Skills      []Skill          `json:"skills"`
	Experiences []WorkExperience `json:"experiences"`
	Education   []EducationEntry `json:"education"`
}

type Skill struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// WorkExperience with a nil EndDate is an ongoing role.
type WorkExperience struct {
	Title     string     `json:"title"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// EducationEntry.Degree is free text, e.g. "MSc Computer Science" or "Bachelor of Arts".
type EducationEntry struct {
	Degree string `json:"degree"`
}
