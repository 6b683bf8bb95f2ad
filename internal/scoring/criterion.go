package scoring

import (
	"fmt"
	"strings"
	"time"

	"ats-scoring/internal/models"
)

// Criterion is one of SkillCriterion, ExperienceCriterion, EducationCriterion or JobTitleCriterion.
// Each variant carries only the fields its formula reads.
type Criterion interface {
	criterionType() string
}

type SkillCriterion struct {
	Name           string
	MinProficiency string
}

type ExperienceCriterion struct {
	MinYears float64
}

type EducationCriterion struct {
	Degree string
}

type JobTitleCriterion struct {
	Title string
}

// unknownCriterion keeps rows with an unrecognized type scorable (factor 0) instead of failing the whole profile.
type unknownCriterion struct {
	Type string
}

func (SkillCriterion) criterionType() string      { return models.CriterionSkill }
func (ExperienceCriterion) criterionType() string { return models.CriterionExperienceYears }
func (EducationCriterion) criterionType() string  { return models.CriterionEducation }
func (JobTitleCriterion) criterionType() string   { return models.CriterionJobTitle }
func (u unknownCriterion) criterionType() string  { return u.Type }

// VariantOf decodes a stored criterion row into its typed variant.
func VariantOf(c models.RequisitionCriterion) Criterion {
	switch c.Type {
	case models.CriterionSkill:
		return SkillCriterion{Name: c.Value, MinProficiency: c.MinProficiency}
	case models.CriterionExperienceYears:
		var minYears float64
		if c.MinYears != nil {
			minYears = *c.MinYears
		}
		return ExperienceCriterion{MinYears: minYears}
	case models.CriterionEducation:
		return EducationCriterion{Degree: c.Value}
	case models.CriterionJobTitle:
		return JobTitleCriterion{Title: c.Value}
	default:
		return unknownCriterion{Type: c.Type}
	}
}

// evaluation is the outcome of one criterion against one candidate.
// unmet reports a shortfall that clears the required gate when the criterion is required.
type evaluation struct {
	factor float64
	detail string
	unmet  bool
}

// evaluate is the single dispatch point over criterion variants.
func evaluate(c Criterion, candidate models.CandidateProfile, now time.Time) evaluation {
	switch v := c.(type) {
	case SkillCriterion:
		return evaluateSkill(v, candidate.Skills)
	case ExperienceCriterion:
		return evaluateExperience(v, candidate.Experiences, now)
	case EducationCriterion:
		return evaluateEducation(v, candidate.Education)
	case JobTitleCriterion:
		return evaluateJobTitle(v, candidate.Experiences)
	default:
		return evaluation{detail: fmt.Sprintf("unsupported criterion type %q", c.criterionType())}
	}
}

// ==========================
// skill
// ==========================

var proficiencyFactor = map[string]float64{
	models.ProficiencyBeginner:     0.3,
	models.ProficiencyIntermediate: 0.6,
	models.ProficiencyAdvanced:     0.85,
	models.ProficiencyExpert:       1.0,
}

var proficiencyRank = map[string]int{
	models.ProficiencyBeginner:     1,
	models.ProficiencyIntermediate: 2,
	models.ProficiencyAdvanced:     3,
	models.ProficiencyExpert:       4,
}

func evaluateSkill(c SkillCriterion, skills []models.Skill) evaluation {
	var found *models.Skill
	for i := range skills {
		if strings.EqualFold(skills[i].Name, c.Name) {
			found = &skills[i]
			break
		}
	}
	if found == nil {
		return evaluation{factor: 0, detail: "not found", unmet: true}
	}

	level := strings.ToLower(found.Proficiency)
	if c.MinProficiency != "" && proficiencyRank[level] < proficiencyRank[strings.ToLower(c.MinProficiency)] {
		// Below the minimum still earns the candidate's own level factor.
		return evaluation{
			factor: proficiencyFactor[level],
			detail: fmt.Sprintf("%s, below minimum %s", level, strings.ToLower(c.MinProficiency)),
		}
	}
	return evaluation{factor: proficiencyFactor[level], detail: level}
}

// ==========================
// experience_years
// ==========================

const daysPerYear = 365.25

const secondsPerDay = 24 * 60 * 60

// TotalExperienceYears sums role durations in 365.25-day years. Ongoing roles run until now.
// Spans are taken in Unix seconds; time.Duration saturates at about 292 years.
func TotalExperienceYears(experiences []models.WorkExperience, now time.Time) float64 {
	var total float64
	for _, exp := range experiences {
		end := now
		if exp.EndDate != nil {
			end = *exp.EndDate
		}
		if secs := end.Unix() - exp.StartDate.Unix(); secs > 0 {
			total += float64(secs) / secondsPerDay / daysPerYear
		}
	}
	return total
}

func evaluateExperience(c ExperienceCriterion, experiences []models.WorkExperience, now time.Time) evaluation {
	actual := TotalExperienceYears(experiences, now)
	factor := actual / max(c.MinYears, 1)
	if factor > 1 {
		factor = 1
	}
	return evaluation{
		factor: factor,
		detail: fmt.Sprintf("%.1f years (min %.1f)", actual, c.MinYears),
		unmet:  actual < c.MinYears,
	}
}

// ==========================
// education
// ==========================

var degreeKeywords = []struct {
	keyword string
	rank    int
}{
	{"associate", 1},
	{"bachelor", 2},
	{"master", 3},
	{"mba", 3},
	{"phd", 4},
	{"doctorate", 4},
}

// DegreeRank returns the highest rank whose keyword appears in the free-text degree, or 0.
func DegreeRank(degree string) int {
	lower := strings.ToLower(degree)
	rank := 0
	for _, dk := range degreeKeywords {
		if dk.rank > rank && strings.Contains(lower, dk.keyword) {
			rank = dk.rank
		}
	}
	return rank
}

func evaluateEducation(c EducationCriterion, education []models.EducationEntry) evaluation {
	required := DegreeRank(c.Degree)
	best := 0
	for _, e := range education {
		best = max(best, DegreeRank(e.Degree))
	}
	if best >= required {
		return evaluation{factor: 1, detail: fmt.Sprintf("degree rank %d meets %d", best, required)}
	}
	return evaluation{
		factor: 0,
		detail: fmt.Sprintf("degree rank %d below %d", best, required),
		unmet:  true,
	}
}

// ==========================
// job_title
// ==========================

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

// evaluateJobTitle never clears the required gate.
func evaluateJobTitle(c JobTitleCriterion, experiences []models.WorkExperience) evaluation {
	want := tokenSet(c.Title)
	if len(want) == 0 {
		return evaluation{detail: "empty title"}
	}

	overlap := 0
	for _, exp := range experiences {
		for tok := range tokenSet(exp.Title) {
			if _, ok := want[tok]; ok {
				overlap++
			}
		}
	}

	factor := float64(overlap) / float64(len(want))
	if factor > 1 {
		factor = 1
	}
	return evaluation{factor: factor, detail: fmt.Sprintf("%d of %d title tokens matched", overlap, len(want))}
}
