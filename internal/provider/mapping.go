package provider

import "strings"

// Employment types
const (
	EmploymentPermanent  = "CDI"
	EmploymentFixedTerm  = "CDD"
	EmploymentFreelance  = "Freelance"
	EmploymentInternship = "Internship"
	EmploymentOther      = "Other"
)

// Work modes
const (
	WorkModeRemote = "Remote"
	WorkModeHybrid = "Hybrid"
	WorkModeOnsite = "Onsite"
)

// Experience levels
const (
	LevelSenior = "Senior"
	LevelMid    = "Mid"
	LevelJunior = "Junior"
	LevelAny    = "Any"
)

type keywordRule struct {
	value    string
	keywords []string
}

var workModeRules = []keywordRule{
	{value: WorkModeRemote, keywords: []string{"remote", "télétravail", "teletravail"}},
	{value: WorkModeHybrid, keywords: []string{"hybrid", "hybride"}},
}

var experienceRules = []keywordRule{
	{value: LevelSenior, keywords: []string{"senior", "lead", "principal"}},
	{value: LevelMid, keywords: []string{"mid", "middle", "confirmé"}},
	{value: LevelJunior, keywords: []string{"junior", "entry", "débutant"}},
}

// EmploymentType maps provider contract fields to an employment type.
// The first field with a known value wins.
func EmploymentType(contractFields ...string) string {
	for _, v := range contractFields {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "full_time", "permanent":
			return EmploymentPermanent
		case "part_time", "contract":
			return EmploymentFixedTerm
		case "freelance":
			return EmploymentFreelance
		case "internship":
			return EmploymentInternship
		}
	}
	return EmploymentOther
}

// WorkMode looks for remote and hybrid keywords in title and description
func WorkMode(title, description string) string {
	if v, _ := match(workModeRules, title, description); v != "" {
		return v
	}
	return WorkModeOnsite
}

// ExperienceLevel looks for seniority keywords in title and description.
// It also returns the keyword that matched.
func ExperienceLevel(title, description string) (level, hint string) {
	if v, kw := match(experienceRules, title, description); v != "" {
		return v, kw
	}
	return LevelAny, ""
}

// City returns the first comma-separated part of a location display name
func City(display string) string {
	city, _, _ := strings.Cut(display, ",")
	return strings.TrimSpace(city)
}

func match(rules []keywordRule, title, description string) (string, string) {
	text := strings.ToLower(title + " " + description)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.value, kw
			}
		}
	}
	return "", ""
}
