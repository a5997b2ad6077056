package scoring

import (
	"fmt"
	"strings"
	"time"
)

// Seniority levels a job description can declare.
const (
	SeniorityEntry    = "entry"
	SeniorityMid      = "mid"
	SenioritySenior   = "senior"
	SeniorityLead     = "lead"
	SeniorityManager  = "manager"
	SeniorityDirector = "director"
	SeniorityVP       = "vp"
	SeniorityCLevel   = "c-level"
)

// Education levels a résumé can declare.
const (
	EducationHighSchool = "high_school"
	EducationAssociate  = "associate"
	EducationBachelor   = "bachelor"
	EducationMaster     = "master"
	EducationDoctorate  = "doctorate"
)

// MaxAchievementExamples caps the quantified achievement examples kept per résumé.
const MaxAchievementExamples = 5

// JDExtraction is the structured view of a job description.
type JDExtraction struct {
	JobTitle                string   `json:"job_title"`
	SeniorityLevel          string   `json:"seniority_level"`
	YearsRequired           string   `json:"years_required"`
	HardSkills              []string `json:"hard_skills"`
	SoftSkills              []string `json:"soft_skills"`
	EducationRequired       string   `json:"education_required"`
	EducationPreferred      string   `json:"education_preferred"`
	CertificationsRequired  []string `json:"certifications_required"`
	CertificationsPreferred []string `json:"certifications_preferred"`
	Location                string   `json:"location"`
	RemoteMode              string   `json:"remote_mode"`
	IndustryKeywords        []string `json:"industry_keywords"`
	KeyResponsibilities     []string `json:"key_responsibilities"`
}

// ResumeExtraction is the structured view of a résumé.
type ResumeExtraction struct {
	CurrentTitle                   string   `json:"current_title"`
	AllJobTitles                   []string `json:"all_job_titles"`
	YearsExperience                string   `json:"years_experience"`
	HardSkills                     []string `json:"hard_skills"`
	SoftSkills                     []string `json:"soft_skills"`
	Education                      string   `json:"education"`
	EducationLevel                 string   `json:"education_level"`
	Certifications                 []string `json:"certifications"`
	Location                       string   `json:"location"`
	QuantifiedAchievementsCount    int      `json:"quantified_achievements_count"`
	QuantifiedAchievementsExamples []string `json:"quantified_achievements_examples"`
	Industries                     []string `json:"industries"`
	HasSummarySection              bool     `json:"has_summary_section"`
	HasSkillsSection               bool     `json:"has_skills_section"`
	HasEmail                       bool     `json:"has_email"`
	HasPhone                       bool     `json:"has_phone"`
	HasLinkedIn                    bool     `json:"has_linkedin"`
}

// FormattingAssessment captures ATS-parseability signals of a résumé layout.
type FormattingAssessment struct {
	UsesReverseChronological   bool     `json:"uses_reverse_chronological"`
	HasCleanFormat             bool     `json:"has_clean_format"`
	UsesStandardSectionHeaders bool     `json:"uses_standard_section_headers"`
	EstimatedWordCount         int      `json:"estimated_word_count"`
	Issues                     []string `json:"issues"`
}

// Input is everything the scorer needs for one résumé/job-description pair.
// ResumeText is optional; when present, skill keywords missing from the
// extracted skill lists are also searched for in the full résumé text.
type Input struct {
	JD         JDExtraction         `json:"jd"`
	Resume     ResumeExtraction     `json:"resume"`
	Formatting FormattingAssessment `json:"formatting"`
	ResumeText string               `json:"resume_text,omitempty"`
}

// DimensionScore is the result for one scored facet.
type DimensionScore struct {
	Name         Dimension `json:"name"`
	Score        int       `json:"score"`
	Weight       float64   `json:"weight"`
	MatchedCount int       `json:"matchedCount"`
	Total        int       `json:"total"`
	Matched      []string  `json:"matched,omitempty"`
	Missing      []string  `json:"missing,omitempty"`
}

// CompositeResult is the canonical, auditable fit score.
type CompositeResult struct {
	OverallScore    int              `json:"overallScore"`
	WeightsVersion  string           `json:"weightsVersion"`
	Dimensions      []DimensionScore `json:"dimensions"`
	MatchedKeywords []string         `json:"matchedKeywords"`
	MissingKeywords []string         `json:"missingKeywords"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Dimension returns the breakdown entry for name.
func (r CompositeResult) Dimension(name Dimension) (DimensionScore, bool) {
	for _, d := range r.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return DimensionScore{}, false
}

var (
	validSeniority = map[string]bool{
		SeniorityEntry: true, SeniorityMid: true, SenioritySenior: true, SeniorityLead: true,
		SeniorityManager: true, SeniorityDirector: true, SeniorityVP: true, SeniorityCLevel: true,
	}
	validEducationLevel = map[string]bool{
		EducationHighSchool: true, EducationAssociate: true, EducationBachelor: true,
		EducationMaster: true, EducationDoctorate: true,
	}
)

// Validate rejects extraction values the scorer cannot interpret.
// Empty enum fields are allowed and mean "not stated".
func (in Input) Validate() error {
	if s := strings.TrimSpace(in.JD.SeniorityLevel); s != "" && !validSeniority[strings.ToLower(s)] {
		return fmt.Errorf("%w: jd.seniority_level %q is not recognized", ErrInvalidInput, s)
	}
	if s := strings.TrimSpace(in.Resume.EducationLevel); s != "" && !validEducationLevel[strings.ToLower(s)] {
		return fmt.Errorf("%w: resume.education_level %q is not recognized", ErrInvalidInput, s)
	}
	if in.Resume.QuantifiedAchievementsCount < 0 {
		return fmt.Errorf("%w: resume.quantified_achievements_count must be >= 0", ErrInvalidInput)
	}
	if len(in.Resume.QuantifiedAchievementsExamples) > MaxAchievementExamples {
		return fmt.Errorf("%w: resume.quantified_achievements_examples allows at most %d items", ErrInvalidInput, MaxAchievementExamples)
	}
	if in.Formatting.EstimatedWordCount < 0 {
		return fmt.Errorf("%w: formatting.estimated_word_count must be >= 0", ErrInvalidInput)
	}
	return nil
}
