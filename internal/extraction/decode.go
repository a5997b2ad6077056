package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"ats-backend/internal/scoring"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// looseString accepts a JSON string or number. Models often answer "years"
// fields with a bare number.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = looseString(t)
	case float64:
		*s = looseString(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return fmt.Errorf("expected string or number, got %T", v)
	}
	return nil
}

type jdWire struct {
	JobTitle                string      `json:"job_title" validate:"max=300"`
	SeniorityLevel          string      `json:"seniority_level" validate:"omitempty,oneof=entry mid senior lead manager director vp c-level"`
	YearsRequired           looseString `json:"years_required"`
	HardSkills              []string    `json:"hard_skills" validate:"max=200,dive,max=200"`
	SoftSkills              []string    `json:"soft_skills" validate:"max=100,dive,max=200"`
	EducationRequired       string      `json:"education_required"`
	EducationPreferred      string      `json:"education_preferred"`
	CertificationsRequired  []string    `json:"certifications_required" validate:"max=50,dive,max=200"`
	CertificationsPreferred []string    `json:"certifications_preferred" validate:"max=50,dive,max=200"`
	Location                string      `json:"location"`
	RemoteMode              string      `json:"remote_mode"`
	IndustryKeywords        []string    `json:"industry_keywords"`
	KeyResponsibilities     []string    `json:"key_responsibilities"`
}

type resumeWire struct {
	CurrentTitle                   string      `json:"current_title" validate:"max=300"`
	AllJobTitles                   []string    `json:"all_job_titles" validate:"max=50,dive,max=300"`
	YearsExperience                looseString `json:"years_experience"`
	HardSkills                     []string    `json:"hard_skills" validate:"max=300,dive,max=200"`
	SoftSkills                     []string    `json:"soft_skills" validate:"max=100,dive,max=200"`
	Education                      string      `json:"education"`
	EducationLevel                 string      `json:"education_level" validate:"omitempty,oneof=high_school associate bachelor master doctorate"`
	Certifications                 []string    `json:"certifications" validate:"max=50,dive,max=200"`
	Location                       string      `json:"location"`
	QuantifiedAchievementsCount    int         `json:"quantified_achievements_count" validate:"min=0"`
	QuantifiedAchievementsExamples []string    `json:"quantified_achievements_examples"`
	Industries                     []string    `json:"industries"`
	HasSummarySection              bool        `json:"has_summary_section"`
	HasSkillsSection               bool        `json:"has_skills_section"`
	HasEmail                       bool        `json:"has_email"`
	HasPhone                       bool        `json:"has_phone"`
	HasLinkedIn                    bool        `json:"has_linkedin"`
}

type formattingWire struct {
	UsesReverseChronological   bool     `json:"uses_reverse_chronological"`
	HasCleanFormat             bool     `json:"has_clean_format"`
	UsesStandardSectionHeaders bool     `json:"uses_standard_section_headers"`
	EstimatedWordCount         int      `json:"estimated_word_count" validate:"min=0"`
	Issues                     []string `json:"issues"`
}

type resumeEnvelope struct {
	Resume     resumeWire     `json:"resume"`
	Formatting formattingWire `json:"formatting"`
}

// DecodeJD parses one job-description extraction reply.
func DecodeJD(raw string) (scoring.JDExtraction, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return scoring.JDExtraction{}, err
	}
	if err := validateSchema(jdSchema, "job description extraction", payload); err != nil {
		return scoring.JDExtraction{}, err
	}
	var w jdWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return scoring.JDExtraction{}, fmt.Errorf("%w: decode job description extraction: %v", ErrMalformed, err)
	}
	w.SeniorityLevel = canonicalSeniority(w.SeniorityLevel)
	if err := checkStruct(w); err != nil {
		return scoring.JDExtraction{}, err
	}
	return scoring.JDExtraction{
		JobTitle:                strings.TrimSpace(w.JobTitle),
		SeniorityLevel:          w.SeniorityLevel,
		YearsRequired:           strings.TrimSpace(string(w.YearsRequired)),
		HardSkills:              cleanList(w.HardSkills),
		SoftSkills:              cleanList(w.SoftSkills),
		EducationRequired:       strings.TrimSpace(w.EducationRequired),
		EducationPreferred:      strings.TrimSpace(w.EducationPreferred),
		CertificationsRequired:  cleanList(w.CertificationsRequired),
		CertificationsPreferred: cleanList(w.CertificationsPreferred),
		Location:                strings.TrimSpace(w.Location),
		RemoteMode:              strings.ToLower(strings.TrimSpace(w.RemoteMode)),
		IndustryKeywords:        cleanList(w.IndustryKeywords),
		KeyResponsibilities:     cleanList(w.KeyResponsibilities),
	}, nil
}

// DecodeResume parses one résumé/formatting extraction reply. resumeText, when
// present, fills in a zero word count.
func DecodeResume(raw, resumeText string) (scoring.ResumeExtraction, scoring.FormattingAssessment, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return scoring.ResumeExtraction{}, scoring.FormattingAssessment{}, err
	}
	if err := validateSchema(resumeSchema, "resume extraction", payload); err != nil {
		return scoring.ResumeExtraction{}, scoring.FormattingAssessment{}, err
	}
	var env resumeEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return scoring.ResumeExtraction{}, scoring.FormattingAssessment{}, fmt.Errorf("%w: decode resume extraction: %v", ErrMalformed, err)
	}
	env.Resume.EducationLevel = canonicalEducation(env.Resume.EducationLevel)
	if err := checkStruct(env); err != nil {
		return scoring.ResumeExtraction{}, scoring.FormattingAssessment{}, err
	}
	w := env.Resume

	examples := cleanList(w.QuantifiedAchievementsExamples)
	if len(examples) > scoring.MaxAchievementExamples {
		examples = examples[:scoring.MaxAchievementExamples]
	}
	resume := scoring.ResumeExtraction{
		CurrentTitle:                   strings.TrimSpace(w.CurrentTitle),
		AllJobTitles:                   cleanList(w.AllJobTitles),
		YearsExperience:                strings.TrimSpace(string(w.YearsExperience)),
		HardSkills:                     cleanList(w.HardSkills),
		SoftSkills:                     cleanList(w.SoftSkills),
		Education:                      strings.TrimSpace(w.Education),
		EducationLevel:                 w.EducationLevel,
		Certifications:                 cleanList(w.Certifications),
		Location:                       strings.TrimSpace(w.Location),
		QuantifiedAchievementsCount:    max(w.QuantifiedAchievementsCount, len(examples)),
		QuantifiedAchievementsExamples: examples,
		Industries:                     cleanList(w.Industries),
		HasSummarySection:              w.HasSummarySection,
		HasSkillsSection:               w.HasSkillsSection,
		HasEmail:                       w.HasEmail,
		HasPhone:                       w.HasPhone,
		HasLinkedIn:                    w.HasLinkedIn,
	}
	f := env.Formatting
	formatting := scoring.FormattingAssessment{
		UsesReverseChronological:   f.UsesReverseChronological,
		HasCleanFormat:             f.HasCleanFormat,
		UsesStandardSectionHeaders: f.UsesStandardSectionHeaders,
		EstimatedWordCount:         f.EstimatedWordCount,
		Issues:                     cleanList(f.Issues),
	}
	if formatting.EstimatedWordCount == 0 && resumeText != "" {
		formatting.EstimatedWordCount = len(strings.Fields(resumeText))
	}
	return resume, formatting, nil
}

// DecodeInput parses a stored extraction fixture: the JSON form of
// scoring.Input. Each part goes through the same checks as a live reply.
func DecodeInput(data []byte) (scoring.Input, error) {
	var doc struct {
		JD         json.RawMessage `json:"jd"`
		Resume     json.RawMessage `json:"resume"`
		Formatting json.RawMessage `json:"formatting"`
		ResumeText string          `json:"resume_text"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return scoring.Input{}, fmt.Errorf("%w: decode extraction fixture: %v", ErrMalformed, err)
	}
	if len(doc.JD) == 0 || len(doc.Resume) == 0 || len(doc.Formatting) == 0 {
		return scoring.Input{}, fmt.Errorf("%w: extraction fixture needs jd, resume and formatting objects", ErrMalformed)
	}
	jd, err := DecodeJD(string(doc.JD))
	if err != nil {
		return scoring.Input{}, err
	}
	envelope := `{"resume":` + string(doc.Resume) + `,"formatting":` + string(doc.Formatting) + `}`
	resume, formatting, err := DecodeResume(envelope, doc.ResumeText)
	if err != nil {
		return scoring.Input{}, err
	}
	return scoring.Input{JD: jd, Resume: resume, Formatting: formatting, ResumeText: doc.ResumeText}, nil
}

func checkStruct(v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrMalformed, strings.Join(fields, "; "))
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}

// extractJSONObject tolerates prose or code fences around the object.
func extractJSONObject(raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformed)
	}
	if json.Valid([]byte(payload)) {
		return []byte(payload), nil
	}
	start := strings.Index(payload, "{")
	end := strings.LastIndex(payload, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformed)
	}
	candidate := []byte(payload[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("%w: invalid JSON object", ErrMalformed)
	}
	return candidate, nil
}

var seniorityAliases = map[string]string{
	"entry":          scoring.SeniorityEntry,
	"entry level":    scoring.SeniorityEntry,
	"junior":         scoring.SeniorityEntry,
	"intern":         scoring.SeniorityEntry,
	"mid":            scoring.SeniorityMid,
	"mid level":      scoring.SeniorityMid,
	"intermediate":   scoring.SeniorityMid,
	"senior":         scoring.SenioritySenior,
	"sr":             scoring.SenioritySenior,
	"lead":           scoring.SeniorityLead,
	"staff":          scoring.SeniorityLead,
	"principal":      scoring.SeniorityLead,
	"manager":        scoring.SeniorityManager,
	"director":       scoring.SeniorityDirector,
	"vp":             scoring.SeniorityVP,
	"vice president": scoring.SeniorityVP,
	"c level":        scoring.SeniorityCLevel,
	"executive":      scoring.SeniorityCLevel,
}

// canonicalSeniority maps common spellings onto the enum. Unknown values pass
// through and fail validation.
func canonicalSeniority(s string) string {
	key := strings.ReplaceAll(scoring.Normalize(s), "-", " ")
	if key == "" {
		return ""
	}
	if v, ok := seniorityAliases[key]; ok {
		return v
	}
	return strings.TrimSpace(s)
}

var educationByLevel = map[int]string{
	1: scoring.EducationHighSchool,
	2: scoring.EducationAssociate,
	3: scoring.EducationBachelor,
	4: scoring.EducationMaster,
	5: scoring.EducationDoctorate,
}

func canonicalEducation(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if v, ok := educationByLevel[scoring.EducationLevel(s)]; ok {
		return v
	}
	return strings.TrimSpace(s)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
