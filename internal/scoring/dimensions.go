package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingIntRe = regexp.MustCompile(`\d+`)

// ScoreHardSkills scores how many JD hard skills the résumé covers.
func ScoreHardSkills(jd JDExtraction, resume ResumeExtraction, resumeText string) DimensionScore {
	return scoreSkillList(DimensionHardSkills, jd.HardSkills, resume.HardSkills, resumeText)
}

// ScoreSoftSkills scores how many JD soft skills the résumé covers.
func ScoreSoftSkills(jd JDExtraction, resume ResumeExtraction, resumeText string) DimensionScore {
	return scoreSkillList(DimensionSoftSkills, jd.SoftSkills, resume.SoftSkills, resumeText)
}

// scoreSkillList matches each required skill against every résumé skill in
// both directions, then against the full résumé text. No requirements is a
// vacuous 100.
func scoreSkillList(name Dimension, required, have []string, resumeText string) DimensionScore {
	required = compact(required)
	out := DimensionScore{Name: name, Total: len(required)}
	if len(required) == 0 {
		out.Score = 100
		return out
	}

	for _, req := range required {
		found := false
		for _, h := range have {
			if matchesEither(req, h) {
				found = true
				break
			}
		}
		if !found && resumeText != "" && Matches(req, resumeText) {
			found = true
		}
		if found {
			out.Matched = append(out.Matched, req)
		} else {
			out.Missing = append(out.Missing, req)
		}
	}
	out.MatchedCount = len(out.Matched)
	out.Score = percent(out.MatchedCount, out.Total)
	return out
}

// ScoreJobTitle compares the JD title to the résumé's current and past titles.
// An unstated JD title scores a neutral 70.
func ScoreJobTitle(jd JDExtraction, resume ResumeExtraction) DimensionScore {
	out := DimensionScore{Name: DimensionJobTitle}
	jdTitle := Normalize(jd.JobTitle)
	if jdTitle == "" {
		out.Score = 70
		return out
	}
	current := Normalize(resume.CurrentTitle)
	if current != "" {
		if current == jdTitle {
			out.Score = 100
			out.Matched = []string{jd.JobTitle}
			out.MatchedCount, out.Total = 1, 1
			return out
		}
		if strings.Contains(current, jdTitle) || strings.Contains(jdTitle, current) {
			out.Score = 90
			out.Matched = []string{jd.JobTitle}
			out.MatchedCount, out.Total = 1, 1
			return out
		}
	}

	jdWords := significantWords(jdTitle)
	currentWords := wordSet(current)
	historyWords := make(map[string]bool)
	for _, t := range resume.AllJobTitles {
		for w := range wordSet(Normalize(t)) {
			historyWords[w] = true
		}
	}

	credit := 0.0
	for _, w := range jdWords {
		switch {
		case currentWords[w]:
			credit += 1
			out.Matched = append(out.Matched, w)
		case historyWords[w]:
			credit += 0.8
			out.Matched = append(out.Matched, w)
		default:
			out.Missing = append(out.Missing, w)
		}
	}
	out.Total = len(jdWords)
	out.MatchedCount = len(out.Matched)

	ratio := 0.0
	if len(jdWords) > 0 {
		ratio = credit / float64(len(jdWords))
	}
	out.Score = clamp(roundInt(30+60*ratio), 30, 90)
	return out
}

var educationKeywords = []struct {
	level    int
	keywords []string
}{
	{5, []string{"doctorate", "doctoral", "phd", "ph d", "doctor of"}},
	{4, []string{"master", "masters", "mba", "msc", "m sc", "ms", "m s", "postgraduate"}},
	{3, []string{"bachelor", "bachelors", "undergraduate", "bsc", "b sc", "bs", "ba", "b s", "b a", "btech", "college degree"}},
	{2, []string{"associate", "associates"}},
	{1, []string{"high school", "high_school", "ged", "secondary school", "diploma"}},
}

// EducationLevel maps free text or an education_level enum to the ordinal
// scale high_school=1 … doctorate=5, matching whole words of the normalized
// text. The highest level mentioned wins. Zero means nothing was recognized.
func EducationLevel(text string) int {
	_, highest := educationRange(text)
	return highest
}

// RequiredEducationLevel ranks a job requirement. Alternatives such as
// "Bachelor's or Master's" resolve to the lowest level that qualifies.
func RequiredEducationLevel(text string) int {
	lowest, _ := educationRange(text)
	return lowest
}

func educationRange(text string) (lowest, highest int) {
	n := Normalize(text)
	if n == "" {
		return 0, 0
	}
	padded := " " + n + " "
	for _, entry := range educationKeywords {
		for _, kw := range entry.keywords {
			if !strings.Contains(padded, " "+kw+" ") {
				continue
			}
			if lowest == 0 || entry.level < lowest {
				lowest = entry.level
			}
			highest = max(highest, entry.level)
			break
		}
	}
	return lowest, highest
}

// ScoreEducation compares the résumé's highest recognized level to the JD requirement.
func ScoreEducation(jd JDExtraction, resume ResumeExtraction) DimensionScore {
	out := DimensionScore{Name: DimensionEducation}
	if strings.TrimSpace(jd.EducationRequired) == "" {
		out.Score = 70
		return out
	}
	required := RequiredEducationLevel(jd.EducationRequired)
	if required == 0 {
		// A requirement we cannot rank is treated like no requirement.
		out.Score = 70
		return out
	}
	have := max(EducationLevel(resume.Education), EducationLevel(resume.EducationLevel))
	out.Total = 1

	switch {
	case have == 0:
		out.Score = 20
		out.Missing = []string{jd.EducationRequired}
	case have >= required:
		out.Score = 100
		out.MatchedCount = 1
		out.Matched = []string{jd.EducationRequired}
	case required-have == 1:
		out.Score = 70
		out.Missing = []string{jd.EducationRequired}
	default:
		out.Score = 40
		out.Missing = []string{jd.EducationRequired}
	}
	return out
}

// ParseYears returns the first integer found in s.
func ParseYears(s string) (int, bool) {
	m := leadingIntRe.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ScoreExperience compares years of experience to the JD requirement.
func ScoreExperience(jd JDExtraction, resume ResumeExtraction) DimensionScore {
	out := DimensionScore{Name: DimensionExperience}
	required, ok := ParseYears(jd.YearsRequired)
	if !ok {
		out.Score = 80
		return out
	}
	have, _ := ParseYears(resume.YearsExperience)
	out.MatchedCount, out.Total = min(have, required), required

	gap := required - have
	switch {
	case gap <= 0:
		out.Score = 100
	case gap <= 1:
		out.Score = 85
	case gap <= 2:
		out.Score = 70
	default:
		out.Score = max(30, percent(have, required))
	}
	return out
}

// ScoreCertifications treats required certifications as a gate and preferred
// ones as a bonus. Required certs with none matched score 0; there is no
// vacuous 100 on this dimension.
func ScoreCertifications(jd JDExtraction, resume ResumeExtraction) DimensionScore {
	out := DimensionScore{Name: DimensionCertifications}
	required := compact(jd.CertificationsRequired)
	preferred := compact(jd.CertificationsPreferred)

	match := func(list []string) {
		for _, cert := range list {
			found := false
			for _, have := range resume.Certifications {
				if matchesEither(cert, have) {
					found = true
					break
				}
			}
			if found {
				out.Matched = append(out.Matched, cert)
			} else {
				out.Missing = append(out.Missing, cert)
			}
		}
		out.Total = len(list)
		out.MatchedCount = len(out.Matched)
	}

	switch {
	case len(required) > 0:
		match(required)
		out.Score = percent(out.MatchedCount, out.Total)
	case len(preferred) > 0:
		match(preferred)
		out.Score = 60 + roundInt(40*float64(out.MatchedCount)/float64(out.Total))
	default:
		out.Score = 80
	}
	return out
}

// ScoreMeasurableResults is a step function over the quantified achievement count.
func ScoreMeasurableResults(resume ResumeExtraction) DimensionScore {
	n := resume.QuantifiedAchievementsCount
	out := DimensionScore{Name: DimensionMeasurableResults, MatchedCount: max(n, 0)}
	switch {
	case n >= 12:
		out.Score = 100
	case n >= 10:
		out.Score = 95
	case n >= 8:
		out.Score = 85
	case n >= 6:
		out.Score = 70
	case n >= 4:
		out.Score = 55
	case n >= 2:
		out.Score = 35
	case n >= 1:
		out.Score = 20
	default:
		out.Score = 5
	}
	return out
}

// ScoreFormat deducts points for layout problems that hurt ATS parsing.
func ScoreFormat(f FormattingAssessment) DimensionScore {
	score := 100
	if !f.HasCleanFormat {
		score -= 25
	}
	if !f.UsesStandardSectionHeaders {
		score -= 15
	}
	if !f.UsesReverseChronological {
		score -= 10
	}
	issues := compact(f.Issues)
	score -= min(25, 8*len(issues))
	return DimensionScore{
		Name:    DimensionFormat,
		Score:   max(score, 30),
		Total:   len(issues),
		Missing: issues,
	}
}

// ScoreSearchability rewards the sections and contact details recruiters search on.
func ScoreSearchability(resume ResumeExtraction) DimensionScore {
	out := DimensionScore{Name: DimensionSearchability, Total: 5}
	score := 50
	signals := []struct {
		name    string
		present bool
		points  int
	}{
		{"summary section", resume.HasSummarySection, 15},
		{"skills section", resume.HasSkillsSection, 15},
		{"email", resume.HasEmail, 10},
		{"phone", resume.HasPhone, 5},
		{"linkedin", resume.HasLinkedIn, 5},
	}
	for _, s := range signals {
		if s.present {
			score += s.points
			out.Matched = append(out.Matched, s.name)
		} else {
			out.Missing = append(out.Missing, s.name)
		}
	}
	out.MatchedCount = len(out.Matched)
	out.Score = min(score, 100)
	return out
}

func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return clamp(roundInt(100*float64(part)/float64(total)), 0, 100)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// compact drops blank entries and trims the rest.
func compact(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// significantWords returns the distinct words longer than two characters, in order.
func significantWords(normalized string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		if len(w) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func wordSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		set[w] = true
	}
	return set
}
