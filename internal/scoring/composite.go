package scoring

import (
	"strings"
	"time"
)

// Scorer combines the nine dimension scores with a fixed weight table.
type Scorer struct {
	weights WeightTable
}

// NewScorer returns a Scorer for the given policy, rejecting tables that do
// not cover every dimension or do not sum to 1.
func NewScorer(weights WeightTable) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights}, nil
}

// Weights returns the policy the scorer applies.
func (s *Scorer) Weights() WeightTable {
	return s.weights
}

// Score computes the composite result for in, stamped with at. Identical
// inputs and timestamp always yield an identical result.
func (s *Scorer) Score(in Input, at time.Time) (CompositeResult, error) {
	if err := in.Validate(); err != nil {
		return CompositeResult{}, err
	}

	byName := map[Dimension]DimensionScore{
		DimensionHardSkills:        ScoreHardSkills(in.JD, in.Resume, in.ResumeText),
		DimensionJobTitle:          ScoreJobTitle(in.JD, in.Resume),
		DimensionEducation:         ScoreEducation(in.JD, in.Resume),
		DimensionExperience:        ScoreExperience(in.JD, in.Resume),
		DimensionCertifications:    ScoreCertifications(in.JD, in.Resume),
		DimensionSoftSkills:        ScoreSoftSkills(in.JD, in.Resume, in.ResumeText),
		DimensionMeasurableResults: ScoreMeasurableResults(in.Resume),
		DimensionFormat:            ScoreFormat(in.Formatting),
		DimensionSearchability:     ScoreSearchability(in.Resume),
	}

	result := CompositeResult{
		WeightsVersion:  s.weights.Version,
		Dimensions:      make([]DimensionScore, 0, len(Dimensions)),
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
		CreatedAt:       at.UTC(),
	}

	weighted := 0
	for _, d := range Dimensions {
		ds := byName[d]
		ds.Score = clamp(ds.Score, 0, 100)
		ds.Weight = s.weights.Weight(d)
		weighted += ds.Score * s.weights.basisPoints(d)
		result.Dimensions = append(result.Dimensions, ds)
	}
	// Round half up on the integer basis-point sum.
	result.OverallScore = clamp((weighted+weightScale/2)/weightScale, 0, 100)

	keywordDims := []Dimension{DimensionHardSkills, DimensionSoftSkills, DimensionCertifications}
	var matched, missing []string
	for _, d := range keywordDims {
		matched = append(matched, byName[d].Matched...)
		missing = append(missing, byName[d].Missing...)
	}
	result.MatchedKeywords = dedupe(matched)
	result.MissingKeywords = dedupe(missing)
	return result, nil
}

// Score scores in with DefaultWeights.
func Score(in Input, at time.Time) (CompositeResult, error) {
	s, err := NewScorer(DefaultWeights)
	if err != nil {
		return CompositeResult{}, err
	}
	return s.Score(in, at)
}

// dedupe keeps the first occurrence of each keyword, comparing normalized forms.
func dedupe(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		key := Normalize(it)
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(it))
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
