package scoring

import (
	"fmt"
	"math"
)

// Dimension names one independently scored facet.
type Dimension string

const (
	DimensionHardSkills        Dimension = "hard_skills"
	DimensionJobTitle          Dimension = "job_title"
	DimensionEducation         Dimension = "education"
	DimensionExperience        Dimension = "experience"
	DimensionCertifications    Dimension = "certifications"
	DimensionSoftSkills        Dimension = "soft_skills"
	DimensionMeasurableResults Dimension = "measurable_results"
	DimensionFormat            Dimension = "format"
	DimensionSearchability     Dimension = "searchability"
)

// Dimensions lists every dimension in breakdown order.
var Dimensions = []Dimension{
	DimensionHardSkills,
	DimensionJobTitle,
	DimensionEducation,
	DimensionExperience,
	DimensionCertifications,
	DimensionSoftSkills,
	DimensionMeasurableResults,
	DimensionFormat,
	DimensionSearchability,
}

// weightScale converts fractional weights to basis points so the weighted sum
// is computed in integers.
const weightScale = 10000

// WeightTable is the scoring policy: one weight per dimension, summing to 1.
type WeightTable struct {
	Version string                `json:"version"`
	Weights map[Dimension]float64 `json:"weights"`
}

// DefaultWeights is the active scoring policy. Ordered by how often recruiters
// report filtering on each facet; job title sits second because an exact
// title match is reported to lift interview callbacks. Change the numbers
// here and bump Version.
var DefaultWeights = WeightTable{
	Version: "v1",
	Weights: map[Dimension]float64{
		DimensionHardSkills:        0.30,
		DimensionJobTitle:          0.18,
		DimensionEducation:         0.12,
		DimensionExperience:        0.10,
		DimensionCertifications:    0.08,
		DimensionSoftSkills:        0.07,
		DimensionMeasurableResults: 0.07,
		DimensionFormat:            0.05,
		DimensionSearchability:     0.03,
	},
}

// Validate checks that every dimension has a non-negative weight and that the
// weights sum to exactly 1.00 (to the basis point).
func (w WeightTable) Validate() error {
	if w.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidWeights)
	}
	if len(w.Weights) != len(Dimensions) {
		return fmt.Errorf("%w: expected %d dimensions, got %d", ErrInvalidWeights, len(Dimensions), len(w.Weights))
	}
	total := 0
	for _, d := range Dimensions {
		weight, ok := w.Weights[d]
		if !ok {
			return fmt.Errorf("%w: missing weight for %s", ErrInvalidWeights, d)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("%w: weight for %s must be within [0, 1], got %v", ErrInvalidWeights, d, weight)
		}
		total += w.basisPoints(d)
	}
	if total != weightScale {
		return fmt.Errorf("%w: weights must sum to 1.00, got %.4f", ErrInvalidWeights, float64(total)/weightScale)
	}
	return nil
}

// Weight returns the fractional weight of d.
func (w WeightTable) Weight(d Dimension) float64 {
	return w.Weights[d]
}

func (w WeightTable) basisPoints(d Dimension) int {
	return int(math.Round(w.Weights[d] * weightScale))
}
