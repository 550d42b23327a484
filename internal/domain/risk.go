package domain

import "time"

// RiskCategory identifies one of the six climate risk dimensions.
type RiskCategory string

const (
	RiskFlood    RiskCategory = "flood"
	RiskDrought  RiskCategory = "drought"
	RiskStorm    RiskCategory = "storm"
	RiskHeatWave RiskCategory = "heat_wave"
	RiskColdWave RiskCategory = "cold_wave"
	RiskWildfire RiskCategory = "wildfire"
)

// RiskCategories lists all categories in canonical order. Score vectors
// exchanged with the model collaborator follow this order.
var RiskCategories = []RiskCategory{
	RiskFlood, RiskDrought, RiskStorm, RiskHeatWave, RiskColdWave, RiskWildfire,
}

// ScoringMethod tags which fallback tier produced an assessment.
type ScoringMethod string

const (
	MethodModel     ScoringMethod = "model"
	MethodRuleBased ScoringMethod = "rule_based"
	MethodDefault   ScoringMethod = "default"
)

// Factor is one category that contributed notably to an assessment.
type Factor struct {
	Category RiskCategory `json:"category"`
	Score    float64      `json:"score"`
	Severity string       `json:"severity"` // "moderate" or "high"
}

// Explanation describes why an assessment scored the way it did.
type Explanation struct {
	PrimaryFactors  []Factor `json:"primary_factors"`
	ConfidenceLevel string   `json:"confidence_level"` // "medium" or "high"
}

// RiskAssessment is the scored view of one observation. Every category
// score and Overall lie in [0,1]; Overall is the arithmetic mean of the six
// categories. Assessments are immutable: a newer reading produces a new
// assessment rather than editing an old one.
type RiskAssessment struct {
	ObservationID string        `json:"observation_id"`
	FloodRisk     float64       `json:"flood_risk"`
	DroughtRisk   float64       `json:"drought_risk"`
	StormRisk     float64       `json:"storm_risk"`
	HeatWaveRisk  float64       `json:"heat_wave_risk"`
	ColdWaveRisk  float64       `json:"cold_wave_risk"`
	WildfireRisk  float64       `json:"wildfire_risk"`
	Overall       float64       `json:"overall"`
	Confidence    float64       `json:"confidence"`
	Method        ScoringMethod `json:"method"`

	Explanation     Explanation `json:"explanation"`
	Recommendations []string    `json:"recommendations"`

	ScoredAt time.Time `json:"scored_at"`
}

// Scores returns the category scores in canonical order.
func (a RiskAssessment) Scores() [6]float64 {
	return [6]float64{
		a.FloodRisk, a.DroughtRisk, a.StormRisk,
		a.HeatWaveRisk, a.ColdWaveRisk, a.WildfireRisk,
	}
}

// Score returns the value for a single category, or 0 for an unknown one.
func (a RiskAssessment) Score(c RiskCategory) float64 {
	switch c {
	case RiskFlood:
		return a.FloodRisk
	case RiskDrought:
		return a.DroughtRisk
	case RiskStorm:
		return a.StormRisk
	case RiskHeatWave:
		return a.HeatWaveRisk
	case RiskColdWave:
		return a.ColdWaveRisk
	case RiskWildfire:
		return a.WildfireRisk
	default:
		return 0
	}
}

// Peak returns the highest category score.
func (a RiskAssessment) Peak() float64 {
	_, peak := a.PeakCategory()
	return peak
}

// PeakCategory returns the highest-scoring category and its score. Ties
// resolve to the earlier category in canonical order.
func (a RiskAssessment) PeakCategory() (RiskCategory, float64) {
	category := RiskCategories[0]
	peak := a.Score(category)
	for _, c := range RiskCategories[1:] {
		if s := a.Score(c); s > peak {
			category, peak = c, s
		}
	}
	return category, peak
}
