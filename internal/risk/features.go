package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// FeatureCount is the width of the model input vector: the ten readings
// plus hour, day of year, and three cyclical time encodings.
const FeatureCount = 15

// Neutral fill values for readings the observation did not report. Pressure
// and visibility default to their atmospheric norms; everything else to zero.
const (
	neutralPressure   = 1013.25
	neutralVisibility = 10.0
)

// BuildFeatures converts an observation into the model input vector.
// Time-of-day and day-of-year are encoded cyclically so 23:00 and 01:00 sit
// close together in feature space.
func BuildFeatures(obs domain.Observation) []float64 {
	hour := float64(obs.Timestamp.UTC().Hour())
	dayOfYear := float64(obs.Timestamp.UTC().YearDay())

	return []float64{
		fill(obs.Temperature, 0),
		fill(obs.Humidity, 0),
		fill(obs.Pressure, neutralPressure),
		fill(obs.WindSpeed, 0),
		fill(obs.Precipitation, 0),
		fill(obs.Visibility, neutralVisibility),
		fill(obs.CloudCover, 0),
		fill(obs.UVIndex, 0),
		fill(obs.PM25, 0),
		fill(obs.PM10, 0),
		hour,
		dayOfYear,
		math.Sin(2 * math.Pi * hour / 24),
		math.Cos(2 * math.Pi * hour / 24),
		math.Sin(2 * math.Pi * dayOfYear / 365),
	}
}

func fill(v *float64, neutral float64) float64 {
	if v == nil {
		return neutral
	}
	return *v
}

// modelScorer delegates to the learned-model collaborator. Any error, wrong
// vector width, NaN, Inf, or out-of-range score fails the tier so the rule
// tier takes over.
type modelScorer struct {
	predictor Predictor
}

func (modelScorer) Method() domain.ScoringMethod { return domain.MethodModel }

func (s *modelScorer) Score(ctx context.Context, obs domain.Observation) ([6]float64, float64, error) {
	preds, err := s.predictor.Predict(ctx, BuildFeatures(obs))
	if err != nil {
		return [6]float64{}, 0, fmt.Errorf("model predict: %w", err)
	}
	if len(preds) != len(domain.RiskCategories) {
		return [6]float64{}, 0, fmt.Errorf("model returned %d scores, want %d", len(preds), len(domain.RiskCategories))
	}

	var scores [6]float64
	peak := 0.0
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return [6]float64{}, 0, fmt.Errorf("model score %v out of range for %s", p, domain.RiskCategories[i])
		}
		scores[i] = p
		if p > peak {
			peak = p
		}
	}

	// Confidence tracks how decisively the model committed to its strongest
	// category, bounded to [0.7, 0.9].
	confidence := 0.7 + 0.2*peak
	return scores, confidence, nil
}

// defaultScorer is the terminal tier: a fixed low baseline that cannot fail,
// guaranteeing the engine always returns an assessment.
type defaultScorer struct{}

func (defaultScorer) Method() domain.ScoringMethod { return domain.MethodDefault }

func (defaultScorer) Score(context.Context, domain.Observation) ([6]float64, float64, error) {
	return [6]float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, 0.5, nil
}
