package risk

import (
	"context"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// Rule-tier thresholds. Derived from operational heuristics: heavy
// precipitation or near-saturated humidity drives flood risk, sustained
// drought needs both dry air and no rainfall, gale-force wind or a deep
// pressure low drives storm risk, and wildfire conditions compound hot dry
// air with wind. An absent reading contributes zero risk, never an error.
const (
	floodPrecipThreshold   = 25.0 // mm/h
	floodPrecipScale       = 50.0
	floodHumidityThreshold = 90.0 // %
	floodHumidityScale     = 10.0

	droughtPrecipCeiling   = 1.0  // mm/h
	droughtHumidityCeiling = 30.0 // %

	stormWindThreshold     = 15.0 // m/s
	stormWindScale         = 8.0
	stormPressureThreshold = 1000.0 // hPa
	stormPressureScale     = 50.0

	heatWaveThreshold = 35.0 // °C
	heatWaveScale     = 8.0
	coldWaveThreshold = -5.0 // °C
	coldWaveScale     = 20.0

	wildfireTempFloor     = 25.0 // °C
	wildfireTempScale     = 15.0
	wildfireHumidityCeil  = 30.0 // %
	wildfireHumidityScale = 20.0
	wildfireWindFloor     = 10.0 // m/s
	wildfireWindBoost     = 1.5

	ruleConfidence = 0.6
)

// ruleScorer is the deterministic threshold heuristic. It is exactly
// reproducible: the same observation always yields the same vector.
type ruleScorer struct{}

func (ruleScorer) Method() domain.ScoringMethod { return domain.MethodRuleBased }

func (ruleScorer) Score(_ context.Context, obs domain.Observation) ([6]float64, float64, error) {
	scores := [6]float64{
		floodRisk(obs),
		droughtRisk(obs),
		stormRisk(obs),
		heatWaveRisk(obs),
		coldWaveRisk(obs),
		wildfireRisk(obs),
	}
	return scores, ruleConfidence, nil
}

// floodRisk rises linearly once precipitation exceeds the heavy-rain
// threshold or humidity approaches saturation, whichever is stronger.
func floodRisk(obs domain.Observation) float64 {
	risk := 0.0
	if obs.Precipitation != nil {
		risk = clamp01((*obs.Precipitation - floodPrecipThreshold) / floodPrecipScale)
	}
	if obs.Humidity != nil {
		if h := clamp01((*obs.Humidity - floodHumidityThreshold) / floodHumidityScale); h > risk {
			risk = h
		}
	}
	return risk
}

// droughtRisk requires both readings present and simultaneously low.
// A missing rain gauge never reports drought on its own.
func droughtRisk(obs domain.Observation) float64 {
	if obs.Precipitation == nil || obs.Humidity == nil {
		return 0
	}
	if *obs.Precipitation >= droughtPrecipCeiling || *obs.Humidity >= droughtHumidityCeiling {
		return 0
	}
	dryness := clamp01((droughtHumidityCeiling - *obs.Humidity) / droughtHumidityCeiling)
	rainDeficit := clamp01(droughtPrecipCeiling - *obs.Precipitation)
	return clamp01(dryness * rainDeficit)
}

func stormRisk(obs domain.Observation) float64 {
	risk := 0.0
	if obs.WindSpeed != nil {
		risk = clamp01((*obs.WindSpeed - stormWindThreshold) / stormWindScale)
	}
	if obs.Pressure != nil {
		if p := clamp01((stormPressureThreshold - *obs.Pressure) / stormPressureScale); p > risk {
			risk = p
		}
	}
	return risk
}

func heatWaveRisk(obs domain.Observation) float64 {
	if obs.Temperature == nil {
		return 0
	}
	return clamp01((*obs.Temperature - heatWaveThreshold) / heatWaveScale)
}

func coldWaveRisk(obs domain.Observation) float64 {
	if obs.Temperature == nil {
		return 0
	}
	return clamp01((coldWaveThreshold - *obs.Temperature) / coldWaveScale)
}

// wildfireRisk compounds hot air with dry air, amplified when wind is
// present to carry the fire.
func wildfireRisk(obs domain.Observation) float64 {
	if obs.Temperature == nil || obs.Humidity == nil {
		return 0
	}
	heat := clamp01((*obs.Temperature - wildfireTempFloor) / wildfireTempScale)
	dryness := clamp01((wildfireHumidityCeil - *obs.Humidity) / wildfireHumidityScale)
	risk := heat * dryness
	if obs.WindSpeed != nil && *obs.WindSpeed > wildfireWindFloor {
		risk *= wildfireWindBoost
	}
	return clamp01(risk)
}
