package risk

import "github.com/couchcryptid/climate-alert-service/internal/domain"

// fallbackRecommendation is returned when no category crosses the
// recommendation threshold.
const fallbackRecommendation = "Continue monitoring weather conditions"

// categoryActions maps each risk category to its preparedness actions.
var categoryActions = map[domain.RiskCategory][]string{
	domain.RiskFlood: {
		"Monitor water levels in nearby rivers and streams",
		"Prepare emergency evacuation routes",
		"Secure outdoor equipment and furniture",
	},
	domain.RiskDrought: {
		"Implement water conservation measures",
		"Monitor agricultural water needs",
		"Prepare alternative water sources",
	},
	domain.RiskStorm: {
		"Secure loose outdoor objects",
		"Check emergency supply kits",
		"Monitor weather updates frequently",
	},
	domain.RiskHeatWave: {
		"Stay hydrated and avoid outdoor activities",
		"Check on vulnerable community members",
		"Ensure cooling systems are operational",
	},
	domain.RiskColdWave: {
		"Prepare heating systems and insulation",
		"Protect water pipes from freezing",
		"Ensure adequate food and fuel supplies",
	},
	domain.RiskWildfire: {
		"Clear vegetation around properties",
		"Prepare evacuation plans and go-bags",
		"Monitor fire weather warnings",
	},
}

// recommend collects actions for every category above the recommendation
// threshold, deduplicated in first-seen order so output is deterministic.
func recommend(a domain.RiskAssessment) []string {
	var out []string
	seen := make(map[string]bool)

	for _, cat := range domain.RiskCategories {
		if a.Score(cat) <= recommendThreshold {
			continue
		}
		for _, action := range categoryActions[cat] {
			if seen[action] {
				continue
			}
			seen[action] = true
			out = append(out, action)
		}
	}

	if len(out) == 0 {
		return []string{fallbackRecommendation}
	}
	return out
}
