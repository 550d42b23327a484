package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

func ruleScore(t *testing.T, obs domain.Observation) [6]float64 {
	t.Helper()
	scores, confidence, err := ruleScorer{}.Score(context.Background(), obs)
	require.NoError(t, err)
	assert.Equal(t, ruleConfidence, confidence)
	return scores
}

func TestRules_AllReadingsMissing(t *testing.T) {
	scores := ruleScore(t, testObservation())
	assert.Equal(t, [6]float64{}, scores, "absent readings must contribute zero risk")
}

// Hot, dry, windy reference conditions: 40 °C, 20 %RH, 20 m/s must put
// heat wave, storm, and wildfire in the notable band with flood, drought,
// and cold wave at zero.
func TestRules_HotDryWindy(t *testing.T) {
	obs := testObservation()
	obs.Temperature = domain.Float(40)
	obs.Humidity = domain.Float(20)
	obs.WindSpeed = domain.Float(20)

	scores := ruleScore(t, obs)

	flood, drought, storm := scores[0], scores[1], scores[2]
	heat, cold, wildfire := scores[3], scores[4], scores[5]

	assert.Greater(t, heat, notableThreshold)
	assert.Greater(t, storm, notableThreshold)
	assert.Greater(t, wildfire, notableThreshold)
	assert.Zero(t, flood)
	assert.Zero(t, cold)
	// No rain gauge reading: drought must not trigger on dry air alone.
	assert.Zero(t, drought)
}

func TestRules_Flood(t *testing.T) {
	obs := testObservation()
	obs.Precipitation = domain.Float(50)

	scores := ruleScore(t, obs)
	assert.InDelta(t, 0.5, scores[0], 1e-9)

	obs.Precipitation = domain.Float(200)
	scores = ruleScore(t, obs)
	assert.Equal(t, 1.0, scores[0], "flood risk clamps at 1")

	// Near-saturated humidity alone also raises flood risk.
	obs = testObservation()
	obs.Humidity = domain.Float(95)
	scores = ruleScore(t, obs)
	assert.InDelta(t, 0.5, scores[0], 1e-9)
}

func TestRules_DroughtRequiresBothReadings(t *testing.T) {
	obs := testObservation()
	obs.Precipitation = domain.Float(0)
	obs.Humidity = domain.Float(10)

	scores := ruleScore(t, obs)
	assert.Greater(t, scores[1], 0.0)

	// Humid air cancels drought even with no rain.
	obs.Humidity = domain.Float(70)
	scores = ruleScore(t, obs)
	assert.Zero(t, scores[1])

	// Rainfall cancels drought even with dry air.
	obs.Humidity = domain.Float(10)
	obs.Precipitation = domain.Float(5)
	scores = ruleScore(t, obs)
	assert.Zero(t, scores[1])
}

func TestRules_StormFromLowPressure(t *testing.T) {
	obs := testObservation()
	obs.Pressure = domain.Float(975)

	scores := ruleScore(t, obs)
	assert.InDelta(t, 0.5, scores[2], 1e-9)
}

func TestRules_ColdWave(t *testing.T) {
	obs := testObservation()
	obs.Temperature = domain.Float(-15)

	scores := ruleScore(t, obs)
	assert.InDelta(t, 0.5, scores[4], 1e-9)
	assert.Zero(t, scores[3])
}

func TestRules_WildfireWindBoost(t *testing.T) {
	obs := testObservation()
	obs.Temperature = domain.Float(40)
	obs.Humidity = domain.Float(20)

	calm := ruleScore(t, obs)[5]

	obs.WindSpeed = domain.Float(20)
	windy := ruleScore(t, obs)[5]

	assert.Greater(t, windy, calm)
	assert.InDelta(t, calm*wildfireWindBoost, windy, 1e-9)
}

func TestRules_Deterministic(t *testing.T) {
	obs := testObservation()
	obs.Temperature = domain.Float(37.3)
	obs.Humidity = domain.Float(41)
	obs.WindSpeed = domain.Float(18.2)
	obs.Pressure = domain.Float(996.4)

	first := ruleScore(t, obs)
	for range 10 {
		assert.Equal(t, first, ruleScore(t, obs))
	}
}

func TestBuildFeatures(t *testing.T) {
	ts := time.Date(2026, 7, 14, 6, 0, 0, 0, time.UTC)
	obs := domain.Observation{
		Source:      "s",
		Timestamp:   ts,
		Temperature: domain.Float(21),
		Humidity:    domain.Float(55),
	}

	features := BuildFeatures(obs)
	require.Len(t, features, FeatureCount)

	assert.Equal(t, 21.0, features[0])
	assert.Equal(t, 55.0, features[1])
	assert.Equal(t, neutralPressure, features[2], "missing pressure fills with the atmospheric norm")
	assert.Equal(t, 0.0, features[3])
	assert.Equal(t, neutralVisibility, features[5])
	assert.Equal(t, 6.0, features[10])
	assert.Equal(t, float64(ts.YearDay()), features[11])
	// 06:00 sits at the sine peak of the daily cycle.
	assert.InDelta(t, 1.0, features[12], 1e-9)
	assert.InDelta(t, 0.0, features[13], 1e-9)
}
