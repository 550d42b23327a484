package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObservation(t *testing.T) {
	raw := RawEvent{
		Value: []byte(`{
			"source": "station-042",
			"timestamp": "2026-04-26T15:10:00Z",
			"temperature": 21.5,
			"humidity": 60,
			"pressure": 1013.2
		}`),
		Timestamp: time.Date(2026, 4, 26, 15, 12, 0, 0, time.UTC),
	}

	obs, err := ParseObservation(raw)
	require.NoError(t, err)

	assert.Equal(t, "station-042", obs.Source)
	assert.Equal(t, time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC), obs.Timestamp)
	require.NotNil(t, obs.Temperature)
	assert.Equal(t, 21.5, *obs.Temperature)
	require.NotNil(t, obs.Humidity)
	assert.Equal(t, 60.0, *obs.Humidity)
	assert.Nil(t, obs.WindSpeed)
	assert.Nil(t, obs.Precipitation)
}

func TestParseObservation_MessageTimestampFallback(t *testing.T) {
	msgTime := time.Date(2026, 4, 26, 9, 0, 0, 0, time.UTC)
	raw := RawEvent{
		Value:     []byte(`{"station_id": "iot-7"}`),
		Timestamp: msgTime,
	}

	obs, err := ParseObservation(raw)
	require.NoError(t, err)
	assert.Equal(t, "iot-7", obs.Source)
	assert.Equal(t, msgTime, obs.Timestamp)
}

func TestParseObservation_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"malformed json", `{not json`},
		{"missing source", `{"temperature": 20}`},
		{"bad timestamp", `{"source": "s", "timestamp": "26/04/2026"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObservation(RawEvent{Value: []byte(tt.value)})
			assert.Error(t, err)
		})
	}
}

func TestObservationID_Deterministic(t *testing.T) {
	ts := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)

	a := ObservationID("station-042", ts)
	b := ObservationID("station-042", ts)
	other := ObservationID("station-043", ts)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)
	assert.Regexp(t, `^obs-[0-9a-f]{16}$`, a)
}

func TestObservationID_TimezoneInsensitive(t *testing.T) {
	utc := time.Date(2026, 4, 26, 15, 10, 0, 0, time.UTC)
	helsinki := utc.In(time.FixedZone("EET", 3*3600))

	assert.Equal(t, ObservationID("s", utc), ObservationID("s", helsinki))
}
