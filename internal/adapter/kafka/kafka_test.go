package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("station-042"),
		Value:     []byte(`{"source":"station-042"}`),
		Topic:     "raw-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "feed", Value: []byte("fmi")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("station-042"), raw.Key)
	assert.JSONEq(t, `{"source":"station-042"}`, string(raw.Value))
	assert.Equal(t, "raw-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "fmi", raw.Headers["feed"])
}

func TestSerializeToMessage(t *testing.T) {
	scoredAt := time.Date(2026, 7, 14, 14, 0, 5, 0, time.UTC)
	a := domain.RiskAssessment{
		ObservationID: "obs-1a2b3c4d5e6f7a8b",
		HeatWaveRisk:  0.625,
		Overall:       0.21,
		Confidence:    0.6,
		Method:        domain.MethodRuleBased,
		ScoredAt:      scoredAt,
	}

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte("obs-1a2b3c4d5e6f7a8b"), msg.Key)
	assert.Contains(t, string(msg.Value), `"heat_wave_risk":0.625`)
	assert.Contains(t, string(msg.Value), `"method":"rule_based"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "method", msg.Headers[0].Key)
	assert.Equal(t, []byte("rule_based"), msg.Headers[0].Value)
	assert.Equal(t, "scored_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(scoredAt.Format(time.RFC3339)), msg.Headers[1].Value)
}
