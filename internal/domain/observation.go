package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Observation is one immutable environmental reading from a station or feed.
// Readings are pointers: nil means the sensor did not report the value,
// which is distinct from a reported zero.
type Observation struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	// Station coordinates, when the feed reports them.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Temperature   *float64 `json:"temperature,omitempty"`   // degrees Celsius
	Humidity      *float64 `json:"humidity,omitempty"`      // relative, percent
	Pressure      *float64 `json:"pressure,omitempty"`      // hPa
	WindSpeed     *float64 `json:"wind_speed,omitempty"`    // m/s
	Precipitation *float64 `json:"precipitation,omitempty"` // mm/h
	Visibility    *float64 `json:"visibility,omitempty"`    // km
	CloudCover    *float64 `json:"cloud_cover,omitempty"`   // percent
	UVIndex       *float64 `json:"uv_index,omitempty"`      // index
	PM25          *float64 `json:"pm25,omitempty"`          // µg/m³
	PM10          *float64 `json:"pm10,omitempty"`          // µg/m³
}

// rawObservation is the flat JSON structure published by the ingestion feeds.
type rawObservation struct {
	Source        string   `json:"source"`
	StationID     string   `json:"station_id"`
	Timestamp     string   `json:"timestamp"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Pressure      *float64 `json:"pressure"`
	WindSpeed     *float64 `json:"wind_speed"`
	Precipitation *float64 `json:"precipitation"`
	Visibility    *float64 `json:"visibility"`
	CloudCover    *float64 `json:"cloud_cover"`
	UVIndex       *float64 `json:"uv_index"`
	PM25          *float64 `json:"pm25"`
	PM10          *float64 `json:"pm10"`
}

// ParseObservation deserializes a RawEvent's value into an Observation.
// The timestamp comes from the payload when present, otherwise from the
// message timestamp set by the feed.
func ParseObservation(raw RawEvent) (Observation, error) {
	var rec rawObservation
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}

	source := rec.Source
	if source == "" {
		source = rec.StationID
	}
	if source == "" {
		return Observation{}, fmt.Errorf("parse observation: missing source")
	}

	ts := raw.Timestamp
	if rec.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			return Observation{}, fmt.Errorf("parse observation timestamp: %w", err)
		}
		ts = parsed
	}
	ts = ts.UTC()

	return Observation{
		ID:            ObservationID(source, ts),
		Source:        source,
		Timestamp:     ts,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		Temperature:   rec.Temperature,
		Humidity:      rec.Humidity,
		Pressure:      rec.Pressure,
		WindSpeed:     rec.WindSpeed,
		Precipitation: rec.Precipitation,
		Visibility:    rec.Visibility,
		CloudCover:    rec.CloudCover,
		UVIndex:       rec.UVIndex,
		PM25:          rec.PM25,
		PM10:          rec.PM10,
	}, nil
}

// ObservationID produces a deterministic ID from the reading's key fields.
// Deterministic IDs enable idempotent inserts and duplicate suppression:
// replaying the same feed message produces the same ID, so the observation
// is never scored twice.
func ObservationID(source string, ts time.Time) string {
	input := fmt.Sprintf("%s|%d", source, ts.UTC().Unix())
	hash := sha256.Sum256([]byte(input))
	return "obs-" + hex.EncodeToString(hash[:8])
}

// Float returns a pointer to v, for building observations with literals.
func Float(v float64) *float64 { return &v }
