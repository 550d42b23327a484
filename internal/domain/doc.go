// Package domain models environmental observations, climate risk
// assessments, emergency alerts, and notification recipients.
//
// # Observations
//
// Ingestion feeds (weather APIs, IoT gateways) publish flat JSON readings to
// the source topic. Every reading is optional: a sensor that did not report
// a value omits the field, and absence means "unknown", never zero. Units
// follow the feeds: °C, %RH, hPa, m/s, mm/h, km, %, UV index, µg/m³.
//
// Observation IDs are deterministic SHA-256 hashes of source|timestamp,
// so replaying a feed message produces the same ID and the observation is
// scored at most once. See [ObservationID].
//
// # Risk assessments
//
// Each observation is scored into six categories (flood, drought, storm,
// heat wave, cold wave, wildfire), every score in [0,1], with the overall
// score defined as the arithmetic mean of the six. The Method tag records
// which scoring tier produced the assessment: "model" for the learned
// collaborator, "rule_based" for the deterministic threshold heuristic,
// "default" for the fixed low baseline.
//
// # Alerts
//
// Alert IDs are human-diagnosable: ALERT-YYYYMMDD-XXXXXXXX, where the suffix
// is the uppercased first segment of a UUID. Status moves through a small
// state machine:
//
//	active → resolved
//	active → cancelled
//
// resolved and cancelled are terminal. Alerts are never deleted; audit
// trails depend on every issued alert remaining readable.
//
// # Recipients
//
// A recipient's registered location and per-channel addresses are all
// optional. Government and responder roles receive every alert regardless
// of distance; others are matched geospatially against the larger of the
// alert's radius and their own notification radius (50 km default for both).
package domain
