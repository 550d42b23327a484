package domain

import (
	"fmt"
	"time"
)

// Severity orders alerts from low to critical. The zero value is invalid so
// an unset severity never silently ranks as "low".
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ParseSeverity validates a severity string.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// AtLeast reports whether s ranks at or above other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// AlertStatus is the state machine position of an alert.
// Transitions: active → resolved, active → cancelled. Both terminal.
type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusResolved  AlertStatus = "resolved"
	StatusCancelled AlertStatus = "cancelled"
)

// ParseAlertStatus validates a status string.
func ParseAlertStatus(s string) (AlertStatus, error) {
	switch st := AlertStatus(s); st {
	case StatusActive, StatusResolved, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown alert status %q", s)
	}
}

// Terminal reports whether no further status transitions are allowed.
func (s AlertStatus) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// CanTransition reports whether the state machine permits moving to next.
// A no-op transition to the current status is always permitted.
func (s AlertStatus) CanTransition(next AlertStatus) bool {
	if s == next {
		return true
	}
	return s == StatusActive
}

// ProofStatus tracks the external anchoring of an alert's data hash.
type ProofStatus string

const (
	ProofPending  ProofStatus = "pending"
	ProofAnchored ProofStatus = "anchored"
)

// Proof references a tamper-evident record of the alert on an external
// ledger. Populated asynchronously; Reference stays empty while pending.
type Proof struct {
	Hash      string      `json:"hash"`
	Reference string      `json:"reference,omitempty"`
	Status    ProofStatus `json:"status"`
}

// EmergencyAlert is the durable record of one emergency. Alerts are never
// deleted; status moves only through the transitions above.
type EmergencyAlert struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Status      AlertStatus `json:"status"`

	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusKm     *float64 `json:"radius_km,omitempty"`
	LocationName string   `json:"location_name,omitempty"`

	RiskType    string   `json:"risk_type,omitempty"`
	RiskScore   *float64 `json:"risk_score,omitempty"`
	Probability *float64 `json:"probability,omitempty"`

	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	Issuer      string `json:"issuer,omitempty"`
	ContactInfo string `json:"contact_info,omitempty"`

	Proof *Proof `json:"proof,omitempty"`
}

// AlertDraft carries the caller-supplied fields of a new alert. Identity,
// status, and issue time are assigned by the lifecycle.
type AlertDraft struct {
	Title        string
	Description  string
	Severity     Severity
	Latitude     float64
	Longitude    float64
	RadiusKm     *float64
	LocationName string
	RiskType     string
	RiskScore    *float64
	Probability  *float64
	StartTime    *time.Time
	EndTime      *time.Time
	ExpiresAt    *time.Time
	Issuer       string
	ContactInfo  string
}

// AlertPatch is a partial update: nil fields are left untouched.
type AlertPatch struct {
	Title        *string
	Description  *string
	Severity     *Severity
	Status       *AlertStatus
	RadiusKm     *float64
	LocationName *string
	EndTime      *time.Time
	ExpiresAt    *time.Time
	ContactInfo  *string
}

// Empty reports whether the patch changes nothing.
func (p AlertPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Severity == nil &&
		p.Status == nil && p.RadiusKm == nil && p.LocationName == nil &&
		p.EndTime == nil && p.ExpiresAt == nil && p.ContactInfo == nil
}
