package domain

// Role classifies a notification recipient.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleGovernment Role = "government"
	RoleResponder  Role = "responder"
	RoleAdmin      Role = "admin"
)

// Priority reports whether the role receives every alert regardless of
// distance. Government and responder recipients are on the unconditional
// notification path.
func (r Role) Priority() bool {
	return r == RoleGovernment || r == RoleResponder
}

// Recipient is a registered notification target. Location is optional: a
// recipient without one is never geospatially matched but may still be
// reached through the role-based path. Channel addresses are optional and
// independently absent.
type Recipient struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// NotificationRadiusKm widens the recipient's match area beyond the
	// alert's own radius. Zero means the 50 km system default.
	NotificationRadiusKm float64 `json:"notification_radius_km,omitempty"`

	PushToken string `json:"push_token,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// HasLocation reports whether the recipient can be geospatially matched.
func (r Recipient) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}
