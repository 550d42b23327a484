// Package geo selects the recipients inside an alert's affected area.
// Matching is a pure computation over in-memory inputs: no I/O, no shared
// state, safe to run concurrently or batch over large candidate sets.
package geo

import (
	"math"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// DefaultRadiusKm applies when an alert carries no explicit radius and when
// a recipient has not set a notification radius preference.
const DefaultRadiusKm = 50.0

const earthRadiusKm = 6371.0

// Match returns the candidates whose registered location lies within the
// alert's effective radius. The effective radius is the larger of the
// alert's radius and the candidate's own notification radius, so a
// recipient who opted into a wide radius is matched even by a tightly
// scoped alert. Candidates without a registered location are never matched
// here; the role-based dispatch path covers them separately.
func Match(alert domain.EmergencyAlert, candidates []domain.Recipient) []domain.Recipient {
	var matched []domain.Recipient

	alertRadius := DefaultRadiusKm
	if alert.RadiusKm != nil && *alert.RadiusKm > 0 {
		alertRadius = *alert.RadiusKm
	}

	for _, c := range candidates {
		if !c.HasLocation() {
			continue
		}

		recipientRadius := c.NotificationRadiusKm
		if recipientRadius <= 0 {
			recipientRadius = DefaultRadiusKm
		}

		effective := math.Max(alertRadius, recipientRadius)
		if Distance(alert.Latitude, alert.Longitude, *c.Latitude, *c.Longitude) <= effective {
			matched = append(matched, c)
		}
	}

	return matched
}

// Distance computes the great-circle distance in kilometers between two
// WGS-84 coordinate pairs using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
