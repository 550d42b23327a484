package alert

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

// Message is the rendered notification content handed to a channel.
type Message struct {
	Title string
	Body  string
}

// updateKind distinguishes a first dispatch from a status-change pass.
type updateKind int

const (
	kindNew updateKind = iota
	kindUpdate
)

// citizenMessage renders the standard notification for ordinary recipients.
func citizenMessage(a domain.EmergencyAlert) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", a.Description)
	fmt.Fprintf(&b, "Location: %s\n", locationLabel(a))
	fmt.Fprintf(&b, "Issued: %s\n", a.IssuedAt.Format("2006-01-02 15:04 MST"))
	if a.ExpiresAt != nil {
		fmt.Fprintf(&b, "Expires: %s\n", a.ExpiresAt.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintf(&b, "Contact: %s", contactLabel(a))

	return Message{
		Title: fmt.Sprintf("%s ALERT: %s", strings.ToUpper(string(a.Severity)), a.Title),
		Body:  b.String(),
	}
}

// responderMessage renders the richer tabular variant for government and
// emergency-responder recipients.
func responderMessage(a domain.EmergencyAlert) Message {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	row := func(label, value string) {
		fmt.Fprintf(w, "%s\t%s\n", label, value)
	}

	row("Alert ID:", a.ID)
	row("Title:", a.Title)
	row("Severity:", strings.ToUpper(string(a.Severity)))
	row("Status:", string(a.Status))
	row("Description:", a.Description)
	row("Coordinates:", fmt.Sprintf("%.4f, %.4f", a.Latitude, a.Longitude))
	if a.RadiusKm != nil {
		row("Radius:", fmt.Sprintf("%.1f km", *a.RadiusKm))
	} else {
		row("Radius:", "N/A")
	}
	if a.RiskType != "" {
		row("Risk type:", a.RiskType)
	}
	if a.RiskScore != nil {
		row("Risk score:", fmt.Sprintf("%.2f", *a.RiskScore))
	}
	if a.Probability != nil {
		row("Probability:", fmt.Sprintf("%.2f", *a.Probability))
	}
	row("Issued at:", a.IssuedAt.Format("2006-01-02 15:04 MST"))
	if a.ExpiresAt != nil {
		row("Expires at:", a.ExpiresAt.Format("2006-01-02 15:04 MST"))
	} else {
		row("Expires at:", "No expiration")
	}
	row("Issuer:", a.Issuer)
	row("Contact:", contactLabel(a))
	if a.Proof != nil {
		row("Proof hash:", a.Proof.Hash)
		row("Proof status:", string(a.Proof.Status))
	} else {
		row("Proof status:", "pending")
	}
	w.Flush()

	b.WriteString("\nImmediate actions: assess response requirements, coordinate agencies, monitor development, update public information systems.")

	return Message{
		Title: fmt.Sprintf("GOVERNMENT ALERT: %s [%s]", a.Title, a.ID),
		Body:  b.String(),
	}
}

// updateMessage renders the status-change notice for an update pass.
func updateMessage(a domain.EmergencyAlert) Message {
	var body string
	switch a.Status {
	case domain.StatusResolved:
		body = fmt.Sprintf("RESOLVED: %s - The emergency situation has been resolved.", a.Title)
	case domain.StatusCancelled:
		body = fmt.Sprintf("CANCELLED: %s - The emergency alert has been cancelled.", a.Title)
	default:
		body = fmt.Sprintf("UPDATE: %s - Alert information has been updated.", a.Title)
	}
	return Message{
		Title: fmt.Sprintf("Alert Update: %s", a.ID),
		Body:  body,
	}
}

// messageFor picks the variant for one recipient and pass kind.
func messageFor(a domain.EmergencyAlert, r domain.Recipient, kind updateKind) Message {
	if kind == kindUpdate {
		return updateMessage(a)
	}
	if r.Role.Priority() {
		return responderMessage(a)
	}
	return citizenMessage(a)
}

func locationLabel(a domain.EmergencyAlert) string {
	if a.LocationName != "" {
		return a.LocationName
	}
	return fmt.Sprintf("%.4f, %.4f", a.Latitude, a.Longitude)
}

func contactLabel(a domain.EmergencyAlert) string {
	if a.ContactInfo != "" {
		return a.ContactInfo
	}
	return "Emergency Services"
}
