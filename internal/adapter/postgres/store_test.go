package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/climate-alert-service/internal/domain"
)

func TestBuildAlertPatch_Empty(t *testing.T) {
	setClause, args := buildAlertPatch(domain.AlertPatch{})
	assert.Empty(t, setClause)
	assert.Empty(t, args)
}

func TestBuildAlertPatch_SingleField(t *testing.T) {
	status := domain.StatusResolved
	setClause, args := buildAlertPatch(domain.AlertPatch{Status: &status})
	assert.Equal(t, "status = $1", setClause)
	assert.Equal(t, []any{"resolved"}, args)
}

func TestBuildAlertPatch_MultipleFieldsNumberedInOrder(t *testing.T) {
	title := "Updated title"
	radius := 75.0
	contact := "112"
	expires := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	setClause, args := buildAlertPatch(domain.AlertPatch{
		Title:       &title,
		RadiusKm:    &radius,
		ExpiresAt:   &expires,
		ContactInfo: &contact,
	})

	assert.Equal(t, "title = $1, radius_km = $2, expires_at = $3, contact_info = $4", setClause)
	assert.Equal(t, []any{"Updated title", 75.0, expires, "112"}, args)
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, emptyToNull(""))
	v := emptyToNull("x")
	assert.Equal(t, "x", *v)
	assert.Equal(t, "", fromNull(nil))
	assert.Equal(t, "x", fromNull(v))
}
