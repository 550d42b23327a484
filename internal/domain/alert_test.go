package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.True(t, SeverityLow.AtLeast(SeverityLow))
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	_, err = ParseSeverity("catastrophic")
	assert.Error(t, err)
}

func TestAlertStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    AlertStatus
		to      AlertStatus
		allowed bool
	}{
		{StatusActive, StatusResolved, true},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusActive, true},
		{StatusResolved, StatusCancelled, false},
		{StatusResolved, StatusActive, false},
		{StatusCancelled, StatusResolved, false},
		{StatusResolved, StatusResolved, true}, // no-op
		{StatusCancelled, StatusCancelled, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestAlertStatus_Terminal(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestRole_Priority(t *testing.T) {
	assert.True(t, RoleGovernment.Priority())
	assert.True(t, RoleResponder.Priority())
	assert.False(t, RoleCitizen.Priority())
	assert.False(t, RoleAdmin.Priority())
}

func TestRecipient_HasLocation(t *testing.T) {
	assert.False(t, Recipient{}.HasLocation())
	assert.False(t, Recipient{Latitude: Float(60.2)}.HasLocation())
	assert.True(t, Recipient{Latitude: Float(60.2), Longitude: Float(24.9)}.HasLocation())
}

func TestAlertPatch_Empty(t *testing.T) {
	assert.True(t, AlertPatch{}.Empty())

	title := "updated"
	assert.False(t, AlertPatch{Title: &title}.Empty())
}
