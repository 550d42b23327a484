package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenSet_Membership(t *testing.T) {
	s := newSeenSet(3)
	assert.False(t, s.contains("a"))
	s.add("a")
	assert.True(t, s.contains("a"))
}

func TestSeenSet_EvictsLeastRecentlyUsed(t *testing.T) {
	s := newSeenSet(2)
	s.add("a")
	s.add("b")
	s.add("c") // evicts a
	assert.False(t, s.contains("a"))
	assert.True(t, s.contains("b"))
	assert.True(t, s.contains("c"))
}

func TestSeenSet_ContainsRefreshesRecency(t *testing.T) {
	s := newSeenSet(2)
	s.add("a")
	s.add("b")
	s.contains("a") // a is now most recent
	s.add("c")      // evicts b
	assert.True(t, s.contains("a"))
	assert.False(t, s.contains("b"))
}

func TestSeenSet_ReAddIsIdempotent(t *testing.T) {
	s := newSeenSet(2)
	s.add("a")
	s.add("a")
	s.add("b")
	s.add("c")
	assert.False(t, s.contains("a"))
	assert.True(t, s.contains("c"))
}
