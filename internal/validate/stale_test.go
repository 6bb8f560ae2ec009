package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.False(t, IsStale(now, now, DefaultStaleAfter))
	assert.False(t, IsStale(now.Add(-30*day), now, DefaultStaleAfter))
	assert.True(t, IsStale(now.Add(-30*day-time.Minute), now, DefaultStaleAfter))
	assert.False(t, IsStale(time.Time{}, now, DefaultStaleAfter))
	assert.False(t, IsStale(now.Add(day), now, DefaultStaleAfter))
}

func TestAgeDays(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 45, AgeDays(now.Add(-45*24*time.Hour-time.Hour), now))
	assert.Equal(t, 0, AgeDays(time.Time{}, now))
	assert.Equal(t, 0, AgeDays(now.Add(time.Hour), now))
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultStaleAfter, o.StaleAfter)
	assert.Equal(t, DefaultMinExternalConfidence, o.MinExternalConfidence)

	o = Options{StaleAfter: time.Hour, MinExternalConfidence: 0.5}.withDefaults()
	assert.Equal(t, time.Hour, o.StaleAfter)
	assert.Equal(t, 0.5, o.MinExternalConfidence)
}
