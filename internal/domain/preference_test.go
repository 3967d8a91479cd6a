package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventType_Category(t *testing.T) {
	c, ok := EventRosterChanged.Category()
	assert.True(t, ok)
	assert.Equal(t, CategoryRoster, c)

	_, ok = EventType("band_renamed").Category()
	assert.False(t, ok)
	assert.False(t, EventType("").Valid())
}

func TestNotificationPreference_Allows(t *testing.T) {
	p := DefaultPreference("u1")
	for _, c := range []Category{CategoryActivities, CategoryAvailability, CategoryRoster, CategoryMembers} {
		assert.True(t, p.Allows(c), c)
	}

	p.Availability = false
	assert.False(t, p.Allows(CategoryAvailability))
	assert.True(t, p.Allows(CategoryActivities))

	p = DefaultPreference("u1")
	p.NotificationsEnabled = false
	assert.False(t, p.Allows(CategoryActivities))
}
