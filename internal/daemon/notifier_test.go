package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/model"
)

func TestNotificationLevel(t *testing.T) {
	tests := []struct {
		level    NotificationLevel
		priority model.Priority
		icon     string
	}{
		{NotificationLevelInfo, model.PriorityDefault, "dialog-information"},
		{NotificationLevelWarning, model.PriorityHigh, "dialog-warning"},
		{NotificationLevelError, model.PrioritySystem, "dialog-error"},
	}

	for _, tt := range tests {
		t.Run(tt.icon, func(t *testing.T) {
			assert.Equal(t, tt.priority, tt.level.Priority())
			assert.Equal(t, tt.icon, tt.level.Icon())
		})
	}
}

func newRecordingNotifier(clock *fakeClock) (*InternalNotifier, *[]*model.Notification) {
	var got []*model.Notification
	n := NewInternalNotifier(clock, nil)
	n.SetHandler(func(notification *model.Notification) {
		got = append(got, notification)
	})
	return n, &got
}

func TestInternalNotifier_Notify(t *testing.T) {
	clock := newFakeClock()
	n, got := newRecordingNotifier(clock)

	n.NotifyStateError(errors.New("disk full"))

	require.Len(t, *got, 1)
	notification := (*got)[0]
	assert.NotEmpty(t, notification.ID())
	assert.Equal(t, "State Error", notification.Title)
	assert.Contains(t, notification.Message, "disk full")
	assert.Equal(t, NotifierID, notification.NotifierID)
	assert.Equal(t, model.PrioritySystem, notification.Priority)
	assert.Equal(t, "dialog-error", notification.Icon.Path)
	assert.Equal(t, clock.Now(), notification.Timestamp)
	assert.False(t, notification.Clickable)
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	clock := newFakeClock()
	n, got := newRecordingNotifier(clock)

	n.NotifyConfigReloaded()
	n.NotifyConfigReloaded()
	assert.Len(t, *got, 1, "repeat within the interval is dropped")

	n.NotifyConfigError(errors.New("bad toml"))
	assert.Len(t, *got, 2, "keys are limited independently")

	clock.Advance(5 * time.Second)
	n.NotifyConfigReloaded()
	assert.Len(t, *got, 3)

	n.SetMinInterval(time.Minute)
	clock.Advance(30 * time.Second)
	n.NotifyConfigReloaded()
	assert.Len(t, *got, 3)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	clock := newFakeClock()
	n, got := newRecordingNotifier(clock)

	n.SetEnabled(false)
	n.NotifyStartup("1.0.0")
	assert.Empty(t, *got)

	n.SetEnabled(true)
	n.NotifyStartup("1.0.0")
	require.Len(t, *got, 1)
	assert.Contains(t, (*got)[0].Message, "v1.0.0")
}

func TestInternalNotifier_NoHandler(t *testing.T) {
	n := NewInternalNotifier(newFakeClock(), nil)
	assert.NotPanics(t, func() { n.NotifyStartup("dev") })
}
