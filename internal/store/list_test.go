package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/blocker"
	"github.com/jmylchreest/msgcenter/internal/model"
)

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// notifierBlocker hides or mutes a single notifier.
type notifierBlocker struct {
	blocker.Base
	target     model.NotifierID
	hide, mute bool
}

func (b *notifierBlocker) ShouldShowNotification(n *model.Notification) bool {
	return !(b.hide && n.NotifierID.Equal(b.target))
}

func (b *notifierBlocker) ShouldShowNotificationAsPopup(n *model.Notification) bool {
	return !((b.hide || b.mute) && n.NotifierID.Equal(b.target))
}

type listFixture struct {
	list *List
	seq  int
}

func newFixture() *listFixture {
	return &listFixture{list: NewList()}
}

// make builds a notification whose timestamp grows with every call.
func (f *listFixture) make(id string, priority model.Priority) *model.Notification {
	f.seq++
	n := model.MustNew(model.TypeSimple, id, "title "+id, "message", model.AppNotifier("app"))
	n.Priority = priority
	n.Timestamp = baseTime.Add(time.Duration(f.seq) * time.Second)
	return n
}

func (f *listFixture) add(id string, priority model.Priority) *model.Notification {
	n := f.make(id, priority)
	f.list.AddNotification(n)
	return n
}

func ids(notifications []*model.Notification) []string {
	out := make([]string, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, n.ID())
	}
	return out
}

func popupIDs(l *List, blockers blocker.Blockers) []string {
	popups, _ := l.GetPopupNotifications(blockers)
	return ids(popups)
}

func TestList_AddNotification(t *testing.T) {
	f := newFixture()
	n := f.add("a", model.PriorityDefault)

	assert.Equal(t, 1, f.list.Len())
	assert.Same(t, n, f.list.GetNotificationByID("a"))
	assert.True(t, f.list.HasNotification("a"))
	assert.False(t, n.IsRead())
	assert.False(t, n.ShownAsPopup())
	assert.Equal(t, 1, f.list.UnreadCount(nil))
}

func TestList_AddWhileVisibleOrQuiet(t *testing.T) {
	tests := []struct {
		name    string
		visible bool
		quiet   bool
		want    bool
	}{
		{"transient", false, false, false},
		{"archive open", true, false, true},
		{"quiet mode", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.list.SetMessageCenterVisible(tt.visible)
			f.list.SetQuietMode(tt.quiet)
			n := f.add("a", model.PriorityDefault)
			assert.Equal(t, tt.want, n.ShownAsPopup())
			assert.False(t, n.IsRead())
		})
	}
}

func TestList_AddCollisionInheritsState(t *testing.T) {
	f := newFixture()
	old := f.add("a", model.PriorityDefault)
	old.SetRead(true)
	old.SetShownAsPopup(true)

	f.list.SetMessageCenterVisible(false)
	replacement := f.add("a", model.PriorityDefault)

	assert.Equal(t, 1, f.list.Len())
	assert.Same(t, replacement, f.list.GetNotificationByID("a"))
	assert.True(t, replacement.IsRead())
	assert.True(t, replacement.ShownAsPopup())
}

func TestList_ArchiveOrdering(t *testing.T) {
	f := newFixture()
	f.add("low-old", model.PriorityLow)
	f.add("default-old", model.PriorityDefault)
	f.add("high", model.PriorityHigh)
	f.add("default-new", model.PriorityDefault)
	f.add("system", model.PrioritySystem)
	f.add("low-new", model.PriorityLow)

	// Same timestamp falls back to serial number.
	tie1 := f.make("tie1", model.PriorityMin)
	tie2 := f.make("tie2", model.PriorityMin)
	tie2.Timestamp = tie1.Timestamp
	f.list.AddNotification(tie1)
	f.list.AddNotification(tie2)

	got := f.list.GetVisibleNotifications(nil)
	assert.Equal(t, []string{
		"system", "high", "default-new", "default-old", "low-new", "low-old", "tie2", "tie1",
	}, ids(got))

	for i := 1; i < len(got); i++ {
		assert.Equal(t, 1, compareArchive(got[i], got[i-1]), "strictly descending at %d", i)
	}
}

func TestList_UpdateNotificationMessage(t *testing.T) {
	f := newFixture()
	old := f.add("a", model.PriorityDefault)
	old.SetRead(true)
	old.SetShownAsPopup(true)
	old.Pinned = true

	updated := f.make("b", model.PriorityDefault)
	require.True(t, f.list.UpdateNotificationMessage("a", updated))

	assert.False(t, f.list.HasNotification("a"))
	assert.Same(t, updated, f.list.GetNotificationByID("b"))
	assert.True(t, updated.IsRead())
	assert.True(t, updated.ShownAsPopup())
	assert.True(t, updated.Pinned)

	assert.False(t, f.list.UpdateNotificationMessage("missing", f.make("c", model.PriorityDefault)))
	assert.False(t, f.list.HasNotification("c"))
}

func TestList_UpdateOntoLiveID(t *testing.T) {
	f := newFixture()
	f.add("a", model.PriorityDefault)
	f.add("b", model.PriorityDefault)

	require.True(t, f.list.UpdateNotificationMessage("a", f.make("b", model.PriorityDefault)))
	assert.Equal(t, 1, f.list.Len())
}

func TestList_PriorityPromotionReannounces(t *testing.T) {
	f := newFixture()
	f.add("A", model.PriorityLow)
	f.list.MarkSinglePopupAsShown("A", true)
	assert.Empty(t, popupIDs(f.list, nil))

	f.list.UpdateNotificationMessage("A", f.make("A", model.PriorityDefault))

	assert.Equal(t, []string{"A"}, popupIDs(f.list, nil))
	assert.False(t, f.list.GetNotificationByID("A").IsRead())
}

func TestList_WebPageReannounces(t *testing.T) {
	tests := []struct {
		name     string
		notifier model.NotifierID
		want     []string
	}{
		{"web page", model.WebNotifier("https://example.org"), []string{"n"}},
		{"application", model.AppNotifier("app"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			n := f.make("n", model.PriorityDefault)
			n.NotifierID = tt.notifier
			f.list.AddNotification(n)
			f.list.MarkSinglePopupAsShown("n", true)
			require.Empty(t, popupIDs(f.list, nil))

			update := f.make("n", model.PriorityDefault)
			update.NotifierID = tt.notifier
			f.list.UpdateNotificationMessage("n", update)

			if tt.want == nil {
				assert.Empty(t, popupIDs(f.list, nil))
			} else {
				assert.Equal(t, tt.want, popupIDs(f.list, nil))
			}
		})
	}
}

func TestList_PopupCapping(t *testing.T) {
	f := newFixture()
	for i := range 5 {
		f.add(fmt.Sprintf("id%d", i), model.PriorityDefault)
	}

	assert.Equal(t, []string{"id1", "id0"}, popupIDs(f.list, nil))
}

func TestList_PopupCappingIgnoresHighPriority(t *testing.T) {
	f := newFixture()
	f.add("d0", model.PriorityDefault)
	f.add("h0", model.PriorityHigh)
	f.add("d1", model.PriorityDefault)
	f.add("d2", model.PriorityDefault)
	f.add("m0", model.PriorityMax)
	f.add("s0", model.PrioritySystem)
	f.add("low", model.PriorityLow)

	assert.Equal(t, []string{"s0", "m0", "d1", "h0", "d0"}, popupIDs(f.list, nil))

	f.list.SetMaxVisiblePopups(3)
	assert.Equal(t, []string{"s0", "m0", "d2", "d1", "h0", "d0"}, popupIDs(f.list, nil))
}

func TestList_PopupsReportBlocked(t *testing.T) {
	f := newFixture()
	muted := &notifierBlocker{target: model.AppNotifier("muted"), mute: true}
	f.add("a", model.PriorityDefault)
	m := f.make("m", model.PriorityDefault)
	m.NotifierID = model.AppNotifier("muted")
	f.list.AddNotification(m)

	popups, blocked := f.list.GetPopupNotifications(blocker.Blockers{muted})
	assert.Equal(t, []string{"a"}, ids(popups))
	assert.Equal(t, []string{"m"}, blocked)

	assert.Equal(t, 2, f.list.NotificationCount(blocker.Blockers{muted}), "muting keeps it in the archive")
}

func TestList_HasPopupNotifications(t *testing.T) {
	f := newFixture()
	assert.False(t, f.list.HasPopupNotifications(nil))

	f.add("low", model.PriorityLow)
	assert.False(t, f.list.HasPopupNotifications(nil), "low priority never pops up")

	f.add("a", model.PriorityDefault)
	assert.True(t, f.list.HasPopupNotifications(nil))

	f.list.MarkSinglePopupAsShown("a", true)
	assert.False(t, f.list.HasPopupNotifications(nil))

	b := f.make("b", model.PriorityHigh)
	b.NotifierID = model.AppNotifier("muted")
	f.list.AddNotification(b)
	muted := &notifierBlocker{target: model.AppNotifier("muted"), mute: true}
	assert.False(t, f.list.HasPopupNotifications(blocker.Blockers{muted}))
	assert.True(t, f.list.HasPopupNotifications(nil))
}

func TestList_MarkSinglePopupAsShown(t *testing.T) {
	tests := []struct {
		name       string
		priority   model.Priority
		markAsRead bool
		wantPopped bool
		wantRead   bool
	}{
		{"default read", model.PriorityDefault, true, true, true},
		{"default timed out", model.PriorityDefault, false, true, false},
		{"system read", model.PrioritySystem, true, true, true},
		{"system timed out", model.PrioritySystem, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			n := f.add("n", tt.priority)
			f.list.MarkSinglePopupAsDisplayed("n")
			require.True(t, n.IsRead())

			f.list.MarkSinglePopupAsShown("n", tt.markAsRead)
			assert.Equal(t, tt.wantPopped, n.ShownAsPopup())
			assert.Equal(t, tt.wantRead, n.IsRead())
		})
	}
}

func TestList_SystemPopupPersists(t *testing.T) {
	f := newFixture()
	f.add("sys", model.PrioritySystem)

	f.list.MarkSinglePopupAsDisplayed("sys")
	f.list.MarkSinglePopupAsShown("sys", false)
	assert.Equal(t, []string{"sys"}, popupIDs(f.list, nil))

	f.list.MarkSinglePopupAsShown("sys", true)
	assert.Empty(t, popupIDs(f.list, nil))
}

func TestList_MarkSinglePopupAsShownIgnoresPopped(t *testing.T) {
	f := newFixture()
	n := f.add("n", model.PriorityDefault)
	f.list.MarkSinglePopupAsDisplayed("n")
	f.list.MarkSinglePopupAsShown("n", true)
	require.True(t, n.IsRead())
	require.True(t, n.ShownAsPopup())

	f.list.MarkSinglePopupAsShown("n", false)
	assert.True(t, n.IsRead(), "already popped notifications are left alone")

	assert.NotPanics(t, func() { f.list.MarkSinglePopupAsShown("missing", true) })
}

func TestList_MarkSinglePopupAsDisplayed(t *testing.T) {
	f := newFixture()
	n := f.add("n", model.PriorityDefault)

	f.list.MarkSinglePopupAsDisplayed("n")
	assert.True(t, n.IsRead())
	assert.False(t, n.ShownAsPopup())

	popped := f.add("p", model.PriorityDefault)
	popped.SetShownAsPopup(true)
	f.list.MarkSinglePopupAsDisplayed("p")
	assert.False(t, popped.IsRead())
}

func TestList_SetNotificationsShown(t *testing.T) {
	f := newFixture()
	f.add("a", model.PriorityDefault)
	sys := f.add("sys", model.PrioritySystem)
	done := f.add("done", model.PriorityHigh)
	done.SetRead(true)
	done.SetShownAsPopup(true)
	hidden := f.make("hidden", model.PriorityDefault)
	hidden.NotifierID = model.AppNotifier("hidden")
	f.list.AddNotification(hidden)

	hide := &notifierBlocker{target: model.AppNotifier("hidden"), hide: true}
	updated := f.list.SetNotificationsShown(blocker.Blockers{hide})

	assert.Equal(t, []string{"sys", "a"}, updated)
	assert.True(t, sys.IsRead())
	assert.False(t, sys.ShownAsPopup(), "system popups survive opening the archive")
	assert.True(t, f.list.GetNotificationByID("a").ShownAsPopup())
	assert.False(t, hidden.IsRead(), "blocked notifications are untouched")
	assert.Equal(t, 0, f.list.UnreadCount(blocker.Blockers{hide}))
}

func TestList_SetQuietMode(t *testing.T) {
	f := newFixture()
	a := f.add("a", model.PriorityDefault)
	f.add("b", model.PrioritySystem)

	f.list.SetQuietMode(true)
	assert.True(t, f.list.QuietMode())
	assert.Empty(t, popupIDs(f.list, nil))
	assert.False(t, a.IsRead())

	f.list.SetQuietMode(false)
	assert.Empty(t, popupIDs(f.list, nil), "leaving quiet mode does not resurrect popups")
	f.add("c", model.PriorityDefault)
	assert.Equal(t, []string{"c"}, popupIDs(f.list, nil))
}

func TestList_RemoveNotification(t *testing.T) {
	f := newFixture()
	f.add("a", model.PriorityDefault)

	assert.True(t, f.list.RemoveNotification("a"))
	assert.False(t, f.list.RemoveNotification("a"))
	assert.Equal(t, 0, f.list.Len())
}

func TestList_GetNotificationsByNotifierID(t *testing.T) {
	f := newFixture()
	f.add("a1", model.PriorityDefault)
	other := f.make("o1", model.PriorityDefault)
	other.NotifierID = model.AppNotifier("other")
	f.list.AddNotification(other)
	f.add("a2", model.PriorityDefault)

	assert.Equal(t, []string{"a2", "a1"}, ids(f.list.GetNotificationsByNotifierID(model.AppNotifier("app"))))
	assert.Equal(t, []string{"o1"}, ids(f.list.GetNotificationsByNotifierID(model.AppNotifier("other"))))
	assert.Empty(t, f.list.GetNotificationsByNotifierID(model.AppNotifier("none")))
}

func TestList_SetImages(t *testing.T) {
	f := newFixture()
	n := f.add("a", model.PriorityDefault)
	n.Buttons = []model.Button{{Title: "ok"}}
	img := model.Image{Path: "/tmp/i.png"}

	assert.True(t, f.list.SetNotificationIcon("a", img))
	assert.True(t, f.list.SetNotificationImage("a", img))
	assert.True(t, f.list.SetNotificationButtonIcon("a", 0, img))
	assert.False(t, f.list.SetNotificationButtonIcon("a", 1, img))
	assert.Equal(t, img, n.Icon)
	assert.Equal(t, img, n.Image)
	assert.Equal(t, img, n.Buttons[0].Icon)

	assert.False(t, f.list.SetNotificationIcon("missing", img))
	assert.False(t, f.list.SetNotificationImage("missing", img))
	assert.False(t, f.list.SetNotificationButtonIcon("missing", 0, img))
}

func TestList_HasNotificationOfType(t *testing.T) {
	f := newFixture()
	p := f.make("p", model.PriorityDefault)
	p.Type = model.TypeProgress
	f.list.AddNotification(p)

	assert.True(t, f.list.HasNotificationOfType("p", model.TypeProgress))
	assert.False(t, f.list.HasNotificationOfType("p", model.TypeSimple))
	assert.False(t, f.list.HasNotificationOfType("missing", model.TypeProgress))
}

func TestList_BlockerComposition(t *testing.T) {
	f := newFixture()
	n := f.make("n", model.PriorityDefault)
	n.NotifierID = model.AppNotifier("x")
	f.list.AddNotification(n)

	a := &notifierBlocker{target: model.AppNotifier("x"), hide: true}
	b := &notifierBlocker{target: model.AppNotifier("x"), hide: true}
	blockers := blocker.Blockers{a, b}

	assert.Empty(t, f.list.GetVisibleNotifications(blockers))
	assert.Empty(t, popupIDs(f.list, blockers))

	a.hide = false
	assert.Empty(t, f.list.GetVisibleNotifications(blockers), "the other blocker still vetoes")
	assert.Empty(t, popupIDs(f.list, blockers))

	b.hide = false
	assert.Len(t, f.list.GetVisibleNotifications(blockers), 1)
	assert.Equal(t, []string{"n"}, popupIDs(f.list, blockers))
}

func TestList_Delegate(t *testing.T) {
	f := newFixture()
	n := f.make("a", model.PriorityDefault)
	d := &model.DelegateFuncs{}
	n.Delegate = d
	f.list.AddNotification(n)

	assert.Same(t, d, f.list.Delegate("a"))
	assert.Nil(t, f.list.Delegate("missing"))
}
