package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/msgcenter/internal/dbus"
	"github.com/jmylchreest/msgcenter/internal/model"
)

func TestGenerateWaybarStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    dbus.Status
		wantText  string
		wantClass string
	}{
		{"empty", dbus.Status{}, "", "empty"},
		{"unread", dbus.Status{Count: 3, Unread: 2}, "2", "unread"},
		{"all read", dbus.Status{Count: 3}, "", "empty"},
		{"popup", dbus.Status{Count: 1, Unread: 1, Popups: 1}, "1", "popup"},
		{"quiet wins", dbus.Status{Count: 1, Unread: 1, Popups: 1, QuietMode: true}, "1", "quiet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generateWaybarStatus(&tt.status)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantClass, got.Class)
			assert.Equal(t, tt.wantClass, got.Alt)
		})
	}
}

func TestBuildStatusTooltip(t *testing.T) {
	got := buildStatusTooltip(&dbus.Status{Count: 4, Unread: 2, Pending: 1, QuietMode: true})
	assert.Equal(t, "4 notifications\nUnread: 2\nPending changes: 1\nQuiet mode on", got)
}

func TestWriteStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	status := &dbus.Status{
		Count:      2,
		Unread:     1,
		QuietMode:  true,
		QuietUntil: now.Add(2 * time.Hour).Unix(),
		Visibility: "transient",
	}

	var buf bytes.Buffer
	require.NoError(t, writeStatus(&buf, status, "text", now))
	assert.Contains(t, buf.String(), "Notifications:   2\n")
	assert.Contains(t, buf.String(), "Quiet mode:      on until 2 hours from now\n")
	assert.Contains(t, buf.String(), "Visibility:      transient\n")

	buf.Reset()
	require.NoError(t, writeStatus(&buf, status, "json", now))
	assert.Contains(t, buf.String(), `"quiet_mode":true`)

	assert.Error(t, writeStatus(&buf, status, "xml", now))
}

func TestQuietLine(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Quiet mode: disabled", quietLine(false, 0, now))
	assert.Equal(t, "Quiet mode: enabled", quietLine(true, 0, now))
	assert.True(t, strings.HasPrefix(quietLine(true, now.Add(time.Hour).Unix(), now), "Quiet mode: enabled until "))
}

func TestReadIDs(t *testing.T) {
	input := "12 | 5m | app:chat | hi\n\n  7\n12\n"
	ids, err := readIDs(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "7", "12"}, ids)
	assert.Equal(t, []string{"12", "7"}, uniqueStrings(ids))
}

func TestResolveVisibility(t *testing.T) {
	current := func(v string) func() (string, error) {
		return func() (string, error) { return v, nil }
	}

	tests := []struct {
		arg     string
		current string
		want    string
	}{
		{"open", "", "message_center"},
		{"close", "", "transient"},
		{"toggle", "transient", "message_center"},
		{"toggle", "message_center", "transient"},
		{"settings", "", "settings"},
	}

	for _, tt := range tests {
		t.Run(tt.arg+"/"+tt.current, func(t *testing.T) {
			got, err := resolveVisibility(tt.arg, current(tt.current))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveVisibility("toggle", func() (string, error) { return "", errors.New("no bus") })
	assert.EqualError(t, err, "no bus")
}

func TestSelectSnapshots(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshots := func() []model.Snapshot {
		return []model.Snapshot{
			{ID: "1", Notifier: "app:slack", Title: "deploy done", Priority: "high", Timestamp: now.Add(-10 * time.Minute), Read: true},
			{ID: "2", Notifier: "app:slack", Title: "lunch?", Priority: "default", Timestamp: now.Add(-time.Minute)},
			{ID: "3", Notifier: "app:firefox", Title: "Download finished", Priority: "low", Timestamp: now.Add(-3 * time.Hour)},
		}
	}

	tests := []struct {
		name    string
		setup   func()
		want    []string
		wantErr bool
	}{
		{"defaults keep order", func() {}, []string{"1", "2", "3"}, false},
		{"unread", func() { listOpts.unread = true }, []string{"2", "3"}, false},
		{"notifier and since", func() { listOpts.notifier = "app:slack"; listOpts.since = "5m" }, []string{"2"}, false},
		{"priority", func() { listOpts.priority = "default" }, []string{"1", "2"}, false},
		{"filter", func() { listOpts.filter = "title~deploy" }, []string{"1"}, false},
		{"search", func() { listOpts.search = "DOWNLOAD" }, []string{"3"}, false},
		{"sort and limit", func() { listOpts.sort = "timestamp"; listOpts.limit = 2 }, []string{"2", "1"}, false},
		{"bad priority", func() { listOpts.priority = "loud" }, nil, true},
		{"bad sort", func() { listOpts.sort = "colour" }, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := listOpts
			t.Cleanup(func() { listOpts = saved })
			listOpts.sort = "center"
			listOpts.order = "desc"
			tt.setup()

			got, err := selectSnapshots(snapshots(), now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var ids []string
			for _, n := range got {
				ids = append(ids, n.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
