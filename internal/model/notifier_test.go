package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierID_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b NotifierID
		want int
	}{
		{"equal apps", AppNotifier("a"), AppNotifier("a"), 0},
		{"app before web", AppNotifier("z"), WebNotifier("https://a"), -1},
		{"web before system", WebNotifier("https://a"), SystemNotifier("a"), -1},
		{"profile before id", NotifierID{Type: NotifierApplication, ID: "a", Profile: "b"}, NotifierID{Type: NotifierApplication, ID: "b", Profile: "a"}, 1},
		{"id ordering", AppNotifier("a"), AppNotifier("b"), -1},
		{"web compares url", WebNotifier("https://b"), WebNotifier("https://a"), 1},
		{"web ignores id", NotifierID{Type: NotifierWebPage, URL: "u", ID: "x"}, NotifierID{Type: NotifierWebPage, URL: "u", ID: "y"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
			assert.Equal(t, tt.want == 0, tt.a.Equal(tt.b))
		})
	}
}

func TestNotifierID_KeyRoundTrip(t *testing.T) {
	tests := []struct {
		id  NotifierID
		key string
	}{
		{AppNotifier("firefox"), "app:firefox"},
		{WebNotifier("https://example.org/chat"), "web:https://example.org/chat"},
		{SystemNotifier("msgcenterd"), "system:msgcenterd"},
		{NotifierID{Type: NotifierApplication, ID: "slack", Profile: "work"}, "app[work]:slack"},
		{NotifierID{Type: NotifierWebPage, URL: "https://a.b/c", Profile: "p"}, "web[p]:https://a.b/c"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.id.Key())
			parsed, err := ParseNotifierKey(tt.key)
			require.NoError(t, err)
			assert.True(t, tt.id.Equal(parsed))
		})
	}
}

func TestParseNotifierKey_Invalid(t *testing.T) {
	for _, key := range []string{"", "firefox", "app:", "mail:thunderbird"} {
		t.Run(key, func(t *testing.T) {
			_, err := ParseNotifierKey(key)
			assert.Error(t, err)
		})
	}
}
