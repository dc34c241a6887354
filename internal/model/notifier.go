package model

import (
	"cmp"
	"fmt"
	"strings"
)

// NotifierType tags what kind of producer a NotifierID names.
type NotifierType int

const (
	NotifierApplication NotifierType = iota
	NotifierWebPage
	NotifierSystemComponent
)

// String returns the name used in notifier keys.
func (t NotifierType) String() string {
	switch t {
	case NotifierApplication:
		return "app"
	case NotifierWebPage:
		return "web"
	case NotifierSystemComponent:
		return "system"
	default:
		return "unknown"
	}
}

// NotifierID identifies who produced a notification. Web pages are keyed
// by URL, everything else by ID.
type NotifierID struct {
	Type    NotifierType
	ID      string
	URL     string
	Profile string
}

// AppNotifier returns the id of an application notifier.
func AppNotifier(id string) NotifierID {
	return NotifierID{Type: NotifierApplication, ID: id}
}

// WebNotifier returns the id of a web page notifier.
func WebNotifier(url string) NotifierID {
	return NotifierID{Type: NotifierWebPage, URL: url}
}

// SystemNotifier returns the id of a system component notifier.
func SystemNotifier(id string) NotifierID {
	return NotifierID{Type: NotifierSystemComponent, ID: id}
}

func (n NotifierID) subject() string {
	if n.Type == NotifierWebPage {
		return n.URL
	}
	return n.ID
}

// Equal reports whether both ids name the same notifier.
func (n NotifierID) Equal(o NotifierID) bool {
	return n.Compare(o) == 0
}

// Compare orders ids by type, then profile, then id or url.
func (n NotifierID) Compare(o NotifierID) int {
	if c := cmp.Compare(n.Type, o.Type); c != 0 {
		return c
	}
	if c := strings.Compare(n.Profile, o.Profile); c != 0 {
		return c
	}
	return strings.Compare(n.subject(), o.subject())
}

// Key returns a stable string form: "app:firefox", "web:https://x.org" or,
// with a profile, "app[work]:firefox".
func (n NotifierID) Key() string {
	if n.Profile != "" {
		return fmt.Sprintf("%s[%s]:%s", n.Type, n.Profile, n.subject())
	}
	return n.Type.String() + ":" + n.subject()
}

// ParseNotifierKey is the inverse of Key.
func ParseNotifierKey(key string) (NotifierID, error) {
	prefix, rest, ok := strings.Cut(key, ":")
	if !ok || rest == "" {
		return NotifierID{}, fmt.Errorf("invalid notifier key %q", key)
	}
	var id NotifierID
	if open := strings.IndexByte(prefix, '['); open >= 0 && strings.HasSuffix(prefix, "]") {
		id.Profile = prefix[open+1 : len(prefix)-1]
		prefix = prefix[:open]
	}
	switch prefix {
	case "app":
		id.Type = NotifierApplication
	case "web":
		id.Type = NotifierWebPage
	case "system":
		id.Type = NotifierSystemComponent
	default:
		return NotifierID{}, fmt.Errorf("invalid notifier type %q in key %q", prefix, key)
	}
	if id.Type == NotifierWebPage {
		id.URL = rest
	} else {
		id.ID = rest
	}
	return id, nil
}

// Notifier is a producer as presented to the settings surface.
type Notifier struct {
	ID      NotifierID
	Name    string
	Enabled bool
	Icon    Image
}

// NotifierGroup groups notifiers for the settings surface.
type NotifierGroup struct {
	Name      string
	LoginInfo string
	Icon      Image
	Index     int
}
