// Package model defines the core data structures for msgcenter.
package model

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Priority orders notifications in the archive and decides popup eligibility.
// Anything below PriorityDefault never pops up.
type Priority int

const (
	PriorityMin     Priority = -2
	PriorityLow     Priority = -1
	PriorityDefault Priority = 0
	PriorityHigh    Priority = 1
	PriorityMax     Priority = 2
	// PrioritySystem notifications keep popping up until they are read.
	PrioritySystem Priority = 3
)

// PriorityNames maps priorities to human-readable names.
var PriorityNames = map[Priority]string{
	PriorityMin:     "min",
	PriorityLow:     "low",
	PriorityDefault: "default",
	PriorityHigh:    "high",
	PriorityMax:     "max",
	PrioritySystem:  "system",
}

// String returns the name of the priority.
func (p Priority) String() string {
	if name, ok := PriorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Type is the layout family of a notification.
type Type int

const (
	TypeSimple Type = iota
	TypeBaseFormat
	TypeImage
	TypeMultiple
	TypeProgress
)

// String returns the name of the type.
func (t Type) String() string {
	switch t {
	case TypeSimple:
		return "simple"
	case TypeBaseFormat:
		return "base_format"
	case TypeImage:
		return "image"
	case TypeMultiple:
		return "multiple"
	case TypeProgress:
		return "progress"
	default:
		return "unknown"
	}
}

// MaxButtons is the number of action buttons a notification may carry.
const MaxButtons = 2

// Validation errors.
var (
	ErrEmptyID         = errors.New("notification id cannot be empty")
	ErrTooManyButtons  = errors.New("notification cannot have more than 2 buttons")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrInvalidType     = errors.New("unknown notification type")
	ErrInvalidPriority = errors.New("priority must be between min and system")
	ErrButtonIndex     = errors.New("button index out of range")
)

// serial hands out the tie-breaker for notifications sharing a timestamp.
var serial atomic.Uint64

// Image is an opaque handle to image content. Decoding is left to the
// consumer; the core only stores and forwards it.
type Image struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Data   []byte `json:"-" yaml:"-"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// IsEmpty reports whether the handle points at nothing.
func (i Image) IsEmpty() bool {
	return i.Path == "" && len(i.Data) == 0
}

// Equal reports whether both handles refer to the same image.
func (i Image) Equal(o Image) bool {
	return i.Path == o.Path && i.Width == o.Width && i.Height == o.Height && bytes.Equal(i.Data, o.Data)
}

// Button is an action descriptor shown under the notification body.
type Button struct {
	Key   string
	Title string
	Icon  Image
}

// Item is one row of a TypeMultiple notification.
type Item struct {
	Title   string `json:"title" yaml:"title"`
	Message string `json:"message" yaml:"message"`
}

// Notification is one alert owned by the message center. The id and serial
// number never change; content fields may be replaced by an update.
type Notification struct {
	Type           Type
	Title          string
	Message        string
	ContextMessage string
	Icon           Image
	Image          Image
	SmallImage     Image
	NotifierID     NotifierID
	Priority       Priority
	Timestamp      time.Time
	Buttons        []Button
	Items          []Item
	Progress       int
	Pinned         bool
	NeverTimeout   bool
	Clickable      bool
	Delegate       Delegate

	id           string
	serial       uint64
	isRead       bool
	shownAsPopup bool
}

// New creates a notification with a fresh serial number and the current
// time as its timestamp.
func New(typ Type, id, title, message string, notifierID NotifierID) (*Notification, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	return &Notification{
		Type:       typ,
		Title:      title,
		Message:    message,
		NotifierID: notifierID,
		Priority:   PriorityDefault,
		Timestamp:  time.Now(),
		Clickable:  true,
		id:         id,
		serial:     serial.Add(1),
	}, nil
}

// MustNew is like New but panics on an empty id.
func MustNew(typ Type, id, title, message string, notifierID NotifierID) *Notification {
	n, err := New(typ, id, title, message, notifierID)
	if err != nil {
		panic(err)
	}
	return n
}

// NewID generates an id for producers that have no id scheme of their own.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// ID returns the producer-chosen identifier.
func (n *Notification) ID() string { return n.id }

// SerialNumber returns the construction-order tie-breaker.
func (n *Notification) SerialNumber() uint64 { return n.serial }

// IsRead reports whether the user has seen the notification. MIN priority
// notifications never count as unread.
func (n *Notification) IsRead() bool {
	return n.isRead || n.Priority == PriorityMin
}

// SetRead sets the read flag.
func (n *Notification) SetRead(read bool) { n.isRead = read }

// ShownAsPopup reports whether the notification already had its popup.
func (n *Notification) ShownAsPopup() bool { return n.shownAsPopup }

// SetShownAsPopup sets the popped flag.
func (n *Notification) SetShownAsPopup(shown bool) { n.shownAsPopup = shown }

// CopyState carries transient state from the notification this one replaces.
func (n *Notification) CopyState(base *Notification) {
	n.shownAsPopup = base.shownAsPopup
	n.isRead = base.isRead
	n.NeverTimeout = base.NeverTimeout
	n.Pinned = base.Pinned
	if n.Delegate == nil {
		n.Delegate = base.Delegate
	}
}

// SetButtonIcon replaces the icon of the button at index.
func (n *Notification) SetButtonIcon(index int, icon Image) error {
	if index < 0 || index >= len(n.Buttons) {
		return ErrButtonIndex
	}
	n.Buttons[index].Icon = icon
	return nil
}

// Validate checks producer-supplied content.
func (n *Notification) Validate() error {
	if n.id == "" {
		return ErrEmptyID
	}
	if n.Type < TypeSimple || n.Type > TypeProgress {
		return ErrInvalidType
	}
	if n.Priority < PriorityMin || n.Priority > PrioritySystem {
		return ErrInvalidPriority
	}
	if len(n.Buttons) > MaxButtons {
		return ErrTooManyButtons
	}
	if n.Type == TypeProgress && (n.Progress < 0 || n.Progress > 100) {
		return ErrInvalidProgress
	}
	return nil
}

// Snapshot is a read-only, serializable view of a notification.
type Snapshot struct {
	ID           string    `json:"id" yaml:"id"`
	Type         string    `json:"type" yaml:"type"`
	Title        string    `json:"title" yaml:"title"`
	Message      string    `json:"message,omitempty" yaml:"message,omitempty"`
	Notifier     string    `json:"notifier" yaml:"notifier"`
	Priority     string    `json:"priority" yaml:"priority"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Progress     int       `json:"progress,omitempty" yaml:"progress,omitempty"`
	Buttons      []string  `json:"buttons,omitempty" yaml:"buttons,omitempty"`
	Items        []Item    `json:"items,omitempty" yaml:"items,omitempty"`
	Icon         string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Read         bool      `json:"read" yaml:"read"`
	ShownAsPopup bool      `json:"shown_as_popup" yaml:"shown_as_popup"`
	Pinned       bool      `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// Snapshot returns a detached view of the notification.
func (n *Notification) Snapshot() Snapshot {
	s := Snapshot{
		ID:           n.id,
		Type:         n.Type.String(),
		Title:        n.Title,
		Message:      n.Message,
		Notifier:     n.NotifierID.Key(),
		Priority:     n.Priority.String(),
		Timestamp:    n.Timestamp,
		Icon:         n.Icon.Path,
		Read:         n.IsRead(),
		ShownAsPopup: n.shownAsPopup,
		Pinned:       n.Pinned,
	}
	if n.Type == TypeProgress {
		s.Progress = n.Progress
	}
	for _, b := range n.Buttons {
		s.Buttons = append(s.Buttons, b.Title)
	}
	if len(n.Items) > 0 {
		s.Items = append([]Item(nil), n.Items...)
	}
	return s
}
