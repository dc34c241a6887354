package dbus

import (
	"github.com/jmylchreest/msgcenter/internal/model"
)

// UnknownApp names the notifier of calls that carry neither an app name
// nor a desktop entry.
const UnknownApp = "unknown"

// NotifierID derives the producer identity. Browsers tag web notifications
// with x-origin-url; everything else is keyed by desktop entry, then app name.
func (n *DBusNotification) NotifierID() model.NotifierID {
	if url := n.OriginURL(); url != "" {
		return model.WebNotifier(url)
	}
	if entry := n.DesktopEntry(); entry != "" {
		return model.AppNotifier(entry)
	}
	if n.AppName != "" {
		return model.AppNotifier(n.AppName)
	}
	return model.AppNotifier(UnknownApp)
}

// HasDefaultAction reports whether clicking the body maps to an action.
func (n *DBusNotification) HasDefaultAction() bool {
	for _, a := range n.ParsedActions() {
		if a.Key == DefaultActionKey {
			return true
		}
	}
	return false
}

// ButtonActions returns the non-default actions that become buttons,
// capped at model.MaxButtons.
func (n *DBusNotification) ButtonActions() []Action {
	var buttons []Action
	for _, a := range n.ParsedActions() {
		if a.Key == DefaultActionKey {
			continue
		}
		if len(buttons) == model.MaxButtons {
			break
		}
		buttons = append(buttons, a)
	}
	return buttons
}

// ToNotification builds a message center notification with the given id
// from the Notify call. The delegate receives the user-facing events.
func (n *DBusNotification) ToNotification(id string, delegate model.Delegate) (*model.Notification, error) {
	typ := model.TypeSimple
	progress := n.Progress()
	image := model.Image{Path: n.ImagePath(), Data: n.ImageData()}
	switch {
	case progress >= 0:
		typ = model.TypeProgress
	case !image.IsEmpty():
		typ = model.TypeImage
	}

	notification, err := model.New(typ, id, n.Summary, n.Body, n.NotifierID())
	if err != nil {
		return nil, err
	}
	notification.ContextMessage = n.AppName
	notification.Icon = model.Image{Path: n.AppIcon}
	notification.Image = image

	urgency := n.Urgency()
	notification.Priority = urgency.Priority()
	notification.NeverTimeout = urgency == UrgencyCritical || n.ExpireTimeout == 0
	notification.Clickable = n.HasDefaultAction()

	if typ == model.TypeProgress {
		notification.Progress = progress
	}
	for _, a := range n.ButtonActions() {
		notification.Buttons = append(notification.Buttons, model.Button{Key: a.Key, Title: a.Label})
	}
	notification.Delegate = delegate

	if err := notification.Validate(); err != nil {
		return nil, err
	}
	return notification, nil
}
