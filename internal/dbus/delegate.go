package dbus

import (
	"log/slog"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// Signaler emits the client-facing notification signals.
type Signaler interface {
	InvokeAction(id uint32, actionKey string) error
	CloseWithReason(id uint32, reason CloseReason) error
}

// Delegate forwards message center events for one D-Bus notification back
// to the client that sent it.
type Delegate struct {
	signaler  Signaler
	logger    *slog.Logger
	id        uint32
	buttons   []string
	clickable bool

	// AfterAction runs once an action was invoked on a notification that
	// is not resident. Used to retire it from the message center.
	AfterAction func()
	resident    bool
}

var _ model.Delegate = (*Delegate)(nil)

// NewDelegate creates the delegate for notification id.
func NewDelegate(signaler Signaler, id uint32, n *DBusNotification, logger *slog.Logger) *Delegate {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Delegate{
		signaler:  signaler,
		logger:    logger,
		id:        id,
		clickable: n.HasDefaultAction(),
		resident:  n.Resident(),
	}
	for _, a := range n.ButtonActions() {
		d.buttons = append(d.buttons, a.Key)
	}
	return d
}

// ID returns the D-Bus id of the notification.
func (d *Delegate) ID() uint32 { return d.id }

// Display is a no-op beyond logging; the bus has no displayed signal.
func (d *Delegate) Display() {
	d.logger.Debug("notification displayed", "id", d.id)
}

// Close reports the removal: dismissed when the user removed it, closed
// otherwise.
func (d *Delegate) Close(byUser bool) {
	reason := CloseReasonClosed
	if byUser {
		reason = CloseReasonDismissed
	}
	if err := d.signaler.CloseWithReason(d.id, reason); err != nil {
		d.logger.Warn("failed to emit close signal", "id", d.id, "error", err)
	}
}

// Click invokes the default action when the sender offered one.
func (d *Delegate) Click() {
	if !d.clickable {
		return
	}
	d.invoke(DefaultActionKey)
}

// ButtonClick invokes the action behind the button at index.
func (d *Delegate) ButtonClick(index int) {
	if index < 0 || index >= len(d.buttons) {
		d.logger.Debug("button index out of range", "id", d.id, "index", index)
		return
	}
	d.invoke(d.buttons[index])
}

// HasClickedListener reports whether the sender offered a default action.
func (d *Delegate) HasClickedListener() bool { return d.clickable }

func (d *Delegate) invoke(key string) {
	if err := d.signaler.InvokeAction(d.id, key); err != nil {
		d.logger.Warn("failed to emit action signal", "id", d.id, "action_key", key, "error", err)
	}
	if !d.resident && d.AfterAction != nil {
		d.AfterAction()
	}
}
