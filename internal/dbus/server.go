package dbus

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// NotificationHandler is called when a new notification is received.
// ReplacesID on the notification is non-zero when id already existed.
type NotificationHandler func(notification *DBusNotification, id uint32)

// CloseHandler is called when CloseNotification is requested.
type CloseHandler func(id uint32)

// NotificationServer serves org.freedesktop.Notifications. It owns id
// allocation and stack-tag replacement; everything else is handed to the
// notify and close handlers.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger

	nextID atomic.Uint32

	notifyHandler NotificationHandler
	closeHandler  CloseHandler

	mu         sync.RWMutex
	activeIDs  map[uint32]bool
	stackTags  map[string]uint32
	serverInfo ServerInfo
	running    bool
}

// NewNotificationServer creates a new NotificationServer.
func NewNotificationServer(logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:     logger,
		activeIDs:  make(map[uint32]bool),
		stackTags:  make(map[string]uint32),
		serverInfo: DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler called when a notification is received.
func (s *NotificationServer) SetNotifyHandler(handler NotificationHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler called when CloseNotification is requested.
func (s *NotificationServer) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// Start exports the notification service on conn and claims the bus name.
func (s *NotificationServer) Start(conn *dbus.Conn) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if running {
		return fmt.Errorf("server already running")
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	if err := conn.Export(introspectable(), DBusPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("notification service exported", "bus_name", DBusBusName)
	return nil
}

// Stop releases the bus name. The connection is shared and stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		return fmt.Errorf("failed to release %s: %w", DBusBusName, err)
	}
	return nil
}

// GetCapabilities implements the GetCapabilities bus method.
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements the GetServerInformation bus method.
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	info := s.serverInfo
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify implements the Notify bus method. A notification without
// replaces_id takes over the live id of an earlier one from the same app
// with the same stack tag.
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	n := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}
	id := s.assignID(n)

	s.logger.Debug("notification received", "app", appName, "id", id, "replaces", n.ReplacesID)
	if s.notifyHandler != nil {
		s.notifyHandler(n, id)
	}
	return id, nil
}

// assignID picks the id for n, resolving its stack tag into ReplacesID, and
// marks it active.
func (s *NotificationServer) assignID(n *DBusNotification) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stackKey(n.AppName, n.StackTag())
	if n.ReplacesID == 0 && key != "" {
		if prev, ok := s.stackTags[key]; ok && s.activeIDs[prev] {
			n.ReplacesID = prev
		}
	}

	id := n.ReplacesID
	if id == 0 {
		id = s.nextID.Add(1)
	}
	s.activeIDs[id] = true
	if key != "" {
		s.stackTags[key] = id
	}
	return id
}

// stackKey scopes a stack tag to its app. Empty when there is no tag.
func stackKey(app, tag string) string {
	if tag == "" {
		return ""
	}
	return app + "\x00" + tag
}

// CloseNotification implements the CloseNotification bus method. Unknown
// ids are ignored.
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	if !s.MarkClosed(id) {
		return nil
	}
	if s.closeHandler != nil {
		s.closeHandler(id)
	}
	if err := s.EmitNotificationClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to emit NotificationClosed", "id", id, "error", err)
	}
	return nil
}

// MarkClosed removes id from active tracking and reports whether it was
// active.
func (s *NotificationServer) MarkClosed(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exists := s.activeIDs[id]
	delete(s.activeIDs, id)
	return exists
}

// IsActive returns true if the notification ID is currently active.
func (s *NotificationServer) IsActive(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIDs[id]
}

// busMethods lists the interface methods as name followed by "dir name:type"
// arguments.
var busMethods = [][]string{
	{"GetCapabilities", "out capabilities:as"},
	{"GetServerInformation", "out name:s", "out vendor:s", "out version:s", "out spec_version:s"},
	{"Notify",
		"in app_name:s", "in replaces_id:u", "in app_icon:s", "in summary:s", "in body:s",
		"in actions:as", "in hints:a{sv}", "in expire_timeout:i", "out id:u"},
	{"CloseNotification", "in id:u"},
}

var busSignals = [][]string{
	{"NotificationClosed", "id:u", "reason:u"},
	{"ActionInvoked", "id:u", "action_key:s"},
}

// introspectable builds the introspection data for DBusPath.
func introspectable() introspect.Introspectable {
	iface := introspect.Interface{Name: DBusInterface}
	for _, m := range busMethods {
		method := introspect.Method{Name: m[0]}
		for _, a := range m[1:] {
			dir, arg, _ := strings.Cut(a, " ")
			method.Args = append(method.Args, parseArg(arg, dir))
		}
		iface.Methods = append(iface.Methods, method)
	}
	for _, sig := range busSignals {
		signal := introspect.Signal{Name: sig[0]}
		for _, a := range sig[1:] {
			signal.Args = append(signal.Args, parseArg(a, ""))
		}
		iface.Signals = append(iface.Signals, signal)
	}
	return introspect.NewIntrospectable(&introspect.Node{
		Name:       DBusPath,
		Interfaces: []introspect.Interface{introspect.IntrospectData, iface},
	})
}

func parseArg(spec, dir string) introspect.Arg {
	name, typ, _ := strings.Cut(spec, ":")
	return introspect.Arg{Name: name, Type: typ, Direction: dir}
}
