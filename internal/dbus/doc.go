// Package dbus connects the message center to the session bus. It serves
// org.freedesktop.Notifications so applications can post notifications,
// maps Notify hints onto message center notifications, reports clicks and
// closes back to clients, and exposes a control interface used by the
// msgcenter CLI.
package dbus
