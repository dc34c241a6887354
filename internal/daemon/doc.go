// Package daemon hosts the message center inside msgcenterd. A single
// event loop owns the MessageCenter; the D-Bus bridge, the control
// interface, the popup presenter, config reloads and timers all reach it
// by posting onto that loop.
package daemon
