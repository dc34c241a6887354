package blocker

import (
	"log/slog"

	"github.com/jmylchreest/msgcenter/internal/model"
)

// ScreenLock suppresses popups while the session is locked. The archive is
// unaffected. SYSTEM priority popups pass when SystemBypass is set.
type ScreenLock struct {
	Base

	logger       *slog.Logger
	locked       bool
	systemBypass bool
	query        func() (bool, error)
}

// NewScreenLock creates a ScreenLock blocker. query, if non-nil, is polled
// by CheckState to pick up lock changes that arrived without a signal.
func NewScreenLock(query func() (bool, error), systemBypass bool, logger *slog.Logger) *ScreenLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreenLock{
		logger:       logger,
		systemBypass: systemBypass,
		query:        query,
	}
}

// Locked reports the last known lock state.
func (s *ScreenLock) Locked() bool { return s.locked }

// SetLocked records a lock change and notifies observers if it differs.
func (s *ScreenLock) SetLocked(locked bool) {
	if s.locked == locked {
		return
	}
	s.locked = locked
	s.logger.Debug("screen lock state changed", "locked", locked)
	s.NotifyBlockingStateChanged(s)
}

// SetSystemBypass toggles whether SYSTEM priority popups pass while locked.
func (s *ScreenLock) SetSystemBypass(bypass bool) {
	if s.systemBypass == bypass {
		return
	}
	s.systemBypass = bypass
	if s.locked {
		s.NotifyBlockingStateChanged(s)
	}
}

// CheckState polls the lock state.
func (s *ScreenLock) CheckState() {
	if s.query == nil {
		return
	}
	locked, err := s.query()
	if err != nil {
		s.logger.Debug("failed to query screen lock state", "error", err)
		return
	}
	s.SetLocked(locked)
}

// ShouldShowNotificationAsPopup blocks popups while locked.
func (s *ScreenLock) ShouldShowNotificationAsPopup(n *model.Notification) bool {
	if !s.locked {
		return true
	}
	return s.systemBypass && n.Priority == model.PrioritySystem
}
