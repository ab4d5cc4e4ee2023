package session

import (
	"context"
	"time"

	"github.com/BKH516/sahatu-admin-console/domain"
)

// armTimersLocked starts the validity-check and token-refresh loops for the
// current authenticated session. Caller holds the lock. Idempotent: armed
// timers are reused until a logout disarms them.
func (m *Manager) armTimersLocked() {
	if m.timerStop != nil {
		return
	}
	m.timerStop = make(chan struct{})
	m.timerDone.Add(2)
	go m.validityLoop(m.timerStop)
	go m.refreshLoop(m.timerStop)
}

// disarmTimersLocked cancels both periodic tasks. Caller holds the lock.
func (m *Manager) disarmTimersLocked() {
	if m.timerStop == nil {
		return
	}
	close(m.timerStop)
	m.timerStop = nil
}

func (m *Manager) validityLoop(stop <-chan struct{}) {
	defer m.timerDone.Done()
	ticker := time.NewTicker(m.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.checkValidity(context.Background())
		}
	}
}

func (m *Manager) refreshLoop(stop <-chan struct{}) {
	defer m.timerDone.Done()
	ticker := time.NewTicker(m.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.maybeRefresh(context.Background())
		}
	}
}

// activityLoop forwards environment interaction events into the idle clock
// for the manager's whole lifetime.
func (m *Manager) activityLoop(env domain.Environment) {
	defer m.lifetimeDone.Done()
	for {
		select {
		case <-m.lifetimeStopChan():
			return
		case kind, ok := <-env.Activity():
			if !ok {
				return
			}
			m.RecordActivity(context.Background(), kind)
		}
	}
}

func (m *Manager) lifetimeStopChan() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lifetimeStop == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return m.lifetimeStop
}

// checkValidity compares now against last activity plus the idle timeout and
// triggers auto-logout when exceeded. Within the warning window it fires the
// expiry warning callback once per idle period.
func (m *Manager) checkValidity(ctx context.Context) {
	m.mu.Lock()
	if m.state != domain.SessionAuthenticated {
		m.mu.Unlock()
		return
	}
	remaining := m.remainingLocked()
	if remaining <= 0 {
		m.mu.Unlock()
		m.recordEvent(domain.SecurityEvent{Type: domain.EventSessionExpired, Details: "idle timeout exceeded"})
		m.logout(ctx, true)
		return
	}
	var warn func(time.Duration)
	if remaining <= m.opts.ExpiryWarning && !m.warned {
		m.warned = true
		warn = m.opts.OnExpiryWarning
	}
	m.mu.Unlock()

	if warn != nil {
		warn(remaining)
	}
}

// maybeRefresh refreshes the bearer token when its remaining lifetime is
// below the low-water mark but still positive. An already-expired token is
// not refreshed; it goes through normal expiry handling instead.
func (m *Manager) maybeRefresh(ctx context.Context) {
	m.mu.Lock()
	if m.state != domain.SessionAuthenticated || m.accessToken == "" {
		m.mu.Unlock()
		return
	}
	accessToken := m.accessToken
	epoch := m.epoch
	m.mu.Unlock()

	if m.inspector.IsExpired(accessToken) {
		m.recordEvent(domain.SecurityEvent{Type: domain.EventSessionExpired, Details: "bearer token expired"})
		m.logout(ctx, true)
		return
	}

	remaining := m.inspector.TimeRemaining(accessToken)
	if remaining <= 0 || remaining >= m.opts.RefreshThreshold {
		return
	}

	refreshed, err := m.api.RefreshToken(ctx, accessToken)
	if err != nil || refreshed == "" {
		// Logged and retried on the next interval; never interrupts the UI.
		if err != nil {
			m.opts.Logger.Warn(ctx, "token refresh failed", map[string]interface{}{"error": err.Error()})
		}
		m.recordEvent(domain.SecurityEvent{Type: domain.EventTokenRefreshFailed})
		return
	}

	if err := m.secure.SetItem(ctx, accessTokenItem, refreshed); err != nil {
		m.opts.Logger.Warn(ctx, "failed to persist refreshed token", map[string]interface{}{"error": err.Error()})
		return
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state != domain.SessionAuthenticated {
		// The session was reset while the refresh was in flight. Undo the
		// credential we just stored so logout's terminal state holds.
		m.mu.Unlock()
		m.rollbackToken(ctx)
		return
	}
	m.accessToken = refreshed
	m.mu.Unlock()
	m.recordEvent(domain.SecurityEvent{Type: domain.EventTokenRefreshed})
}
