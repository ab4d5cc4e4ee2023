// Package monitor observes ambient security signals: policy violations,
// uncaught errors, unhandled rejections, and cross-origin messages. It is
// purely observational and never mutates session state.
package monitor

import (
	"context"
	"sync"

	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/domain"
	"github.com/BKH516/sahatu-admin-console/internal/sanitize"
	"github.com/BKH516/sahatu-admin-console/log"
)

// Monitor subscribes to an Environment and forwards sanitized event details
// to the security audit log.
type Monitor struct {
	env     domain.Environment
	auditor *audit.Recorder
	logger  log.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    sync.WaitGroup
	started bool
}

// New creates a Monitor for the given environment. The recorder may be nil,
// in which case observations are logged but not written to the audit trail.
func New(env domain.Environment, auditor *audit.Recorder, logger log.Logger) *Monitor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Monitor{env: env, auditor: auditor, logger: logger}
}

func (m *Monitor) record(event domain.SecurityEvent) {
	if m.auditor != nil {
		m.auditor.Record(event)
		return
	}
	m.logger.Warn(context.Background(), "security observation dropped, no recorder configured",
		map[string]interface{}{"event": string(event.Type), "origin": event.Origin})
}

// Start begins consuming environment events. An insecure execution context is
// detected and logged once here.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	if origin := m.env.Origin(); !sanitize.SecureOrigin(origin) {
		m.record(domain.SecurityEvent{
			Type:    domain.EventInsecureContext,
			Origin:  origin,
			Details: "application is not running in a secure context",
		})
	}

	m.done.Add(1)
	go m.loop(ctx, stop)
}

// Stop ends event consumption.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	close(m.stop)
	m.mu.Unlock()
	m.done.Wait()
}

func (m *Monitor) loop(ctx context.Context, stop <-chan struct{}) {
	defer m.done.Done()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-m.env.Events():
			if !ok {
				return
			}
			m.handle(event)
		}
	}
}

func (m *Monitor) handle(event domain.EnvironmentEvent) {
	switch event.Type {
	case domain.EnvCrossOriginMessage:
		// Messages from any origin other than our own are logged and
		// dropped; their payload is never processed.
		if event.Origin != m.env.Origin() {
			m.record(domain.SecurityEvent{
				Type:    domain.EventRejectedMessage,
				Origin:  event.Origin,
				Details: event.Details,
			})
		}
	case domain.EnvPolicyViolation:
		m.record(domain.SecurityEvent{
			Type:    domain.EventPolicyViolation,
			Origin:  event.Origin,
			Details: event.Details,
		})
	case domain.EnvUncaughtError, domain.EnvUnhandledRejection:
		m.record(domain.SecurityEvent{
			Type:    domain.EventUncaughtError,
			Origin:  event.Origin,
			Details: event.Details,
		})
	}
}
