// Package session owns the administrator session lifecycle: login, resume,
// activity-based idle timeout, proactive token refresh, and logout. The
// Manager is an explicitly constructed, dependency-injected service; it is
// the single owner of the session fields and exposes only controlled methods.
package session

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BKH516/sahatu-admin-console/apiclient"
	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/domain"
	"github.com/BKH516/sahatu-admin-console/internal/crypto"
	"github.com/BKH516/sahatu-admin-console/internal/sanitize"
	"github.com/BKH516/sahatu-admin-console/log"
	"github.com/BKH516/sahatu-admin-console/ratelimit"
	"github.com/BKH516/sahatu-admin-console/securestore"
	"github.com/BKH516/sahatu-admin-console/token"
)

// Durable keys outside the encrypted namespace. Neither value is secret.
const (
	accessTokenItem   = "access_token"              // inside the encrypted namespace
	activityMarkerKey = "sahatu.meta.last_activity" // epoch millis, plaintext
	csrfTokenKey      = "sahatu.meta.csrf_token"    // hex, plaintext
)

// Defaults for Options fields left zero.
const (
	DefaultIdleTimeout      = 30 * time.Minute
	DefaultCheckInterval    = 60 * time.Second
	DefaultRefreshInterval  = 5 * time.Minute
	DefaultRefreshThreshold = 600 * time.Second
	DefaultExpiryWarning    = 5 * time.Minute
	DefaultLoginRateLimit   = 5
	DefaultLoginRateWindow  = 5 * time.Minute
)

// Options configures a Manager.
type Options struct {
	IdleTimeout      time.Duration
	CheckInterval    time.Duration
	RefreshInterval  time.Duration
	RefreshThreshold time.Duration
	ExpiryWarning    time.Duration

	// LoginLimiter guards the login endpoint. A default 5-per-5-minutes
	// limiter is created when nil.
	LoginLimiter *ratelimit.Limiter

	Logger      log.Logger
	Auditor     *audit.Recorder
	Environment domain.Environment

	// OnAutoLogout is invoked after an automatic logout so the interface
	// layer can redirect to the login entry point.
	OnAutoLogout func()
	// OnExpiryWarning fires once per idle period when the session is within
	// ExpiryWarning of timing out. StayLoggedIn cancels the impending logout.
	OnExpiryWarning func(remaining time.Duration)
}

func (o *Options) applyDefaults() {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultCheckInterval
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	if o.RefreshThreshold <= 0 {
		o.RefreshThreshold = DefaultRefreshThreshold
	}
	if o.ExpiryWarning <= 0 {
		o.ExpiryWarning = DefaultExpiryWarning
	}
	if o.LoginLimiter == nil {
		o.LoginLimiter = ratelimit.New(DefaultLoginRateLimit, DefaultLoginRateWindow)
	}
	if o.Logger == nil {
		o.Logger = log.NewNop()
	}
}

// Manager drives the session state machine. All fields are guarded by mu;
// network calls are made outside the lock and their results are re-validated
// against the session epoch before being applied, so a response landing after
// a logout finds an already-reset session and becomes inert.
type Manager struct {
	api       apiclient.API
	secure    *securestore.Secure
	store     securestore.Store
	inspector *token.Inspector
	opts      Options

	mu           sync.Mutex
	state        domain.SessionState
	loading      bool
	admin        *domain.AdminProfile
	accessToken  string
	lastActivity time.Time
	csrf         string
	epoch        uint64
	warned       bool
	timerStop    chan struct{}
	timerDone    sync.WaitGroup

	lifetimeStop chan struct{}
	lifetimeDone sync.WaitGroup

	now func() time.Time
}

// NewManager wires the session service. The API client, secure storage
// envelope, plain durable store and token inspector are required; everything
// else comes from Options with defaults.
func NewManager(api apiclient.API, secure *securestore.Secure, store securestore.Store, inspector *token.Inspector, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		api:       api,
		secure:    secure,
		store:     store,
		inspector: inspector,
		opts:      opts,
		state:     domain.SessionInitializing,
		loading:   true,
		now:       time.Now,
	}
}

// Start resolves the initial "am I still logged in" check exactly once and
// subscribes to environment activity. It must be called before Login.
func (m *Manager) Start(ctx context.Context) {
	m.ensureCSRF(ctx)
	m.resume(ctx)

	m.mu.Lock()
	if m.lifetimeStop == nil {
		m.lifetimeStop = make(chan struct{})
		if env := m.opts.Environment; env != nil {
			m.lifetimeDone.Add(1)
			go m.activityLoop(env)
		}
	}
	m.mu.Unlock()
}

// Stop unsubscribes from the environment and cancels the periodic tasks.
// It does not log out; stored state survives for a later resume.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.disarmTimersLocked()
	stop := m.lifetimeStop
	m.lifetimeStop = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	m.lifetimeDone.Wait()
	m.timerDone.Wait()
}

// resume attempts to revive a stored session. Any failure discards the
// stored token and lands in Unauthenticated. A session reset (logout or a
// completed login) racing the backend check wins; the stale response is
// dropped.
func (m *Manager) resume(ctx context.Context) {
	defer m.finishLoading()

	stored, ok := m.secure.GetItem(ctx, accessTokenItem)
	if !ok || stored == "" {
		m.setUnauthenticated()
		return
	}

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	profile, err := m.api.Me(ctx, stored)

	m.mu.Lock()
	if m.epoch != epoch {
		// The session was reset while the resume check was in flight; the
		// response no longer applies.
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.state = domain.SessionUnauthenticated
		m.admin = nil
		m.accessToken = ""
		m.mu.Unlock()
		m.opts.Logger.Info(ctx, "stored session rejected by backend, discarding token")
		if err := m.secure.RemoveItem(ctx, accessTokenItem); err != nil {
			m.opts.Logger.Warn(ctx, "failed to remove stale token", map[string]interface{}{"error": err.Error()})
		}
		return
	}

	m.state = domain.SessionAuthenticated
	m.admin = profile
	m.accessToken = stored
	m.lastActivity = m.loadActivityMarker(ctx)
	m.warned = false
	m.armTimersLocked()
	m.mu.Unlock()

	m.recordEvent(domain.SecurityEvent{Type: domain.EventSessionResumed, Subject: profile.Email})
	m.checkValidity(ctx)
}

func (m *Manager) finishLoading() {
	m.mu.Lock()
	m.loading = false
	m.mu.Unlock()
}

func (m *Manager) setUnauthenticated() {
	m.mu.Lock()
	m.state = domain.SessionUnauthenticated
	m.admin = nil
	m.accessToken = ""
	m.mu.Unlock()
}

// Login authenticates the administrator. Email validation and the login rate
// limiter both run before any network call. Token persistence is confirmed by
// read-back before the profile fetch, and a profile failure rolls back the
// stored token so the session is never left with a token but no profile.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if !sanitize.ValidEmail(email) {
		m.recordEvent(domain.SecurityEvent{Type: domain.EventLoginFailure, Subject: email, Details: "malformed email"})
		return ErrInvalidEmail
	}
	if !m.opts.LoginLimiter.Allow(email) {
		m.recordEvent(domain.SecurityEvent{Type: domain.EventLoginRateLimited, Subject: email})
		return ErrRateLimited
	}

	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	accessToken, err := m.api.Login(ctx, email, password)
	if err != nil || accessToken == "" {
		if err != nil {
			m.opts.Logger.Warn(ctx, "login rejected", map[string]interface{}{"error": err.Error()})
		}
		m.recordEvent(domain.SecurityEvent{Type: domain.EventLoginFailure, Subject: email})
		return ErrAuthFailed
	}

	if err := m.secure.SetItem(ctx, accessTokenItem, accessToken); err != nil {
		m.opts.Logger.Error(ctx, "token persistence failed", err)
		return ErrStorageReadback
	}
	// Read back to confirm the write actually landed; a silent storage
	// failure here would strand the profile on an unpersisted token.
	if stored, ok := m.secure.GetItem(ctx, accessTokenItem); !ok || stored != accessToken {
		m.rollbackToken(ctx)
		return ErrStorageReadback
	}

	profile, err := m.api.Me(ctx, accessToken)
	if err != nil {
		m.opts.Logger.Warn(ctx, "profile fetch failed after login", map[string]interface{}{"error": err.Error()})
		m.rollbackToken(ctx)
		m.recordEvent(domain.SecurityEvent{Type: domain.EventLoginFailure, Subject: email, Details: "profile unavailable"})
		return ErrProfileFetch
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// The session was reset while the login was in flight. Leave the
		// reset state untouched and undo the credential we just stored.
		m.mu.Unlock()
		m.rollbackToken(ctx)
		return ErrAuthFailed
	}
	m.state = domain.SessionAuthenticated
	m.admin = profile
	m.accessToken = accessToken
	m.lastActivity = m.now()
	m.warned = false
	m.armTimersLocked()
	m.mu.Unlock()

	m.opts.LoginLimiter.Reset(email)
	m.persistActivityMarker(ctx)
	m.recordEvent(domain.SecurityEvent{Type: domain.EventLoginSuccess, Subject: email})
	return nil
}

func (m *Manager) rollbackToken(ctx context.Context) {
	if err := m.secure.RemoveItem(ctx, accessTokenItem); err != nil {
		m.opts.Logger.Warn(ctx, "token rollback failed", map[string]interface{}{"error": err.Error()})
	}
}

// Logout terminates the session. The backend notification is best-effort;
// client-side state always clears. Safe to call repeatedly or concurrently.
func (m *Manager) Logout(ctx context.Context) {
	m.logout(ctx, false)
}

func (m *Manager) logout(ctx context.Context, auto bool) {
	m.mu.Lock()
	accessToken := m.accessToken
	wasAuthenticated := m.state == domain.SessionAuthenticated
	subject := ""
	if m.admin != nil {
		subject = m.admin.Email
	}
	m.epoch++
	m.state = domain.SessionUnauthenticated
	m.admin = nil
	m.accessToken = ""
	m.warned = false
	m.disarmTimersLocked()
	m.mu.Unlock()

	if accessToken != "" {
		if err := m.api.Logout(ctx, accessToken); err != nil {
			// Network failure here must not block the local teardown.
			m.opts.Logger.Warn(ctx, "backend logout notification failed", map[string]interface{}{"error": err.Error()})
		}
	}

	if err := m.secure.ClearNamespace(ctx); err != nil {
		m.opts.Logger.Warn(ctx, "failed to clear secure namespace", map[string]interface{}{"error": err.Error()})
	}
	m.secure.ClearSessionKey()
	if err := m.store.Delete(ctx, activityMarkerKey); err != nil {
		m.opts.Logger.Warn(ctx, "failed to clear activity marker", map[string]interface{}{"error": err.Error()})
	}

	if wasAuthenticated {
		eventType := domain.EventLogout
		if auto {
			eventType = domain.EventAutoLogout
		}
		m.recordEvent(domain.SecurityEvent{Type: eventType, Subject: subject})
	}
	if auto && m.opts.OnAutoLogout != nil {
		m.opts.OnAutoLogout()
	}
}

// Snapshot returns a point-in-time copy of the session state.
func (m *Manager) Snapshot() domain.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := domain.SessionSnapshot{
		State:   m.state,
		Loading: m.loading,
	}
	if m.admin != nil {
		adminCopy := *m.admin
		snap.Admin = &adminCopy
	}
	if m.state == domain.SessionAuthenticated {
		snap.TimeRemainingSeconds = int64(m.remainingLocked() / time.Second)
	}
	return snap
}

// SessionTimeRemaining returns how long until idle auto-logout.
func (m *Manager) SessionTimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.SessionAuthenticated {
		return 0
	}
	return m.remainingLocked()
}

func (m *Manager) remainingLocked() time.Duration {
	remaining := m.opts.IdleTimeout - m.now().Sub(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordActivity updates the idle clock and immediately re-runs the validity
// check, so resuming activity right at the deadline does not log the user out.
func (m *Manager) RecordActivity(ctx context.Context, kind domain.ActivityKind) {
	m.mu.Lock()
	if m.state != domain.SessionAuthenticated {
		m.mu.Unlock()
		return
	}
	m.lastActivity = m.now()
	m.warned = false
	m.mu.Unlock()

	m.persistActivityMarker(ctx)
	m.checkValidity(ctx)
}

// StayLoggedIn is the affirmative action on the timeout warning dialog.
func (m *Manager) StayLoggedIn(ctx context.Context) {
	m.RecordActivity(ctx, domain.ActivityClick)
}

// CSRFToken returns the per-session CSRF token for outgoing-request headers.
func (m *Manager) CSRFToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.csrf
}

// ensureCSRF loads the persisted CSRF token or mints a new one. The token is
// random per browsing session and deliberately stored in plaintext: it proves
// request provenance, it is not a secret credential.
func (m *Manager) ensureCSRF(ctx context.Context) {
	if existing, err := m.store.Get(ctx, csrfTokenKey); err == nil && len(existing) == 2*crypto.CSRFTokenSize {
		m.mu.Lock()
		m.csrf = string(existing)
		m.mu.Unlock()
		return
	}

	minted, err := crypto.NewCSRFToken()
	if err != nil {
		m.opts.Logger.Error(ctx, "failed to mint CSRF token", err)
		return
	}
	if err := m.store.Set(ctx, csrfTokenKey, []byte(minted)); err != nil {
		m.opts.Logger.Warn(ctx, "failed to persist CSRF token", map[string]interface{}{"error": err.Error()})
	}
	m.mu.Lock()
	m.csrf = minted
	m.mu.Unlock()
}

// loadActivityMarker reads the persisted last-activity timestamp so a reload
// does not spuriously reset the idle clock. Caller holds the lock.
func (m *Manager) loadActivityMarker(ctx context.Context) time.Time {
	raw, err := m.store.Get(ctx, activityMarkerKey)
	if err != nil {
		return m.now()
	}
	millis, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return m.now()
	}
	return time.UnixMilli(millis)
}

func (m *Manager) persistActivityMarker(ctx context.Context) {
	m.mu.Lock()
	millis := m.lastActivity.UnixMilli()
	m.mu.Unlock()
	value := strconv.FormatInt(millis, 10)
	if err := m.store.Set(ctx, activityMarkerKey, []byte(value)); err != nil {
		m.opts.Logger.Warn(ctx, "failed to persist activity marker", map[string]interface{}{"error": err.Error()})
	}
}

func (m *Manager) recordEvent(event domain.SecurityEvent) {
	if m.opts.Auditor != nil {
		m.opts.Auditor.Record(event)
	}
}
