package domain

import "time"

// SecurityEventType classifies events recorded by the audit log.
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventLoginRateLimited   SecurityEventType = "LOGIN_RATE_LIMITED"
	EventLogout             SecurityEventType = "LOGOUT"
	EventAutoLogout         SecurityEventType = "AUTO_LOGOUT"
	EventSessionResumed     SecurityEventType = "SESSION_RESUMED"
	EventSessionExpired     SecurityEventType = "SESSION_EXPIRED"
	EventTokenRefreshed     SecurityEventType = "TOKEN_REFRESHED"
	EventTokenRefreshFailed SecurityEventType = "TOKEN_REFRESH_FAILED"
	EventTokenWithoutExpiry SecurityEventType = "TOKEN_WITHOUT_EXPIRY"
	EventPolicyViolation    SecurityEventType = "POLICY_VIOLATION"
	EventUncaughtError      SecurityEventType = "UNCAUGHT_ERROR"
	EventRejectedMessage    SecurityEventType = "REJECTED_CROSS_ORIGIN_MESSAGE"
	EventInsecureContext    SecurityEventType = "INSECURE_CONTEXT"
)

// SecurityEvent is a single entry in the security audit trail.
type SecurityEvent struct {
	ID        string            `json:"id"`
	Type      SecurityEventType `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Subject   string            `json:"subject,omitempty"` // actor, usually an email or admin ID
	Origin    string            `json:"origin,omitempty"`  // for message/violation events
	Details   string            `json:"details,omitempty"`
	Error     string            `json:"error,omitempty"`
}
