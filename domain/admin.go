package domain

// AdminProfile is the administrator identity attached to an authenticated
// session. It is an immutable snapshot: the session manager replaces it
// wholesale on each fetch and never mutates individual fields.
type AdminProfile struct {
	ID          string   `json:"id"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phone_number"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// SessionState is the externally visible state of the session manager.
type SessionState string

const (
	// SessionInitializing is the state before the initial resume check has
	// resolved. It is entered exactly once, at process start.
	SessionInitializing    SessionState = "INITIALIZING"
	SessionAuthenticated   SessionState = "AUTHENTICATED"
	SessionUnauthenticated SessionState = "UNAUTHENTICATED"
)

// SessionSnapshot is a point-in-time copy of the session, safe to hand to
// callers without exposing the manager's internals.
type SessionSnapshot struct {
	Admin                *AdminProfile `json:"admin,omitempty"`
	State                SessionState  `json:"state"`
	Loading              bool          `json:"loading"`
	TimeRemainingSeconds int64         `json:"session_time_remaining_seconds"`
}

// Authenticated reports whether the snapshot carries a live session.
func (s SessionSnapshot) Authenticated() bool {
	return s.State == SessionAuthenticated && s.Admin != nil
}
