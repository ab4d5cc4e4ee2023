package domain

// ActivityKind identifies a user interaction observed by the host
// environment. Any of them counts as activity for the idle clock.
type ActivityKind string

const (
	ActivityPointerDown ActivityKind = "pointer_down"
	ActivityKeyDown     ActivityKind = "key_down"
	ActivityScroll      ActivityKind = "scroll"
	ActivityTouchStart  ActivityKind = "touch_start"
	ActivityClick       ActivityKind = "click"
)

// EnvironmentEventType classifies ambient events delivered by the host
// environment to the security monitor.
type EnvironmentEventType string

const (
	EnvPolicyViolation    EnvironmentEventType = "policy_violation"
	EnvUncaughtError      EnvironmentEventType = "uncaught_error"
	EnvUnhandledRejection EnvironmentEventType = "unhandled_rejection"
	EnvCrossOriginMessage EnvironmentEventType = "cross_origin_message"
)

// EnvironmentEvent is a single ambient observation.
type EnvironmentEvent struct {
	Type    EnvironmentEventType
	Origin  string // sender origin for messages, document origin otherwise
	Details string
}

// Environment is the injected capability standing in for the host's global
// listeners. The session manager consumes Activity, the security monitor
// consumes Events; both subscribe at Start and stop reading at Stop. A fake
// implementation makes the timing behavior deterministic under test.
type Environment interface {
	// Origin returns the application's own origin, used to reject
	// cross-origin messages from anywhere else.
	Origin() string
	Activity() <-chan ActivityKind
	Events() <-chan EnvironmentEvent
}
