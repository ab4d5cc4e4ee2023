// Package audit records the security event trail for the admin console:
// login outcomes, session lifecycle transitions, and observations forwarded
// by the ambient security monitor.
package audit

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BKH516/sahatu-admin-console/domain"
	"github.com/BKH516/sahatu-admin-console/internal/sanitize"
)

// Recorder writes security events as structured JSON entries.
type Recorder struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder writing to w. Pass os.Stdout for the
// default audit destination.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		now:    time.Now,
	}
}

// NewStdoutRecorder creates a Recorder writing to standard output.
func NewStdoutRecorder() *Recorder {
	return NewRecorder(os.Stdout)
}

// Record writes a single security event. Free-text fields are sanitized so a
// hostile payload cannot smuggle markup into log consumers. Missing ID and
// timestamp are filled in.
func (r *Recorder) Record(event domain.SecurityEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}
	event.Details = sanitize.Input(event.Details)
	event.Origin = sanitize.Input(event.Origin)
	event.Subject = sanitize.Input(event.Subject)

	entry := r.logger.Log().
		Str("audit_id", event.ID).
		Str("event", string(event.Type)).
		Time("at", event.Timestamp)
	if event.Subject != "" {
		entry = entry.Str("subject", event.Subject)
	}
	if event.Origin != "" {
		entry = entry.Str("origin", event.Origin)
	}
	if event.Error != "" {
		entry = entry.Str("error", event.Error)
	}
	entry.Msg(event.Details)
}

// Event is a convenience for recording a typed event with details only.
func (r *Recorder) Event(t domain.SecurityEventType, details string) {
	r.Record(domain.SecurityEvent{Type: t, Details: details})
}
