package sanitize

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Input trims and HTML-escapes free text before it reaches logs or storage.
func Input(s string) string {
	s = strings.TrimSpace(s)
	return html.EscapeString(s)
}

// ValidEmail reports whether s has a plausible email shape. This is a cheap
// client-side gate, not RFC 5322 validation.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Suspicious reports whether s contains script-injection markers.
func Suspicious(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range []string{"<script", "javascript:", "onerror=", "onload=", "data:text/html"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// SecureOrigin reports whether origin is a secure execution context:
// an https URL, or a loopback host allowed for development.
func SecureOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme == "https" {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
