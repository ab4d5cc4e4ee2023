package monitor

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/domain"
)

func newReportServer() (*echo.Echo, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	e := echo.New()
	NewReportAPI(audit.NewRecorder(buf)).RegisterRoutes(e)
	return e, buf
}

func TestCSPReportRecorded(t *testing.T) {
	e, buf := newReportServer()

	payload := `{"csp-report":{"document-uri":"https://admin.sahatu.example/doctors",` +
		`"violated-directive":"script-src 'self'","blocked-uri":"https://cdn.evil.example/x.js"}}`
	req := httptest.NewRequest(http.MethodPost, "/csp-report", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, buf.String(), string(domain.EventPolicyViolation))
	assert.Contains(t, buf.String(), "cdn.evil.example")
}

func TestMalformedReportAcknowledgedSilently(t *testing.T) {
	e, buf := newReportServer()

	req := httptest.NewRequest(http.MethodPost, "/csp-report", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, buf.String())
}

func TestSecurityHeaders(t *testing.T) {
	e, _ := newReportServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=")
}
