package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/domain"
)

// cspReport is the envelope browsers POST to the report-uri endpoint.
type cspReport struct {
	Report struct {
		DocumentURI        string `json:"document-uri"`
		Referrer           string `json:"referrer"`
		ViolatedDirective  string `json:"violated-directive"`
		EffectiveDirective string `json:"effective-directive"`
		BlockedURI         string `json:"blocked-uri"`
		SourceFile         string `json:"source-file"`
		LineNumber         int    `json:"line-number"`
	} `json:"csp-report"`
}

// ReportAPI receives browser security reports and feeds them into the audit
// trail. It is mounted on its own listener, separate from the backend API.
type ReportAPI struct {
	auditor *audit.Recorder
}

// NewReportAPI creates the report collector.
func NewReportAPI(auditor *audit.Recorder) *ReportAPI {
	return &ReportAPI{auditor: auditor}
}

// RegisterRoutes registers the collector routes.
func (ra *ReportAPI) RegisterRoutes(e *echo.Echo) {
	e.Use(SecurityHeadersMiddleware())
	e.POST("/csp-report", ra.CSPReportHandler)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
}

// CSPReportHandler records a content-security-policy violation report.
// Malformed payloads are acknowledged without recording; the endpoint must
// never give a probing client an error oracle.
func (ra *ReportAPI) CSPReportHandler(c echo.Context) error {
	// Browsers send these with Content-Type application/csp-report, which
	// echo's binder refuses, so decode the body directly.
	var report cspReport
	if err := json.NewDecoder(c.Request().Body).Decode(&report); err != nil {
		return c.NoContent(http.StatusNoContent)
	}

	details := report.Report.ViolatedDirective
	if report.Report.BlockedURI != "" {
		details += " blocked=" + report.Report.BlockedURI
	}
	ra.auditor.Record(domain.SecurityEvent{
		Type:    domain.EventPolicyViolation,
		Origin:  report.Report.DocumentURI,
		Details: details,
	})

	return c.NoContent(http.StatusNoContent)
}

// SecurityHeadersMiddleware adds the console's security headers: a restrictive
// CSP with a report-uri, clickjacking denial, HSTS and nosniff.
func SecurityHeadersMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy",
				"default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self'; "+
					"connect-src 'self'; frame-ancestors 'none'; form-action 'self'; base-uri 'self'; "+
					"report-uri /csp-report")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			return next(c)
		}
	}
}
