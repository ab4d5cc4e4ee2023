package cmd

import (
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/monitor"
)

var serveReportsCmd = &cobra.Command{
	Use:   "serve-reports",
	Short: "Run the security report collector (CSP violation reports)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := echo.New()
		e.HideBanner = true

		api := monitor.NewReportAPI(audit.NewStdoutRecorder())
		api.RegisterRoutes(e)

		appLogger.Info(cmd.Context(), "report collector listening",
			map[string]interface{}{"addr": cfg.ReportListenAddr})
		return e.Start(cfg.ReportListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveReportsCmd)
}
