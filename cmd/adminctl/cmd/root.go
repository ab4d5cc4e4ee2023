package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/BKH516/sahatu-admin-console/apiclient"
	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/config"
	"github.com/BKH516/sahatu-admin-console/log"
	"github.com/BKH516/sahatu-admin-console/ratelimit"
	"github.com/BKH516/sahatu-admin-console/securestore"
	"github.com/BKH516/sahatu-admin-console/session"
	"github.com/BKH516/sahatu-admin-console/token"
	"github.com/BKH516/sahatu-admin-console/tracing"
)

var (
	cfg            *config.Config
	appLogger      log.Logger
	tracerProvider *sdktrace.TracerProvider
)

var rootCmd = &cobra.Command{
	Use:   "adminctl",
	Short: "adminctl manages an administrator session against the Sahatu backend",
	Long: `adminctl drives the admin console's session and security subsystem from
the command line. Stored tokens are encrypted under a key held only in
process memory, so a session never survives into a later invocation:
whoami and logout in a fresh process will report "not logged in".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = zerolog.InfoLevel
		}
		appLogger = log.NewZerologAdapter(level, cfg.LogPretty)

		if cfg.TracingEnabled {
			tracerProvider, err = tracing.InitTracerProvider("adminctl")
			if err != nil {
				return fmt.Errorf("failed to initialize tracing: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tracerProvider != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "failed to shut down tracer provider:", err)
			}
		}
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildSession wires the session manager from configuration. The returned
// cleanup closes the durable store and the inspector's cache.
func buildSession() (*session.Manager, func(), error) {
	var store securestore.Store
	if cfg.StoreRedisAddr != "" {
		store = securestore.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.StoreRedisAddr}), "sahatu-admin")
	} else {
		bolt, err := securestore.NewBoltStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		store = bolt
	}

	policy := securestore.FallbackPlaintext
	if cfg.StoreRefuseFallback {
		policy = securestore.FallbackRefuse
	}
	secure := securestore.NewSecure(store, policy, appLogger)

	auditor := audit.NewStdoutRecorder()
	inspector := token.NewInspector(auditor)

	// The CSRF source closes over the manager built below; it only reads the
	// token once Start has run.
	var mgr *session.Manager
	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithLimiter(ratelimit.New(cfg.APIRateLimitMax, cfg.APIRateWindow())),
		apiclient.WithCSRFSource(func() string {
			if mgr == nil {
				return ""
			}
			return mgr.CSRFToken()
		}),
		apiclient.WithLogger(appLogger),
	)

	mgr = session.NewManager(
		api,
		secure,
		store,
		inspector,
		session.Options{
			IdleTimeout:      cfg.IdleTimeout(),
			CheckInterval:    cfg.CheckInterval(),
			RefreshInterval:  cfg.RefreshInterval(),
			RefreshThreshold: cfg.RefreshThreshold(),
			ExpiryWarning:    cfg.ExpiryWarning(),
			LoginLimiter:     ratelimit.New(cfg.LoginRateLimitMax, cfg.LoginRateWindow()),
			Logger:           appLogger,
			Auditor:          auditor,
		},
	)

	cleanup := func() {
		mgr.Stop()
		inspector.Close()
		if err := store.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to close store:", err)
		}
	}
	return mgr, cleanup, nil
}
