package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"calview/internal/calendar"
	"calview/internal/httpapi"
	"calview/internal/instrumentation"
	"calview/internal/session"
	"calview/internal/web"
)

// ServeConfig holds the configuration of the serve command.
type ServeConfig struct {
	// HTTPAddr is the listen address of the main server.
	HTTPAddr string

	// SignInURL is where the signed-out page sends the user.
	SignInURL string

	// WeekStart is the first column of the month grid: "sunday" or "monday".
	WeekStart string

	// SessionTimeout is how long an idle session survives.
	SessionTimeout time.Duration

	// Debug enables debug-level logging.
	Debug bool

	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var cfg ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the calendar view server",
		Long: `Start the calview HTTP server.

The server hosts the month view, the JSON calendar API, and health
endpoints on one port. Prometheus metrics are served on a dedicated
port so they never face the public listener.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", httpapi.DefaultAddr, "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().StringVar(&cfg.SignInURL, "sign-in-url", web.DefaultSignInURL, "Sign-in URL of the external auth service. Can also use SIGN_IN_URL env var.")
	cmd.Flags().StringVar(&cfg.WeekStart, "week-start", "sunday", "First day of the week in the grid: sunday or monday. Can also use WEEK_START env var.")
	cmd.Flags().DurationVar(&cfg.SessionTimeout, "session-timeout", session.DefaultTimeout, "Idle session lifetime. Can also use SESSION_TIMEOUT env var.")
	cmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	// Metrics server flags
	cmd.Flags().BoolVar(&cfg.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", httpapi.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg ServeConfig) error {
	// A .env file is a development convenience; deployments set real
	// environment variables.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)

	weekStart, err := parseWeekStart(cfg.WeekStart)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *httpapi.MetricsServer
	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err = httpapi.NewMetricsServer(httpapi.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Session store and server context
	sessions := session.NewStoreWithTimeout(cfg.SessionTimeout, logger)
	defer sessions.Stop()

	serverContext, err := httpapi.NewServerContext(shutdownCtx, sessions, func(ctx context.Context, accessToken string) (calendar.Service, error) {
		client, err := calendar.NewClient(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Sessions removed by the idle sweeper must release their cached
	// client and leave the gauge; the explicit sign-out path does this in
	// the session handler.
	sessions.OnExpire(func(id string) {
		serverContext.DropClient(id)
		provider.Metrics().DecrementActiveSessions(context.Background())
	})

	// View handler
	viewHandler, err := web.NewHandler(shutdownCtx, web.Config{
		Sessions:  sessions,
		ClientFor: serverContext.ClientForSession,
		WeekStart: weekStart,
		SignInURL: cfg.SignInURL,
		Logger:    logger,
		Metrics:   provider.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create view handler: %w", err)
	}

	// Assemble the main mux
	health := httpapi.NewHealthChecker(serverContext, version)

	mux := http.NewServeMux()
	httpapi.NewHandlers(serverContext, logger, provider.Metrics()).RegisterRoutes(mux)
	viewHandler.RegisterRoutes(mux)
	health.RegisterHealthEndpoints(mux)

	srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.WithMetrics(mux, provider.Metrics()), logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	logger.Info("calview started",
		"addr", cfg.HTTPAddr,
		"week_start", weekStart.String(),
		"version", version)

	select {
	case <-shutdownCtx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	// Drain in-flight requests, then tear everything down.
	health.SetReady(false)
	serverContext.Shutdown()

	drainCtx, drainCancel := context.WithTimeout(context.Background(), httpapi.DefaultShutdownTimeout)
	defer drainCancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(drainCtx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("calview stopped")
	return nil
}

// applyEnvOverrides fills in configuration from the environment for every
// flag still at its default.
func applyEnvOverrides(cfg *ServeConfig) {
	if cfg.HTTPAddr == httpapi.DefaultAddr {
		if addr := os.Getenv("HTTP_ADDR"); addr != "" {
			cfg.HTTPAddr = addr
		}
	}
	if cfg.SignInURL == web.DefaultSignInURL {
		if u := os.Getenv("SIGN_IN_URL"); u != "" {
			cfg.SignInURL = u
		}
	}
	if cfg.WeekStart == "sunday" {
		if ws := os.Getenv("WEEK_START"); ws != "" {
			cfg.WeekStart = ws
		}
	}
	if cfg.SessionTimeout == session.DefaultTimeout {
		if raw := os.Getenv("SESSION_TIMEOUT"); raw != "" {
			if d, err := time.ParseDuration(raw); err == nil {
				cfg.SessionTimeout = d
			}
		}
	}
	if cfg.Metrics.Enabled {
		if raw := os.Getenv("METRICS_ENABLED"); raw != "" {
			if enabled, err := strconv.ParseBool(raw); err == nil {
				cfg.Metrics.Enabled = enabled
			}
		}
	}
	if cfg.Metrics.Addr == httpapi.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Metrics.Addr = addr
		}
	}
}

// parseWeekStart maps the week-start flag to a weekday.
func parseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("invalid week start %q, must be sunday or monday", s)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
