package main

//
//  @title           xetrapulse API
//  @version         1.0
//  @description     Xetra daily report: latest report rows and processing ledger.
//  @termsOfService  https://github.com/guttosm/xetrapulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/xetrapulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        reports
//  @tag.description Latest report rows and the processing ledger
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/xetrapulse/config"
	_ "github.com/guttosm/xetrapulse/docs" // swagger docs
	"github.com/guttosm/xetrapulse/internal/app"
	"github.com/guttosm/xetrapulse/internal/logger"
	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runReport executes one report run and returns the process exit code.
func runReport(ctx context.Context, cfg config.Config, start, today string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := app.RunReport(ctx, cfg, start, today)
	if err != nil {
		logger.L().Error().Err(err).Str("run_id", res.RunID).Msg("report run failed")
		return 1
	}
	ev := logger.L().Info().Str("run_id", res.RunID).Bool("no_op", res.NoOp)
	if !res.NoOp {
		ev = ev.Str("effective_start", res.EffectiveStart.Format(models.DateLayout)).
			Int("rows", res.Rows).
			Int("dropped", res.Stats.Dropped).
			Str("report_key", res.ReportKey)
	}
	ev.Msg("report run completed successfully")
	return 0
}

// main is the entry point of the xetrapulse application.
//
// Modes (selected via --mode flag):
//   - report: Resolves the dates not yet in the ledger, aggregates them and
//     writes a new report object to the target bucket.
//   - api:    Starts the REST API serving the latest report and the ledger.
//
// Flags:
//   - --mode:  Execution mode ("report" or "api"). Default: "report".
//   - --start: Requested start date (YYYY-MM-DD). Defaults to REPORT_START_DATE.
//   - --today: Last date to process (YYYY-MM-DD). Defaults to the current UTC date.
//   - --port:  Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	mode := flag.String("mode", "report", "Mode: report or api")
	start := flag.String("start", "", "Requested start date YYYY-MM-DD (default REPORT_START_DATE)")
	today := flag.String("today", "", "Last date to process YYYY-MM-DD (default current UTC date)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	if err := telemetry.Init(config.AppConfig.Tracing.Enabled, version); err != nil {
		logger.L().Fatal().Err(err).Msg("tracing init error")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.L().Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	switch *mode {
	case "report":
		logger.L().Info().Msg("running report")
		if code := runReport(ctx, config.AppConfig, *start, *today); code != 0 {
			_ = telemetry.Shutdown(context.Background())
			os.Exit(code)
		}

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
