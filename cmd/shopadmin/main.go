package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/shopadmin/internal/api"
	"github.com/erazemk/shopadmin/internal/backend"
	"github.com/erazemk/shopadmin/internal/config"
	"github.com/erazemk/shopadmin/internal/db"
	"github.com/erazemk/shopadmin/internal/imaging"
	"github.com/erazemk/shopadmin/internal/metrics"
	"github.com/erazemk/shopadmin/internal/store"
	"github.com/erazemk/shopadmin/internal/workspace"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// flagEnv maps command-line flags onto the environment variables they
// override.
var flagEnv = []struct {
	long, short, env string
}{
	{"backend", "b", "SHOPADMIN_BACKEND_URL"},
	{"addr", "a", "SHOPADMIN_ADDR"},
	{"db", "d", "SHOPADMIN_DB_PATH"},
	{"log", "l", "SHOPADMIN_LOG_PATH"},
}

func main() {
	fs := flag.NewFlagSet("shopadmin", flag.ContinueOnError)

	values := make([]string, len(flagEnv))
	for i, f := range flagEnv {
		fs.StringVar(&values[i], f.long, "", "")
		fs.StringVar(&values[i], f.short, "", "")
	}

	var envFile string
	fs.StringVar(&envFile, "env", ".env", "")
	fs.StringVar(&envFile, "e", ".env", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: shopadmin [flags]

Flags:
  -b, -backend <url>      retail backend base URL (env: SHOPADMIN_BACKEND_URL)
  -a, -addr <host:port>   listen address (default: :8080)
  -d, -db <path>          SQLite session database path (default: shopadmin.sqlite3)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -e, -env <path>         optional .env file (default: .env)
  -h, -help               show this help and exit

Every other setting is read from SHOPADMIN_* environment variables.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	// Flags win over the environment and the .env file.
	for i, f := range flagEnv {
		if values[i] != "" {
			os.Setenv(f.env, values[i])
		}
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("shopadmin stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	// Secrets are generated on first run and kept in the settings table.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading jwt secret: %w", err)
	}
	sessionKey, err := store.GetSessionKey(ctx, database)
	if err != nil {
		return fmt.Errorf("loading session key: %w", err)
	}
	sessions, err := store.NewSessions(database, sessionKey)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	client, err := backend.NewClient(cfg.Backend.URL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(slog.Default()),
		backend.WithMetrics(metrics.NewBackendMetrics(registry)),
	)
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	workspaces := workspace.NewManager(httpMetrics)

	apiRouter := api.NewRouter(api.Deps{
		DB:           database,
		JWTSecret:    jwtSecret,
		Sessions:     sessions,
		Backend:      client,
		Workspaces:   workspaces,
		Images:       imaging.NewProcessor(cfg.Image.MaxDimension, cfg.MaxUploadBytes()),
		SessionTTL:   cfg.Session.TTL,
		SecureCookie: cfg.Session.SecureCookie,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", apiRouter)

	handler := api.LoggingMiddleware(httpMetrics)(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, cfg.Session.SweepInterval, sessions, workspaces)

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "backend", cfg.Backend.URL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// sweepSessions periodically removes expired sessions, their workspaces
// and stale token revocations.
func sweepSessions(ctx context.Context, every time.Duration, sessions *store.Sessions, workspaces *workspace.Manager) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ids, err := sessions.Sweep(ctx, now)
			if err != nil {
				slog.Error("session sweep failed", "error", err)
				continue
			}
			if len(ids) > 0 {
				workspaces.Drop(ids...)
				slog.Info("expired sessions removed", "count", len(ids))
			}
		}
	}
}
