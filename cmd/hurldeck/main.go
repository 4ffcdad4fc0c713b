package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/unkn0wn-root/hurldeck/internal/api"
	"github.com/unkn0wn-root/hurldeck/internal/config"
	"github.com/unkn0wn-root/hurldeck/internal/history"
	"github.com/unkn0wn-root/hurldeck/internal/rtfmt"
	"github.com/unkn0wn-root/hurldeck/internal/runner"
	"github.com/unkn0wn-root/hurldeck/internal/telemetry"
	"github.com/unkn0wn-root/hurldeck/internal/watcher"
	"github.com/unkn0wn-root/hurldeck/internal/workspace"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const historyFileName = "history.json"

func main() {
	var (
		dataDir         string
		listen          string
		hurlBinary      string
		defaultEnv      string
		timeout         time.Duration
		showVersion     bool
		traceOTEndpoint string
		traceOTInsecure bool
		traceOTService  string
	)

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)
	traceOTEndpoint = telemetryCfg.Endpoint
	traceOTInsecure = telemetryCfg.Insecure
	traceOTService = telemetryCfg.ServiceName

	flag.StringVar(&dataDir, "data", "", "Workspace data directory")
	flag.StringVar(&listen, "listen", "", "Address to serve the API on")
	flag.StringVar(&hurlBinary, "hurl", "", "Path to the hurl binary")
	flag.StringVar(&defaultEnv, "env", "", "Environment used when a run names none")
	flag.DurationVar(&timeout, "timeout", 0, "Per-run timeout for the hurl binary")
	flag.BoolVar(&showVersion, "version", false, "Show hurldeck version")
	flag.StringVar(
		&traceOTEndpoint,
		"otel-endpoint",
		traceOTEndpoint,
		"OTLP collector endpoint for run spans",
	)
	flag.BoolVar(
		&traceOTInsecure,
		"otel-insecure",
		traceOTInsecure,
		"Disable TLS for OTLP trace export",
	)
	flag.StringVar(
		&traceOTService,
		"otel-service",
		traceOTService,
		"Override service.name resource attribute for exported spans",
	)
	flag.Parse()

	if showVersion {
		fmt.Printf("hurldeck %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}
	if listen != "" {
		settings.Listen = listen
	}
	if hurlBinary != "" {
		settings.Runner.Binary = hurlBinary
	}
	if timeout > 0 {
		settings.Runner.TimeoutSeconds = int(timeout / time.Second)
	}
	settings = config.NormaliseSettings(settings)

	if abs, err := filepath.Abs(settings.DataDir); err == nil {
		settings.DataDir = abs
	}

	telemetryCfg.Endpoint = strings.TrimSpace(traceOTEndpoint)
	telemetryCfg.Insecure = traceOTInsecure
	telemetryCfg.ServiceName = strings.TrimSpace(traceOTService)
	telemetryCfg.Version = version

	instrumenter, err := telemetry.New(telemetryCfg)
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}

	ws := workspace.New(settings.DataDir)
	if err := ws.Init(); err != nil {
		log.Fatalf("init workspace: %v", err)
	}

	runs := runner.New(runner.Options{
		Binary:    settings.Runner.Binary,
		Timeout:   time.Duration(settings.Runner.TimeoutSeconds) * time.Second,
		MaxOutput: settings.Runner.MaxOutputBytes,
	})
	runs.SetTelemetry(instrumenter)

	store := history.NewStore(
		filepath.Join(settings.DataDir, historyFileName),
		settings.History.MaxEntries,
	)
	if err := store.Load(); err != nil {
		log.Fatalf("load history: %v", err)
	}

	fileWatcher := watcher.New(ws.CollectionsDir(), watcher.Options{
		Interval: time.Duration(settings.Watcher.IntervalMillis) * time.Millisecond,
	})
	fileWatcher.Start()

	server := api.NewServer(api.Options{
		Workspace:          ws,
		Runner:             runs,
		History:            store,
		Watcher:            fileWatcher,
		DefaultEnvironment: defaultEnv,
		Logf:               log.Printf,
	})

	httpServer := &http.Server{
		Addr:    settings.Listen,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	_ = rtfmt.Fprintf(
		os.Stdout,
		"hurldeck %s serving %s on http://%s\n",
		rtfmt.LogHandler(log.Printf, "startup notice write failed: %v"),
		version,
		settings.DataDir,
		settings.Listen,
	)

	select {
	case err := <-errCh:
		log.Fatalf("serve: %v", err)
	case <-ctx.Done():
	}

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	fileWatcher.Stop()
	if err := instrumenter.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
}
