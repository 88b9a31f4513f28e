// Command lorescribe is the Lorescribe session dictation server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/lorescribe/lorescribe/internal/config"
	"github.com/lorescribe/lorescribe/internal/extract"
	"github.com/lorescribe/lorescribe/internal/health"
	"github.com/lorescribe/lorescribe/internal/observe"
	"github.com/lorescribe/lorescribe/internal/recorder"
	"github.com/lorescribe/lorescribe/internal/review"
	"github.com/lorescribe/lorescribe/internal/wiki"
	audiomock "github.com/lorescribe/lorescribe/pkg/audio/mock"
	"github.com/lorescribe/lorescribe/pkg/auth"
	"github.com/lorescribe/lorescribe/pkg/speech"
	"github.com/lorescribe/lorescribe/pkg/speech/deepgram"
	speechmock "github.com/lorescribe/lorescribe/pkg/speech/mock"
	"github.com/lorescribe/lorescribe/pkg/store/postgres"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "lorescribe: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "lorescribe: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("lorescribe starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownOtel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "lorescribe",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Persistent store ──────────────────────────────────────────────────────
	st, err := postgres.NewStore(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to store", "err", err)
		return 1
	}
	defer st.Close()
	slog.Info("store connected")

	// ── Speech provider ───────────────────────────────────────────────────────
	speechProvider, err := buildSpeechProvider(cfg.Speech)
	if err != nil {
		slog.Error("failed to build speech provider", "err", err)
		return 1
	}
	slog.Info("speech provider ready", "name", cfg.Speech.Provider)

	// Server deployments have no microphone; frames are pushed into the mock
	// capture by whatever feeds this process (tests, a future ingest endpoint).
	capture := audiomock.NewCapture()

	// Single-tenant local deployment: the store is always reachable under the
	// operator's own credentials.
	authn := auth.Static(true)

	// ── Subsystems ────────────────────────────────────────────────────────────
	wikiStore := wiki.New(st, authn, logger)
	if err := wikiStore.Refresh(ctx); err != nil {
		slog.Error("failed to load entity snapshot", "err", err)
		return 1
	}
	slog.Info("entity snapshot loaded", "version", wikiStore.Version())

	extractor := extract.New(nil)
	reviewFlow := review.New(wikiStore)

	rec := recorder.New(recorder.Config{
		Store:   st,
		Speech:  speechProvider,
		Capture: capture,
		Auth:    authn,
		Stream:  streamConfig(cfg.Speech),
		Metrics: metrics,
		Logger:  logger,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	checks := health.New()
	checks.Add("postgres", st.Ping)

	mux := http.NewServeMux()
	checks.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	api := &server{recorder: rec, wiki: wikiStore, review: reviewFlow, metrics: metrics, log: logger}
	api.routes(mux)

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runPipeline(gctx, rec, extractor, reviewFlow, metrics, logger)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	if rec.Recording() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := rec.Stop(stopCtx); err != nil {
			slog.Warn("failed to close live recording", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// ── Pipeline ──────────────────────────────────────────────────────────────────

// runPipeline watches the recorder and, each time a recording ends with a
// non-empty transcript, runs an extraction pass and loads the result into the
// review workflow. Returns when ctx is cancelled.
func runPipeline(ctx context.Context, rec *recorder.Recorder, ext *extract.Extractor, rev *review.Workflow, metrics *observe.Metrics, log *slog.Logger) {
	updates := rec.Subscribe()

	var lastSessionID string
	wasRecording := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
		}

		snap := rec.Snapshot()
		if snap.Recording {
			wasRecording = true
			lastSessionID = snap.SessionID
			continue
		}
		if !wasRecording {
			continue
		}
		wasRecording = false
		if snap.Transcript == "" || lastSessionID == "" {
			continue
		}

		start := time.Now()
		res := ext.Extract(snap.Transcript)
		metrics.ExtractionDuration.Record(ctx, time.Since(start).Seconds())
		metrics.RecordCandidates(ctx, len(res.Candidates), len(res.LowConfidence))

		rev.SetSession(lastSessionID)
		rev.Load(res)
		log.Info("extraction pass complete",
			"session_id", lastSessionID,
			"candidates", len(res.Candidates),
			"low_confidence", len(res.LowConfidence),
		)
	}
}

// ── Speech wiring ─────────────────────────────────────────────────────────────

// buildSpeechProvider constructs the configured streaming STT provider.
func buildSpeechProvider(cfg config.SpeechConfig) (speech.Provider, error) {
	switch cfg.Provider {
	case "deepgram":
		var opts []deepgram.Option
		if cfg.Model != "" {
			opts = append(opts, deepgram.WithModel(cfg.Model))
		}
		if cfg.Language != "" {
			opts = append(opts, deepgram.WithLanguage(cfg.Language))
		}
		if cfg.SampleRate != 0 {
			opts = append(opts, deepgram.WithSampleRate(cfg.SampleRate))
		}
		return deepgram.New(cfg.APIKey, opts...)
	case "mock":
		return &speechmock.Provider{}, nil
	case "":
		return nil, errors.New("speech.provider is not configured")
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.Provider)
	}
}

// streamConfig maps the speech config onto the per-session stream settings,
// applying the 16 kHz mono defaults.
func streamConfig(cfg config.SpeechConfig) speech.StreamConfig {
	sc := speech.StreamConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Language:   cfg.Language,
		Keywords:   cfg.Keywords,
	}
	if sc.SampleRate == 0 {
		sc.SampleRate = 16000
	}
	if sc.Channels == 0 {
		sc.Channels = 1
	}
	return sc
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Lorescribe — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Speech", speechSummary(cfg))
	printRow("Language", cfg.Speech.Language)
	printRow("Keywords", fmt.Sprintf("%d", len(cfg.Speech.Keywords)))
	printRow("Listen addr", cfg.Server.ListenAddr)
	printRow("Log level", string(cfg.Server.LogLevel))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func speechSummary(cfg *config.Config) string {
	if cfg.Speech.Provider == "" {
		return ""
	}
	if cfg.Speech.Model == "" {
		return cfg.Speech.Provider
	}
	return cfg.Speech.Provider + " / " + cfg.Speech.Model
}

func printRow(label, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", label, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.SlogLevel(),
	}))
}
