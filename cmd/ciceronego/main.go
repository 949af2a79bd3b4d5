package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ciceronego/internal/api"
	"ciceronego/pkg/config"
	"ciceronego/pkg/db"
	"ciceronego/pkg/guide/gemini"
	"ciceronego/pkg/logging"
	"ciceronego/pkg/model"
	"ciceronego/pkg/playback"
	"ciceronego/pkg/probe"
	"ciceronego/pkg/prompts"
	"ciceronego/pkg/request"
	"ciceronego/pkg/session"
	"ciceronego/pkg/store"
	"ciceronego/pkg/tour"
	"ciceronego/pkg/tracker"
	"ciceronego/pkg/version"
	"ciceronego/pkg/wikipedia"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/cicerone.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/cicerone.yaml")
		return
	}

	// Pick up GEMINI_API_KEY etc. from a local .env if present.
	_ = godotenv.Load()

	if err := run(context.Background(), "configs/cicerone.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Cicerone Started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.New(dbConn)

	tr := tracker.New()
	reqClient := request.New(st, tr, request.ClientConfig{
		Retries: appCfg.Request.Retries,
		Timeout: time.Duration(appCfg.Request.Timeout),
	})
	wikiClient := wikipedia.NewClient(reqClient)

	promptMgr, err := prompts.NewManager("configs/prompts")
	if err != nil {
		return fmt.Errorf("failed to load prompt templates: %w", err)
	}

	caps, err := gemini.NewClient(appCfg.LLM, appCfg.Narrator, appCfg.Log.Gemini.Path, promptMgr, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	defer caps.Close()

	playbackMgr := playback.New(nil)
	playbackMgr.SetVolume(appCfg.Audio.Volume)

	sessionMgr := session.NewManager()
	sessionMgr.Subscribe(func(s model.TourState) {
		slog.Info("Session: stage changed", "stage", s.Stage, "landmark", s.Landmark != nil)
	})

	orch := tour.New(caps, sessionMgr, playbackMgr, st, wikiClient, appCfg.Narrator)

	// Startup Probes
	probes := []probe.Probe{
		{
			Name: "Database",
			Check: func(c context.Context) error {
				return dbConn.PingContext(c)
			},
			Critical: true,
		},
		{
			Name: "Gemini API Key",
			Check: func(context.Context) error {
				if !caps.Ready() {
					return fmt.Errorf("no API key configured (set GEMINI_API_KEY or llm.key)")
				}
				return nil
			},
			Critical: false, // tours fail with a clear error; server still serves state/audio
		},
	}
	results := probe.Run(ctx, probes)
	if err := probe.Evaluate(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, orch, st, playbackMgr, tr)
}

func runServer(ctx context.Context, cfg *config.Config, orch *tour.Orchestrator, st *store.Store, pb *playback.Manager, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewTourHandler(orch, st),
		api.NewAudioHandler(pb),
		api.NewStatsHandler(tr),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit, pb)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal, pb *playback.Manager) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	pb.StopAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
