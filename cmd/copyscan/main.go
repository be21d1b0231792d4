package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"copyscan/pipeline"
	"copyscan/server"
	"copyscan/shared/ai"
	"copyscan/shared/config"
	"copyscan/shared/email"
	"copyscan/shared/monitoring"
	"copyscan/shared/scheduler"
	"copyscan/shared/storage"
	"copyscan/youtube"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	monitoring.Register(nil)

	analyzer, err := buildAnalyzer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build analysis pipeline: %v", err)
	}

	monitor := monitoring.NewMonitor()

	if cfg.Watch.Enabled() {
		watcher, err := buildWatcher(cfg, analyzer, monitor)
		if err != nil {
			log.Fatalf("Failed to set up watch scheduler: %v", err)
		}
		go func() {
			if err := watcher.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("Watch scheduler exited: %v", err)
			}
		}()
	}

	srv := server.New(analyzer, monitor, cfg.Server.StaticDir)
	log.Printf("Listening on port %d", cfg.Server.Port)
	if err := srv.Run(cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildAnalyzer selects the analysis strategy once: the real pipeline when
// both API keys are configured, the mock generator otherwise. Callers only
// ever see the Analyzer interface.
func buildAnalyzer(ctx context.Context, cfg *config.Config) (pipeline.Analyzer, error) {
	opts := pipeline.Options{
		BatchSize:        cfg.Pipeline.BatchSize,
		BatchPause:       cfg.Pipeline.BatchPause(),
		TopPriorityLimit: cfg.Pipeline.TopPriorityLimit,
	}

	if !cfg.HasCredentials() {
		log.Println("YOUTUBE_API_KEY or GEMINI_API_KEY not set, serving mock reports")
		return pipeline.NewMockGenerator(opts), nil
	}

	searcher, err := youtube.NewClient(ctx, &cfg.YouTube)
	if err != nil {
		return nil, err
	}

	classifier, err := ai.NewClassifier(&cfg.AI)
	if err != nil {
		return nil, err
	}

	return pipeline.New(searcher, classifier, opts), nil
}

func buildWatcher(cfg *config.Config, analyzer pipeline.Analyzer, monitor *monitoring.Monitor) (*scheduler.Watcher, error) {
	// Flagged videos stay suppressed for 30 days before they can re-alert.
	store, err := storage.NewFlagStore(cfg.Watch.DataDir, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	var notifier scheduler.Notifier
	if cfg.Email.Configured() {
		notifier = email.NewSender(&cfg.Email)
	} else {
		log.Println("Email not configured, watch runs will only log findings")
	}

	return scheduler.New(analyzer, monitor, store, notifier, &cfg.Watch), nil
}
