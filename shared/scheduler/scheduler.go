package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"copyscan/internal/models"
	"copyscan/pipeline"
	"copyscan/shared/config"
	"copyscan/shared/monitoring"
	"copyscan/shared/storage"

	"github.com/robfig/cron/v3"
)

// Notifier delivers newly flagged high-risk entries for one watch target.
type Notifier interface {
	SendRiskDigest(userName, channelName string, entries []models.RiskEntry) error
}

// Watcher re-runs the analysis pipeline for configured targets on a cron
// schedule and notifies about high-risk videos not seen in earlier runs.
type Watcher struct {
	analyzer pipeline.Analyzer
	monitor  *monitoring.Monitor
	store    *storage.FlagStore
	notifier Notifier
	schedule string
	targets  []config.WatchTarget
	cron     *cron.Cron
}

func New(analyzer pipeline.Analyzer, monitor *monitoring.Monitor, store *storage.FlagStore, notifier Notifier, cfg *config.WatchConfig) *Watcher {
	return &Watcher{
		analyzer: analyzer,
		monitor:  monitor,
		store:    store,
		notifier: notifier,
		schedule: cfg.Schedule,
		targets:  cfg.Targets,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers the cron entry and blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		if err := w.RunOnce(ctx); err != nil {
			log.Printf("Scheduled watch run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	log.Printf("Watch scheduler started for %d targets with schedule: %s", len(w.targets), w.schedule)
	w.cron.Start()

	<-ctx.Done()
	log.Println("Watch scheduler stopped")
	w.cron.Stop()
	return ctx.Err()
}

// RunOnce scans every configured target. A failed target does not stop the
// remaining ones.
func (w *Watcher) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	var failures int

	for _, target := range w.targets {
		if err := w.scanTarget(ctx, target); err != nil {
			log.Printf("Watch scan for %q / %q failed: %v", target.UserName, target.ChannelName, err)
			failures++
		}
	}

	duration := time.Since(startTime)
	if failures == len(w.targets) {
		err := fmt.Errorf("all %d watch targets failed", failures)
		w.monitor.RecordCriticalFailure(err, duration)
		return err
	}
	if failures > 0 {
		w.monitor.RecordPartialFailure(fmt.Errorf("%d of %d watch targets failed", failures, len(w.targets)), duration)
		return nil
	}

	w.monitor.RecordSuccess(fmt.Sprintf("scanned %d watch targets", len(w.targets)), duration)
	return nil
}

func (w *Watcher) scanTarget(ctx context.Context, target config.WatchTarget) error {
	report, err := w.analyzer.Analyze(ctx, target.UserName, target.ChannelName)
	if err != nil {
		return err
	}

	fresh := w.freshHighRisk(target.ChannelName, report)
	log.Printf("Watch scan for %q: %d videos, %d high-risk entries (%d new)",
		target.UserName, report.TotalVideosFound, countHighRisk(report), len(fresh))

	if len(fresh) == 0 {
		return nil
	}

	if w.notifier != nil {
		if err := w.notifier.SendRiskDigest(target.UserName, target.ChannelName, fresh); err != nil {
			return fmt.Errorf("failed to send risk digest: %w", err)
		}
	}

	ids := make([]string, 0, len(fresh))
	for _, entry := range fresh {
		ids = append(ids, entry.VideoID)
	}
	if err := w.store.MarkFlagged(target.ChannelName, ids...); err != nil {
		log.Printf("Warning: failed to persist flagged videos: %v", err)
	}

	return nil
}

// freshHighRisk returns High-risk entries not already flagged for this target
// in earlier runs. Flags for other targets do not suppress an alert here.
func (w *Watcher) freshHighRisk(target string, report *models.Report) []models.RiskEntry {
	var fresh []models.RiskEntry
	for _, entry := range report.Analysis.RankedList {
		if entry.Risk != models.RiskHigh {
			continue
		}
		if w.store.IsFlagged(target, entry.VideoID) {
			continue
		}
		fresh = append(fresh, entry)
	}
	return fresh
}

func countHighRisk(report *models.Report) int {
	n := 0
	for _, entry := range report.Analysis.RankedList {
		if entry.Risk == models.RiskHigh {
			n++
		}
	}
	return n
}
