package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"copyscan/internal/models"
	"copyscan/shared/config"
	"copyscan/shared/monitoring"
	"copyscan/shared/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	report *models.Report
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, userName, channelName string) (*models.Report, error) {
	return s.report, s.err
}

type stubNotifier struct {
	sent [][]models.RiskEntry
}

func (s *stubNotifier) SendRiskDigest(userName, channelName string, entries []models.RiskEntry) error {
	s.sent = append(s.sent, entries)
	return nil
}

func watchConfig() *config.WatchConfig {
	return &config.WatchConfig{
		Schedule: "0 0 6 * * *",
		Targets:  []config.WatchTarget{{UserName: "Artist", ChannelName: "ArtistOfficial"}},
	}
}

func reportWith(entries ...models.RiskEntry) *models.Report {
	return &models.Report{
		UserName:         "Artist",
		ChannelName:      "ArtistOfficial",
		TotalVideosFound: len(entries),
		Analysis:         models.FinalAnalysis{RankedList: entries},
	}
}

func TestRunOnceNotifiesOnlyNewHighRisk(t *testing.T) {
	store, err := storage.NewFlagStore(t.TempDir(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.MarkFlagged("ArtistOfficial", "known-high"))

	analyzer := &stubAnalyzer{report: reportWith(
		models.RiskEntry{VideoID: "known-high", Risk: models.RiskHigh},
		models.RiskEntry{VideoID: "new-high", Risk: models.RiskHigh},
		models.RiskEntry{VideoID: "medium", Risk: models.RiskMedium},
	)}
	notifier := &stubNotifier{}

	w := New(analyzer, monitoring.NewMonitor(), store, notifier, watchConfig())
	require.NoError(t, w.RunOnce(context.Background()))

	require.Len(t, notifier.sent, 1)
	require.Len(t, notifier.sent[0], 1)
	assert.Equal(t, "new-high", notifier.sent[0][0].VideoID)

	// The notified video is now suppressed for future runs of this target,
	// but only this target.
	assert.True(t, store.IsFlagged("ArtistOfficial", "new-high"))
	assert.False(t, store.IsFlagged("OtherChannel", "new-high"))

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Len(t, notifier.sent, 1, "second run must not re-alert")
}

func TestRunOnceNoHighRiskNoNotification(t *testing.T) {
	store, err := storage.NewFlagStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	analyzer := &stubAnalyzer{report: reportWith(
		models.RiskEntry{VideoID: "low", Risk: models.RiskLow},
	)}
	notifier := &stubNotifier{}

	w := New(analyzer, monitoring.NewMonitor(), store, notifier, watchConfig())
	require.NoError(t, w.RunOnce(context.Background()))

	assert.Empty(t, notifier.sent)
	assert.Equal(t, 0, store.Count())
}

func TestRunOnceAllTargetsFailed(t *testing.T) {
	store, err := storage.NewFlagStore(t.TempDir(), time.Hour)
	require.NoError(t, err)

	monitor := monitoring.NewMonitor()
	analyzer := &stubAnalyzer{err: errors.New("upstream down")}

	w := New(analyzer, monitor, store, nil, watchConfig())
	require.Error(t, w.RunOnce(context.Background()))
	assert.False(t, monitor.IsHealthy())
}
