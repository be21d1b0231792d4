package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"copyscan/internal/models"
)

// mockVideoCount is the fixed size of a synthetic scan.
const mockVideoCount = 100

// officialEvery attributes every Nth synthetic video to the queried channel
// to simulate the rights holder's own uploads showing up in search.
const officialEvery = 10

// mockBaseTime anchors synthetic publish dates so repeated calls produce
// identical reports.
var mockBaseTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// MockGenerator satisfies Analyzer without any network access. It is wired in
// whenever external credentials are absent, so callers never branch on mode
// and the response schema matches the real pipeline exactly.
type MockGenerator struct {
	batchSize        int
	topPriorityLimit int
}

func NewMockGenerator(opts Options) *MockGenerator {
	opts = opts.withDefaults()
	return &MockGenerator{
		batchSize:        opts.BatchSize,
		topPriorityLimit: opts.TopPriorityLimit,
	}
}

func (g *MockGenerator) Analyze(ctx context.Context, userName, channelName string) (*models.Report, error) {
	videos := g.syntheticVideos(userName, channelName)

	batches := SplitBatches(videos, g.batchSize)
	analyses := make([]*models.BatchAnalysis, 0, len(batches))
	for i, batch := range batches {
		analyses = append(analyses, g.syntheticBatch(batch, channelName, i+1))
	}

	final := Merge(analyses, g.topPriorityLimit)

	log.Printf("Mock mode: generated report for %q / %q without external calls", userName, channelName)

	return &models.Report{
		UserName:           userName,
		ChannelName:        channelName,
		TotalVideosFound:   len(videos),
		BatchesAnalyzed:    len(analyses),
		BatchesFailed:      0,
		FailedBatchDetails: []models.FailedBatchDetail{},
		Videos:             videos,
		Analysis:           final,
	}, nil
}

func (g *MockGenerator) syntheticVideos(userName, channelName string) []models.Video {
	videos := make([]models.Video, 0, mockVideoCount)
	for i := 0; i < mockVideoCount; i++ {
		publishedAt := mockBaseTime.Add(-time.Duration(i) * 24 * time.Hour)
		video := models.Video{
			VideoID:     fmt.Sprintf("mock-video-%03d", i+1),
			PublishedAt: publishedAt,
			PublishTime: publishedAt,
			Thumbnails: map[string]models.Thumbnail{
				"default": {URL: fmt.Sprintf("https://example.invalid/thumbs/%03d.jpg", i+1), Width: 120, Height: 90},
			},
		}

		switch mockRisk(i) {
		case models.RiskLow:
			video.Title = fmt.Sprintf("%s - Official Upload #%02d", userName, i+1)
			video.Description = "Official upload from the rights holder's channel."
			video.ChannelTitle = channelName
			video.ChannelID = "UC-mock-official"
		case models.RiskHigh:
			video.Title = fmt.Sprintf("%s - FULL ALBUM reupload #%02d", userName, i+1)
			video.Description = "Complete work reuploaded without commentary."
			video.ChannelTitle = fmt.Sprintf("Mirror Channel %02d", i+1)
			video.ChannelID = fmt.Sprintf("UC-mock-mirror-%02d", i+1)
		default:
			video.Title = fmt.Sprintf("Reaction to %s's latest release #%02d", userName, i+1)
			video.Description = "Commentary and reaction video referencing the work."
			video.ChannelTitle = fmt.Sprintf("Fan Channel %02d", i+1)
			video.ChannelID = fmt.Sprintf("UC-mock-fan-%02d", i+1)
		}

		videos = append(videos, video)
	}
	return videos
}

func (g *MockGenerator) syntheticBatch(batch []models.Video, channelName string, batchNumber int) *models.BatchAnalysis {
	analysis := &models.BatchAnalysis{
		Summary:     fmt.Sprintf("Synthetic triage of batch %d (%d videos).", batchNumber, len(batch)),
		RankedList:  make([]models.RiskEntry, 0, len(batch)),
		TopPriority: []string{},
		Checklist: []string{
			"Confirm which flagged videos reproduce the work in full",
			"Check whether any flagged channel is a licensed distributor",
			"Capture screenshots and URLs before requesting removal",
		},
		NextActions: []string{
			"File takedown requests for confirmed High-risk entries",
			"Re-scan in one week to catch reuploads",
		},
		Disclaimer:  DefaultDisclaimer,
		BatchNumber: batchNumber,
	}

	for _, video := range batch {
		risk := models.RiskMedium
		rationale := []string{"Ambiguous metadata, defaulting to Medium"}
		if video.ChannelTitle == channelName {
			risk = models.RiskLow
			rationale = []string{"Exact channel match, rights holder's own upload"}
		} else if strings.HasPrefix(video.ChannelID, "UC-mock-mirror") {
			risk = models.RiskHigh
			rationale = []string{"Title contains full-reproduction keywords", "Channel is not the rights holder"}
		}

		analysis.RankedList = append(analysis.RankedList, models.RiskEntry{
			VideoID:     video.VideoID,
			Title:       video.Title,
			Channel:     video.ChannelTitle,
			PublishedAt: video.PublishedAt.Format("2006-01-02"),
			Risk:        risk,
			Rationale:   rationale,
		})
		if risk == models.RiskHigh {
			analysis.TopPriority = append(analysis.TopPriority, video.VideoID)
		}
	}

	return analysis
}

func mockRisk(i int) models.RiskLevel {
	switch {
	case i%officialEvery == 0:
		return models.RiskLow
	case i%3 == 0:
		return models.RiskHigh
	default:
		return models.RiskMedium
	}
}
