package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"copyscan/internal/models"

	"golang.org/x/time/rate"
)

// Analyzer produces a full report for one name/channel pair. The real
// pipeline and the mock generator both satisfy it, so callers pick a mode
// once at startup and never branch again.
type Analyzer interface {
	Analyze(ctx context.Context, userName, channelName string) (*models.Report, error)
}

// Searcher is the paginated video-search stage.
type Searcher interface {
	SearchVideos(ctx context.Context, query string) ([]models.Video, error)
}

// Classifier classifies one bounded batch of videos.
type Classifier interface {
	ClassifyBatch(ctx context.Context, batch []models.Video, userName, channelName string, batchNumber int) (*models.BatchAnalysis, error)
}

type Options struct {
	BatchSize        int
	BatchPause       time.Duration
	TopPriorityLimit int
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.BatchPause <= 0 {
		o.BatchPause = time.Second
	}
	if o.TopPriorityLimit <= 0 {
		o.TopPriorityLimit = DefaultTopPriorityLimit
	}
	return o
}

type Pipeline struct {
	searcher   Searcher
	classifier Classifier
	opts       Options
	limiter    *rate.Limiter
}

func New(searcher Searcher, classifier Classifier, opts Options) *Pipeline {
	opts = opts.withDefaults()
	return &Pipeline{
		searcher:   searcher,
		classifier: classifier,
		opts:       opts,
		// Burst 1: the first batch dispatches immediately, every batch
		// after it waits out the pacing interval. Shared across requests
		// so concurrent callers cannot multiply the upstream rate.
		limiter: rate.NewLimiter(rate.Every(opts.BatchPause), 1),
	}
}

// Analyze runs the full fetch / classify / merge pipeline for one request.
// Batch-level failures are contained and recorded; only search-stage failures
// abort the request.
func (p *Pipeline) Analyze(ctx context.Context, userName, channelName string) (*models.Report, error) {
	query := strings.TrimSpace(userName + " " + channelName)

	videos, err := p.searcher.SearchVideos(ctx, query)
	if err != nil {
		return nil, err
	}

	analyses, failures, err := p.classifyAll(ctx, videos, userName, channelName)
	if err != nil {
		return nil, err
	}

	final := Merge(analyses, p.opts.TopPriorityLimit)

	return &models.Report{
		UserName:           userName,
		ChannelName:        channelName,
		TotalVideosFound:   len(videos),
		BatchesAnalyzed:    len(analyses),
		BatchesFailed:      final.FailedBatches,
		FailedBatchDetails: failures,
		Videos:             videos,
		Analysis:           final,
	}, nil
}

// classifyAll drives the classifier over every batch strictly in sequence.
// A failed batch contributes a failure-marked placeholder plus a detail
// record, and processing continues unconditionally. The returned error is
// non-nil only when the context is cancelled mid-run.
func (p *Pipeline) classifyAll(ctx context.Context, videos []models.Video, userName, channelName string) ([]*models.BatchAnalysis, []models.FailedBatchDetail, error) {
	batches := SplitBatches(videos, p.opts.BatchSize)
	analyses := make([]*models.BatchAnalysis, 0, len(batches))
	failures := []models.FailedBatchDetail{}

	for i, batch := range batches {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}

		batchNumber := i + 1
		log.Printf("Classifying batch %d/%d (%d videos)", batchNumber, len(batches), len(batch))

		analysis, err := p.classifier.ClassifyBatch(ctx, batch, userName, channelName, batchNumber)
		if err != nil {
			log.Printf("Batch %d failed, continuing with remaining batches: %v", batchNumber, err)
			analyses = append(analyses, failedBatch(batchNumber))
			failures = append(failures, models.FailedBatchDetail{
				BatchNumber: batchNumber,
				Error:       err.Error(),
				BatchSize:   len(batch),
			})
			continue
		}

		analysis.BatchNumber = batchNumber
		analyses = append(analyses, analysis)
	}

	return analyses, failures, nil
}

// SplitBatches cuts videos into consecutive runs of at most size, preserving
// order. Concatenating the result reproduces the input exactly.
func SplitBatches(videos []models.Video, size int) [][]models.Video {
	if size <= 0 || len(videos) == 0 {
		return nil
	}

	batches := make([][]models.Video, 0, (len(videos)+size-1)/size)
	for start := 0; start < len(videos); start += size {
		end := start + size
		if end > len(videos) {
			end = len(videos)
		}
		batches = append(batches, videos[start:end])
	}
	return batches
}

// failedBatch is the placeholder standing in for a batch whose classification
// call failed: empty lists, marker set, default disclaimer.
func failedBatch(batchNumber int) *models.BatchAnalysis {
	return &models.BatchAnalysis{
		RankedList:  []models.RiskEntry{},
		TopPriority: []string{},
		Checklist:   []string{},
		NextActions: []string{},
		Disclaimer:  DefaultDisclaimer,
		Failed:      true,
		BatchNumber: batchNumber,
	}
}
