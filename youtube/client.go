package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"copyscan/internal/models"
	"copyscan/shared/config"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrNoResults signals that the search stage completed without finding any videos.
var ErrNoResults = errors.New("no videos found")

// UpstreamError carries the message of a failed search API call so the HTTP
// layer can surface it verbatim.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("youtube search failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("youtube search failed: %s", e.Message)
}

type Client struct {
	service  *youtube.Service
	pageSize int64
	target   int
	limiter  *rate.Limiter
}

func NewClient(ctx context.Context, cfg *config.YouTubeConfig) (*Client, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:  service,
		pageSize: cfg.PageSize,
		target:   cfg.TargetResults,
		// Burst 1: the first page goes out immediately, every page after
		// it waits out the pacing interval.
		limiter: rate.NewLimiter(rate.Every(cfg.PagePause()), 1),
	}, nil
}

// SearchVideos pages through search results for query until the configured
// target count is reached or the API stops handing out continuation tokens.
// A failure on the first page aborts the whole search; a failure on a later
// page returns what was accumulated so far.
func (c *Client) SearchVideos(ctx context.Context, query string) ([]models.Video, error) {
	var videos []models.Video
	pageToken := ""

	for len(videos) < c.target {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		remaining := int64(c.target - len(videos))
		if remaining > c.pageSize {
			remaining = c.pageSize
		}

		call := c.service.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			MaxResults(remaining).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if len(videos) == 0 {
				return nil, upstreamError(err)
			}
			log.Printf("Search page failed after %d results, keeping partial set: %v", len(videos), err)
			break
		}

		for _, item := range resp.Items {
			video, ok := normalizeItem(item)
			if !ok {
				continue
			}
			videos = append(videos, video)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(videos) == 0 {
		return nil, ErrNoResults
	}

	log.Printf("Search for %q returned %d videos", query, len(videos))
	return videos, nil
}

// normalizeItem reshapes one raw search result. Missing nested fields become
// zero values rather than failing the page; items without a video ID are
// dropped entirely.
func normalizeItem(item *youtube.SearchResult) (models.Video, bool) {
	if item == nil || item.Id == nil || item.Id.VideoId == "" {
		return models.Video{}, false
	}

	video := models.Video{VideoID: item.Id.VideoId}
	if item.Snippet == nil {
		return video, true
	}

	video.Title = item.Snippet.Title
	video.Description = item.Snippet.Description
	video.ChannelTitle = item.Snippet.ChannelTitle
	video.ChannelID = item.Snippet.ChannelId
	video.Thumbnails = thumbnailMap(item.Snippet.Thumbnails)

	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		video.PublishedAt = t
	}
	// The generated Go client does not model the REST API's publishTime
	// field; the API documents it as the same value as publishedAt.
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		video.PublishTime = t
	}

	return video, true
}

func thumbnailMap(details *youtube.ThumbnailDetails) map[string]models.Thumbnail {
	if details == nil {
		return nil
	}

	thumbs := make(map[string]models.Thumbnail)
	add := func(key string, t *youtube.Thumbnail) {
		if t != nil && t.Url != "" {
			thumbs[key] = models.Thumbnail{URL: t.Url, Width: t.Width, Height: t.Height}
		}
	}
	add("default", details.Default)
	add("medium", details.Medium)
	add("high", details.High)

	if len(thumbs) == 0 {
		return nil
	}
	return thumbs
}

func upstreamError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = gerr.Error()
		}
		return &UpstreamError{Status: gerr.Code, Message: msg}
	}
	return &UpstreamError{Message: err.Error()}
}
