package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FlagStore keeps a persistent record of video IDs already reported by watch
// runs, so repeat scans of the same target do not re-alert on known videos.
// Flags are namespaced per watch target: the same video can matter to two
// targets, and each one gets its own alert.
type FlagStore struct {
	filePath string
	flagged  map[string]map[string]time.Time // target -> videoID -> flagged at
	mu       sync.RWMutex
	maxAge   time.Duration
}

type flaggedVideo struct {
	Target    string    `json:"target"`
	VideoID   string    `json:"video_id"`
	FlaggedAt time.Time `json:"flagged_at"`
}

// NewFlagStore opens (or creates) the store under dataDir. Entries older than
// maxAge are dropped on load so a long-gone video can be reported again.
func NewFlagStore(dataDir string, maxAge time.Duration) (*FlagStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FlagStore{
		filePath: filepath.Join(dataDir, "flagged_videos.json"),
		flagged:  make(map[string]map[string]time.Time),
		maxAge:   maxAge,
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load flag store: %w", err)
	}
	store.cleanup()

	return store, nil
}

// IsFlagged reports whether videoID was reported for target within the
// retention window.
func (fs *FlagStore) IsFlagged(target, videoID string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	flaggedAt, exists := fs.flagged[target][videoID]
	if !exists {
		return false
	}
	return time.Since(flaggedAt) < fs.maxAge
}

// MarkFlagged records videoIDs as reported for target and persists the store.
func (fs *FlagStore) MarkFlagged(target string, videoIDs ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.flagged[target] == nil {
		fs.flagged[target] = make(map[string]time.Time)
	}
	now := time.Now()
	for _, id := range videoIDs {
		fs.flagged[target][id] = now
	}
	return fs.save()
}

// Count returns the number of live flags across all targets.
func (fs *FlagStore) Count() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n := 0
	for _, videos := range fs.flagged {
		n += len(videos)
	}
	return n
}

func (fs *FlagStore) cleanup() {
	cutoff := time.Now().Add(-fs.maxAge)
	for target, videos := range fs.flagged {
		for id, flaggedAt := range videos {
			if flaggedAt.Before(cutoff) {
				delete(videos, id)
			}
		}
		if len(videos) == 0 {
			delete(fs.flagged, target)
		}
	}
}

func (fs *FlagStore) load() error {
	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open flag store file: %w", err)
	}
	defer file.Close()

	var entries []flaggedVideo
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode flag store data: %w", err)
	}

	for _, entry := range entries {
		if fs.flagged[entry.Target] == nil {
			fs.flagged[entry.Target] = make(map[string]time.Time)
		}
		fs.flagged[entry.Target][entry.VideoID] = entry.FlaggedAt
	}
	return nil
}

func (fs *FlagStore) save() error {
	entries := make([]flaggedVideo, 0, len(fs.flagged))
	for target, videos := range fs.flagged {
		for id, flaggedAt := range videos {
			entries = append(entries, flaggedVideo{Target: target, VideoID: id, FlaggedAt: flaggedAt})
		}
	}

	file, err := os.Create(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to create flag store file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}
