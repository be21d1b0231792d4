package models

import "time"

// RiskLevel is the classifier's per-video infringement-likelihood label.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Valid reports whether the level is one of the three recognized values.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

// Video is one candidate video as returned by the search stage. All fields
// come straight from the search API response, reshaped by renaming only.
type Video struct {
	VideoID      string               `json:"videoId"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	ChannelTitle string               `json:"channelTitle"`
	ChannelID    string               `json:"channelId"`
	PublishedAt  time.Time            `json:"publishedAt"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails,omitempty"`
	PublishTime  time.Time            `json:"publishTime"`
}
