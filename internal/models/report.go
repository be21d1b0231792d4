package models

// RiskEntry is one video's classification as produced for a single batch.
type RiskEntry struct {
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	PublishedAt string    `json:"publishedAt"`
	Risk        RiskLevel `json:"risk"`
	Rationale   []string  `json:"rationale"`
}

// BatchAnalysis is one batch's structured classifier output. When a batch's
// classification call fails, Failed is set, the list fields are empty and
// BatchNumber records which batch was lost.
type BatchAnalysis struct {
	Summary     string      `json:"summary"`
	RankedList  []RiskEntry `json:"ranked_list"`
	TopPriority []string    `json:"top_priority"`
	Checklist   []string    `json:"checklist"`
	NextActions []string    `json:"next_actions"`
	Disclaimer  string      `json:"disclaimer"`
	Failed      bool        `json:"failed,omitempty"`
	BatchNumber int         `json:"batch_number,omitempty"`
}

// FinalAnalysis is the merged view over every batch, successful or not.
type FinalAnalysis struct {
	Summary       string      `json:"summary"`
	RankedList    []RiskEntry `json:"ranked_list"`
	TopPriority   []string    `json:"top_priority"`
	Checklist     []string    `json:"checklist"`
	NextActions   []string    `json:"next_actions"`
	Disclaimer    string      `json:"disclaimer"`
	BatchCount    int         `json:"batch_count"`
	FailedBatches int         `json:"failed_batches"`
}

// FailedBatchDetail records why one batch produced no analysis.
type FailedBatchDetail struct {
	BatchNumber int    `json:"batchNumber"`
	Error       string `json:"error"`
	BatchSize   int    `json:"batchSize"`
}

// Report is the full response payload for one analyze request. Reports are
// built per request and never persisted.
type Report struct {
	UserName           string              `json:"userName"`
	ChannelName        string              `json:"channelName"`
	TotalVideosFound   int                 `json:"totalVideosFound"`
	BatchesAnalyzed    int                 `json:"batchesAnalyzed"`
	BatchesFailed      int                 `json:"batchesFailed"`
	FailedBatchDetails []FailedBatchDetail `json:"failedBatchDetails"`
	Videos             []Video             `json:"videos"`
	Analysis           FinalAnalysis       `json:"analysis"`
}
