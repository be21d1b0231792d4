package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"copyscan/internal/models"
	"copyscan/shared/config"

	"google.golang.org/genai"
)

// ErrMalformedOutput signals that the model reply could not be parsed into a
// batch analysis. It never propagates past the batch boundary.
var ErrMalformedOutput = errors.New("malformed classifier output")

type Classifier struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

func NewClassifier(cfg *config.AIConfig) (*Classifier, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Classifier{
		client:          client,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// ClassifyBatch sends one batch of video metadata to the model and parses the
// reply into a BatchAnalysis. The caller owns containment: an error here must
// never abort sibling batches.
func (c *Classifier) ClassifyBatch(ctx context.Context, batch []models.Video, userName, channelName string, batchNumber int) (*models.BatchAnalysis, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("batch %d is empty", batchNumber)
	}

	prompt, err := buildBatchPrompt(batch, userName, channelName)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt for batch %d: %w", batchNumber, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("classification request for batch %d failed: %w", batchNumber, err)
	}

	responseText := result.Text()
	if responseText == "" {
		return nil, fmt.Errorf("batch %d: %w: empty model response", batchNumber, ErrMalformedOutput)
	}

	analysis, err := ParseBatchAnalysis(responseText)
	if err != nil {
		return nil, fmt.Errorf("batch %d: %w", batchNumber, err)
	}

	return analysis, nil
}

// batchVideo is the slimmed metadata record embedded in the prompt.
type batchVideo struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	ChannelID    string `json:"channelId"`
	PublishedAt  string `json:"publishedAt"`
}

func buildBatchPrompt(batch []models.Video, userName, channelName string) (string, error) {
	records := make([]batchVideo, 0, len(batch))
	for _, v := range batch {
		records = append(records, batchVideo{
			VideoID:      v.VideoID,
			Title:        v.Title,
			Description:  truncateString(v.Description, 300),
			ChannelTitle: v.ChannelTitle,
			ChannelID:    v.ChannelID,
			PublishedAt:  v.PublishedAt.Format("2006-01-02"),
		})
	}

	metadata, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are assisting a rights holder with a first-pass triage of possible copyright infringement on YouTube. The rights holder is %q and their official channel is %q.

Classify EVERY video below with a risk level of "High", "Medium" or "Low" using these heuristics:
- If the video's channel title or channel ID exactly matches the official channel, it is the rights holder's own upload: classify it Low.
- Titles that exactly reproduce the rights holder's work titles, or contain strong reproduction keywords ("full album", "full movie", "complete", "rip", "reupload", "free download", "leaked"), weigh toward High.
- Transformative-content keywords ("reaction", "review", "cover", "tutorial", "analysis", "parody", "commentary") weigh toward Low or Medium.
- When the metadata is ambiguous, default to Medium.

VIDEO METADATA:
%s

Respond with EXACTLY ONE JSON object, no surrounding prose, in this shape:
{
  "summary": "2-3 sentence overview of what you found in this batch",
  "ranked_list": [
    {
      "videoId": "the videoId from the metadata",
      "title": "the video title",
      "channel": "the channel title",
      "publishedAt": "the published date",
      "risk": "High | Medium | Low",
      "rationale": ["short reason", "another short reason"]
    }
  ],
  "top_priority": ["videoIds that most urgently need human review"],
  "checklist": ["concrete verification steps for the rights holder"],
  "next_actions": ["recommended follow-up actions"],
  "disclaimer": "one sentence noting this is a heuristic triage, not a legal determination"
}

Order ranked_list from highest to lowest risk and include every video exactly once.`,
		userName,
		channelName,
		string(metadata),
	)

	return prompt, nil
}

// wireAnalysis is the JSON shape the model is asked to produce. The parser
// decodes into it rather than models.BatchAnalysis so that model output can
// never set the orchestrator-owned failed/batch_number bookkeeping fields.
type wireAnalysis struct {
	Summary     string             `json:"summary"`
	RankedList  []models.RiskEntry `json:"ranked_list"`
	TopPriority []string           `json:"top_priority"`
	Checklist   []string           `json:"checklist"`
	NextActions []string           `json:"next_actions"`
	Disclaimer  string             `json:"disclaimer"`
}

// ParseBatchAnalysis parses model output strictly as JSON first, then falls
// back to extracting the outermost bracketed object from the raw text before
// giving up.
func ParseBatchAnalysis(response string) (*models.BatchAnalysis, error) {
	trimmed := strings.TrimSpace(response)

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		extracted, ok := extractJSONObject(trimmed)
		if !ok {
			return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedOutput)
		}
		if err := json.Unmarshal([]byte(extracted), &wire); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
	}

	for i := range wire.RankedList {
		entry := &wire.RankedList[i]
		risk, ok := normalizeRisk(entry.Risk)
		if !ok {
			return nil, fmt.Errorf("%w: entry %q has invalid risk %q", ErrMalformedOutput, entry.VideoID, entry.Risk)
		}
		entry.Risk = risk
	}

	analysis := &models.BatchAnalysis{
		Summary:     wire.Summary,
		RankedList:  wire.RankedList,
		TopPriority: wire.TopPriority,
		Checklist:   wire.Checklist,
		NextActions: wire.NextActions,
		Disclaimer:  wire.Disclaimer,
	}

	// Keep the list fields non-nil so merged output always serializes as arrays.
	if analysis.RankedList == nil {
		analysis.RankedList = []models.RiskEntry{}
	}
	if analysis.TopPriority == nil {
		analysis.TopPriority = []string{}
	}
	if analysis.Checklist == nil {
		analysis.Checklist = []string{}
	}
	if analysis.NextActions == nil {
		analysis.NextActions = []string{}
	}

	return analysis, nil
}

// extractJSONObject returns the outermost {...} span of the text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func normalizeRisk(risk models.RiskLevel) (models.RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(string(risk))) {
	case "high":
		return models.RiskHigh, true
	case "medium":
		return models.RiskMedium, true
	case "low":
		return models.RiskLow, true
	}
	return risk, false
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
