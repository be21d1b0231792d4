package pipeline

import (
	"fmt"
	"testing"

	"copyscan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, risk models.RiskLevel) models.RiskEntry {
	return models.RiskEntry{VideoID: id, Title: "t-" + id, Risk: risk}
}

func okBatch(n int, entries []models.RiskEntry, priority ...string) *models.BatchAnalysis {
	if priority == nil {
		priority = []string{}
	}
	return &models.BatchAnalysis{
		Summary:     fmt.Sprintf("batch %d", n),
		RankedList:  entries,
		TopPriority: priority,
		Checklist:   []string{fmt.Sprintf("checklist from batch %d", n)},
		NextActions: []string{fmt.Sprintf("actions from batch %d", n)},
		Disclaimer:  fmt.Sprintf("disclaimer from batch %d", n),
		BatchNumber: n,
	}
}

func failedBatchAnalysis(n int) *models.BatchAnalysis {
	return &models.BatchAnalysis{
		RankedList:  []models.RiskEntry{},
		TopPriority: []string{},
		Checklist:   []string{},
		NextActions: []string{},
		Disclaimer:  DefaultDisclaimer,
		Failed:      true,
		BatchNumber: n,
	}
}

func TestMergeSortsBySeverityStably(t *testing.T) {
	analyses := []*models.BatchAnalysis{
		okBatch(1, []models.RiskEntry{
			entry("a", models.RiskMedium),
			entry("b", models.RiskLow),
		}),
		okBatch(2, []models.RiskEntry{
			entry("c", models.RiskHigh),
			entry("d", models.RiskMedium),
		}),
		okBatch(3, []models.RiskEntry{
			entry("e", models.RiskHigh),
			entry("f", models.RiskMedium),
		}),
	}

	final := Merge(analyses, 10)

	var order []string
	for _, e := range final.RankedList {
		order = append(order, e.VideoID)
	}

	// High before Medium before Low; equal risks keep their input order.
	assert.Equal(t, []string{"c", "e", "a", "d", "f", "b"}, order)
}

func TestMergeDeduplicatesAndTruncatesTopPriority(t *testing.T) {
	analyses := []*models.BatchAnalysis{
		okBatch(1, nil, "v1", "v2", "v3", "v1"),
		okBatch(2, nil, "v2", "v4", "v5", "v6"),
		okBatch(3, nil, "v7", "v8", "v9", "v10", "v11", "v12"),
	}

	final := Merge(analyses, 10)

	require.Len(t, final.TopPriority, 10)
	seen := map[string]bool{}
	for _, id := range final.TopPriority {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	// First-occurrence order is preserved.
	assert.Equal(t, []string{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8", "v9", "v10"}, final.TopPriority)
}

func TestMergeTakesChecklistFromFirstSuccessfulBatch(t *testing.T) {
	analyses := []*models.BatchAnalysis{
		failedBatchAnalysis(1),
		okBatch(2, []models.RiskEntry{entry("a", models.RiskLow)}),
		okBatch(3, []models.RiskEntry{entry("b", models.RiskHigh)}),
	}

	final := Merge(analyses, 10)

	assert.Equal(t, []string{"checklist from batch 2"}, final.Checklist)
	assert.Equal(t, []string{"actions from batch 2"}, final.NextActions)
	assert.Equal(t, "disclaimer from batch 2", final.Disclaimer)
	assert.Equal(t, 3, final.BatchCount)
	assert.Equal(t, 1, final.FailedBatches)
}

func TestMergeAllBatchesFailed(t *testing.T) {
	analyses := []*models.BatchAnalysis{
		failedBatchAnalysis(1),
		failedBatchAnalysis(2),
	}

	final := Merge(analyses, 10)

	assert.Equal(t, 2, final.BatchCount)
	assert.Equal(t, 2, final.FailedBatches)
	assert.Empty(t, final.RankedList)
	assert.Empty(t, final.TopPriority)
	assert.Empty(t, final.Checklist)
	assert.Empty(t, final.NextActions)
	assert.Equal(t, DefaultDisclaimer, final.Disclaimer)
}

func TestMergeSummaryQualifier(t *testing.T) {
	t.Run("ElevatedRiskPresent", func(t *testing.T) {
		final := Merge([]*models.BatchAnalysis{
			okBatch(1, []models.RiskEntry{
				entry("a", models.RiskHigh),
				entry("b", models.RiskMedium),
				entry("c", models.RiskLow),
			}),
		}, 10)
		assert.Contains(t, final.Summary, "2 of 3")
		assert.Contains(t, final.Summary, "prioritize")
	})

	t.Run("NothingElevated", func(t *testing.T) {
		final := Merge([]*models.BatchAnalysis{
			okBatch(1, []models.RiskEntry{entry("a", models.RiskLow)}),
		}, 10)
		assert.Contains(t, final.Summary, "None of the 1")
		assert.Contains(t, final.Summary, "No immediate action")
	})
}

func TestMergeIdempotent(t *testing.T) {
	analyses := []*models.BatchAnalysis{
		okBatch(1, []models.RiskEntry{
			entry("a", models.RiskMedium),
			entry("b", models.RiskHigh),
		}, "b"),
		okBatch(2, []models.RiskEntry{
			entry("c", models.RiskHigh),
			entry("d", models.RiskLow),
		}, "c", "b"),
	}

	first := Merge(analyses, 10)

	// Re-merge the merged output wrapped as a single successful batch.
	second := Merge([]*models.BatchAnalysis{{
		Summary:     first.Summary,
		RankedList:  first.RankedList,
		TopPriority: first.TopPriority,
		Checklist:   first.Checklist,
		NextActions: first.NextActions,
		Disclaimer:  first.Disclaimer,
	}}, 10)

	assert.Equal(t, first.RankedList, second.RankedList)
	assert.Equal(t, first.TopPriority, second.TopPriority)
}
