package pipeline

import (
	"fmt"
	"sort"

	"copyscan/internal/models"
)

// DefaultTopPriorityLimit caps the merged top_priority list.
const DefaultTopPriorityLimit = 10

// DefaultDisclaimer is used when no successful batch contributed one.
const DefaultDisclaimer = "This is an automated heuristic triage, not a legal determination. Verify every entry manually before acting on it."

// Merge combines all batch analyses into one final analysis. It is a pure
// function of its inputs: no network calls, deterministic for a given batch
// order.
func Merge(analyses []*models.BatchAnalysis, topPriorityLimit int) models.FinalAnalysis {
	if topPriorityLimit <= 0 {
		topPriorityLimit = DefaultTopPriorityLimit
	}

	final := models.FinalAnalysis{
		RankedList:  []models.RiskEntry{},
		TopPriority: []string{},
		Checklist:   []string{},
		NextActions: []string{},
		BatchCount:  len(analyses),
	}

	var priorityIDs []string
	for _, analysis := range analyses {
		if analysis.Failed {
			final.FailedBatches++
			continue
		}
		final.RankedList = append(final.RankedList, analysis.RankedList...)
		priorityIDs = append(priorityIDs, analysis.TopPriority...)
	}

	// Stable sort: entries of equal risk keep their batch-order position.
	sort.SliceStable(final.RankedList, func(i, j int) bool {
		return severityRank(final.RankedList[i].Risk) < severityRank(final.RankedList[j].Risk)
	})

	seen := make(map[string]bool)
	for _, id := range priorityIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		final.TopPriority = append(final.TopPriority, id)
		if len(final.TopPriority) == topPriorityLimit {
			break
		}
	}

	// Checklist, next actions and disclaimer come verbatim from the first
	// batch that did not fail.
	for _, analysis := range analyses {
		if analysis.Failed {
			continue
		}
		if analysis.Checklist != nil {
			final.Checklist = analysis.Checklist
		}
		if analysis.NextActions != nil {
			final.NextActions = analysis.NextActions
		}
		final.Disclaimer = analysis.Disclaimer
		break
	}
	if final.Disclaimer == "" {
		final.Disclaimer = DefaultDisclaimer
	}

	final.Summary = synthesizeSummary(final.RankedList)

	return final
}

func severityRank(risk models.RiskLevel) int {
	switch risk {
	case models.RiskHigh:
		return 0
	case models.RiskMedium:
		return 1
	case models.RiskLow:
		return 2
	}
	return 3
}

func synthesizeSummary(entries []models.RiskEntry) string {
	elevated := 0
	for _, entry := range entries {
		if entry.Risk == models.RiskHigh || entry.Risk == models.RiskMedium {
			elevated++
		}
	}

	if elevated > 0 {
		return fmt.Sprintf("%d of %d analyzed videos were classified as High or Medium copyright-infringement risk. Review the ranked list and prioritize the flagged entries.", elevated, len(entries))
	}
	return fmt.Sprintf("None of the %d analyzed videos were classified above Low risk. No immediate action appears necessary.", len(entries))
}
