package source

import (
	"strings"

	"aidigest/internal/domain"
)

// Keyword buckets mirror how editors triage headlines: launches and named
// frontier models outrank incremental improvements.
var (
	criticalKeywords = []string{"breakthrough", "release", "launches", "announces", "gpt", "gemini", "claude"}
	highKeywords     = []string{"improves", "enhances", "new model", "open source", "open-source"}
)

// ClassifyImportance buckets one item by title keywords and category.
func ClassifyImportance(item domain.Item) domain.Importance {
	title := strings.ToLower(item.Title)

	for _, kw := range criticalKeywords {
		if strings.Contains(title, kw) {
			return domain.ImportanceCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(title, kw) {
			return domain.ImportanceHigh
		}
	}
	if item.Category == domain.CategoryPaper {
		return domain.ImportanceMedium
	}
	return domain.ImportanceLow
}

// CountByImportance tallies the whole corpus for the run report.
func CountByImportance(items []domain.Item) map[domain.Importance]int {
	counts := make(map[domain.Importance]int)
	for _, item := range items {
		counts[ClassifyImportance(item)]++
	}
	return counts
}
