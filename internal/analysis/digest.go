package analysis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"aidigest/internal/domain"
)

const (
	maxItemsPerSource = 15
	maxDigestSummary  = 150
)

// BuildDigest renders the corpus into the compact text block stage prompts
// consume: grouped by source, capped per source, summaries clipped. Keeping
// the digest small keeps every stage inside the model context window.
func BuildDigest(items []domain.Item) string {
	if len(items) == 0 {
		return "No items were collected in this run."
	}

	grouped := make(map[string][]domain.Item)
	var order []string
	for _, item := range items {
		if _, ok := grouped[item.Source]; !ok {
			order = append(order, item.Source)
		}
		grouped[item.Source] = append(grouped[item.Source], item)
	}

	var b strings.Builder
	for _, src := range order {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(strings.ReplaceAll(src, "-", " ")))
		for i, item := range grouped[src] {
			if i == maxItemsPerSource {
				break
			}
			fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, item.Title, item.Category)
			if item.Summary != "" {
				fmt.Fprintf(&b, "   %s\n", clipDigest(item.Summary))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func clipDigest(s string) string {
	if len(s) <= maxDigestSummary {
		return s
	}
	cut := maxDigestSummary
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
