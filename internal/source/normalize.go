package source

import (
	"strings"
	"time"
	"unicode/utf8"

	"aidigest/internal/domain"
)

const maxSummaryLen = 500

// Normalize maps a source-specific RawItem into the canonical Item. A zero
// PublishedAt defaults to the retrieval time.
func Normalize(sourceName string, category domain.Category, raw domain.RawItem, retrievedAt time.Time) domain.Item {
	title := strings.TrimSpace(raw.Title)
	url := strings.TrimSpace(raw.URL)

	published := raw.PublishedAt
	if published.IsZero() {
		published = retrievedAt
	}

	return domain.Item{
		ID:          domain.ItemID(category, title, url),
		Source:      sourceName,
		Category:    category,
		Title:       title,
		URL:         url,
		Summary:     clip(strings.TrimSpace(raw.Summary), maxSummaryLen),
		PublishedAt: published,
		Raw:         raw,
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so a multibyte character is never split.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
