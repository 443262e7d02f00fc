package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Category classifies what kind of content an item carries.
type Category string

const (
	CategoryPaper        Category = "paper"
	CategoryModelRelease Category = "model-release"
	CategoryTool         Category = "tool"
	CategoryDiscussion   Category = "discussion"
	CategoryNews         Category = "news"
	CategoryBlog         Category = "blog"
)

// RawItem is what a source adapter hands back before normalization.
// PublishedAt may be zero when the upstream payload carries no date.
type RawItem struct {
	Title       string
	URL         string
	Summary     string
	Author      string
	PublishedAt time.Time
	Extra       map[string]string
}

// Item is the canonical unit of retrieved content. Immutable once created;
// the corpus handed to analysis is read-only.
type Item struct {
	ID          string
	Source      string
	Category    Category
	Title       string
	URL         string
	Summary     string
	PublishedAt time.Time
	Raw         RawItem
}

// ItemID derives the stable dedup identifier from category, title and URL.
// The adapter name stays out of the hash so the same item surfaced by two
// different adapters carries the same id and dedups across sources.
func ItemID(category Category, title, url string) string {
	sum := sha256.Sum256([]byte(string(category) + "|" + title + "|" + url))
	return hex.EncodeToString(sum[:8])
}

// SourceStatus reports how a single adapter invocation ended.
type SourceStatus string

const (
	SourceOK       SourceStatus = "ok"
	SourceFailed   SourceStatus = "failed"
	SourceTimedOut SourceStatus = "timed-out"
)

// SourceResult is the per-adapter outcome for one run. Items holds every
// normalized item the adapter produced; Duplicates counts how many of them
// were suppressed during the cross-source merge.
type SourceResult struct {
	SourceName string
	Status     SourceStatus
	Items      []Item
	Err        error
	Duplicates int
	Duration   time.Duration
}
