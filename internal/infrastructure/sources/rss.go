package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/source"
)

const maxItemsPerFeed = 10

// RSSAdapter fetches one or more RSS/Atom feeds and flattens their entries.
// It backs the arXiv, PapersWithCode, news and company-blog sources.
type RSSAdapter struct {
	name   string
	urls   []string
	client *http.Client
	logger *slog.Logger
}

var _ ports.SourceAdapter = (*RSSAdapter)(nil)

// NewRSSFactory returns the builder factory for kind "rss".
func NewRSSFactory() source.Factory {
	return func(cfg config.SourceConfig, deps source.FactoryDeps) (ports.SourceAdapter, error) {
		if len(cfg.URLs) == 0 {
			return nil, fmt.Errorf("rss source needs at least one feed url")
		}
		return &RSSAdapter{
			name:   cfg.Name,
			urls:   cfg.URLs,
			client: defaultClient(deps.Client),
			logger: deps.Logger,
		}, nil
	}
}

// Name identifies the adapter inside the coordinator's report.
func (a *RSSAdapter) Name() string { return a.name }

// Fetch parses each configured feed and returns up to maxItemsPerFeed
// entries per feed. A feed that fails is skipped as long as another one
// succeeds; when every feed fails the first error is surfaced.
func (a *RSSAdapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	parser := gofeed.NewParser()
	parser.Client = a.client
	parser.UserAgent = userAgent

	var items []domain.RawItem
	var firstErr error

	for _, feedURL := range a.urls {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		feed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			err = classifyFeedError(feedURL, err)
			if firstErr == nil {
				firstErr = err
			}
			if a.logger != nil {
				a.logger.Warn("feed skipped", "source", a.name, "url", feedURL, "error", err)
			}
			continue
		}

		for i, entry := range feed.Items {
			if i == maxItemsPerFeed {
				break
			}
			items = append(items, rawFromEntry(entry, feed.Title))
		}
	}

	if len(items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}

func rawFromEntry(entry *gofeed.Item, feedTitle string) domain.RawItem {
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	author := ""
	if len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	raw := domain.RawItem{
		Title:   entry.Title,
		URL:     entry.Link,
		Summary: summary,
		Author:  author,
		Extra:   map[string]string{"feed": feedTitle, "guid": entry.GUID},
	}
	if entry.PublishedParsed != nil {
		raw.PublishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		raw.PublishedAt = *entry.UpdatedParsed
	}
	return raw
}

func classifyFeedError(feedURL string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 429 {
			return fmt.Errorf("feed %s: %w", feedURL, domain.ErrRateLimited)
		}
		return fmt.Errorf("feed %s returned %s: %w", feedURL, httpErr.Status, domain.ErrUnavailable)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("feed %s: %w: %v", feedURL, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("feed %s: %w: %v", feedURL, domain.ErrMalformed, err)
}
