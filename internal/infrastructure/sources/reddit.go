package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/source"
)

const (
	redditPostsPerSub = 5
	redditBaseURL     = "https://www.reddit.com"
)

// RedditAdapter pulls hot posts from a configurable set of AI subreddits.
type RedditAdapter struct {
	name       string
	baseURL    string
	subreddits []string
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.SourceAdapter = (*RedditAdapter)(nil)

// NewRedditFactory returns the builder factory for kind "reddit". The
// subreddit list comes from the "subreddits" option, comma-separated.
func NewRedditFactory() source.Factory {
	return func(cfg config.SourceConfig, deps source.FactoryDeps) (ports.SourceAdapter, error) {
		raw := cfg.Options["subreddits"]
		if raw == "" {
			return nil, fmt.Errorf("reddit source needs a subreddits option")
		}
		var subs []string
		for _, sub := range strings.Split(raw, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				subs = append(subs, sub)
			}
		}
		return &RedditAdapter{
			name:       cfg.Name,
			baseURL:    redditBaseURL,
			subreddits: subs,
			client:     defaultClient(deps.Client),
			logger:     deps.Logger,
		}, nil
	}
}

// Name identifies the adapter inside the coordinator's report.
func (a *RedditAdapter) Name() string { return a.name }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Permalink   string  `json:"permalink"`
				Selftext    string  `json:"selftext"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch collects hot posts per subreddit. A subreddit that fails is skipped
// as long as another succeeds; when all fail the first error is surfaced.
func (a *RedditAdapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	var items []domain.RawItem
	var firstErr error

	for _, sub := range a.subreddits {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", a.baseURL, sub, redditPostsPerSub)
		var listing redditListing
		if err := getJSON(ctx, a.client, url, &listing); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if a.logger != nil {
				a.logger.Warn("subreddit skipped", "source", a.name, "subreddit", sub, "error", err)
			}
			continue
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			summary := post.Selftext
			if summary == "" {
				summary = fmt.Sprintf("score %d, %d comments", post.Score, post.NumComments)
			}
			items = append(items, domain.RawItem{
				Title:       post.Title,
				URL:         "https://www.reddit.com" + post.Permalink,
				Summary:     summary,
				PublishedAt: time.Unix(int64(post.CreatedUTC), 0).UTC(),
				Extra: map[string]string{
					"subreddit": sub,
					"score":     fmt.Sprintf("%d", post.Score),
				},
			})
		}
	}

	if len(items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}
