package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/source"
)

const (
	githubBaseURL      = "https://github.com"
	maxTrendingRepos   = 10
	defaultTrendingURL = "https://github.com/trending/python?since=daily"
)

// GitHubTrendingAdapter scrapes the trending page. GitHub exposes no API for
// trending, so this is the one HTML-scraping source.
type GitHubTrendingAdapter struct {
	name   string
	url    string
	client *http.Client
}

var _ ports.SourceAdapter = (*GitHubTrendingAdapter)(nil)

// NewGitHubTrendingFactory returns the builder factory for kind
// "github-trending".
func NewGitHubTrendingFactory() source.Factory {
	return func(cfg config.SourceConfig, deps source.FactoryDeps) (ports.SourceAdapter, error) {
		url := defaultTrendingURL
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		return &GitHubTrendingAdapter{
			name:   cfg.Name,
			url:    url,
			client: defaultClient(deps.Client),
		}, nil
	}
}

// Name identifies the adapter inside the coordinator's report.
func (a *GitHubTrendingAdapter) Name() string { return a.name }

// Fetch downloads the trending page and extracts repository rows.
func (a *GitHubTrendingAdapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	doc, err := a.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}

	var items []domain.RawItem
	doc.Find("article.Box-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == maxTrendingRepos {
			return false
		}

		href, ok := row.Find("h2 a").First().Attr("href")
		if !ok {
			return true
		}
		repo := strings.TrimPrefix(strings.TrimSpace(href), "/")

		description := strings.TrimSpace(row.Find("p").First().Text())
		stars := strings.TrimSpace(row.Find("a[href$='/stargazers']").First().Text())

		summary := description
		if stars != "" {
			if summary != "" {
				summary += " "
			}
			summary += fmt.Sprintf("(%s stars)", stars)
		}

		items = append(items, domain.RawItem{
			Title:   repo,
			URL:     githubBaseURL + "/" + repo,
			Summary: summary,
			Extra:   map[string]string{"stars": stars},
		})
		return true
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("no trending rows found: %w", domain.ErrMalformed)
	}
	return items, nil
}

func (a *GitHubTrendingAdapter) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("request trending page: %w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w: %v", domain.ErrMalformed, err)
	}
	return doc, nil
}
