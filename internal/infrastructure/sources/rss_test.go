package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/source"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Entry One</title>
      <link>https://example.org/1</link>
      <description>first summary</description>
      <pubDate>Mon, 24 Aug 2026 07:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Entry Two</title>
      <link>https://example.org/2</link>
      <description>second summary</description>
    </item>
  </channel>
</rss>`

func buildRSS(t *testing.T, urls []string) *RSSAdapter {
	t.Helper()
	adapter, err := NewRSSFactory()(config.SourceConfig{
		Name: "test-rss",
		URLs: urls,
	}, source.FactoryDeps{})
	require.NoError(t, err)
	return adapter.(*RSSAdapter)
}

func TestRSSFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	adapter := buildRSS(t, []string{server.URL})
	items, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "Entry One", items[0].Title)
	require.Equal(t, "https://example.org/1", items[0].URL)
	require.Equal(t, "first summary", items[0].Summary)
	require.Equal(t, time.Date(2026, time.August, 24, 7, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())
	require.Equal(t, "Test Feed", items[0].Extra["feed"])

	// No pubDate on the second entry leaves PublishedAt zero for the
	// normalizer to fill.
	require.True(t, items[1].PublishedAt.IsZero())
}

func TestRSSFetchSkipsFailingFeed(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testFeed)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	adapter := buildRSS(t, []string{bad.URL, good.URL})
	items, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestRSSFetchAllFeedsFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := buildRSS(t, []string{server.URL})
	_, err := adapter.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestRSSFactoryRequiresURLs(t *testing.T) {
	t.Parallel()

	_, err := NewRSSFactory()(config.SourceConfig{Name: "empty"}, source.FactoryDeps{})
	require.Error(t, err)
}
