package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/source"
)

func buildHF(t *testing.T, url string) *HuggingFaceAdapter {
	t.Helper()
	adapter, err := NewHuggingFaceFactory()(config.SourceConfig{
		Name: "huggingface",
		URLs: []string{url},
	}, source.FactoryDeps{})
	require.NoError(t, err)
	return adapter.(*HuggingFaceAdapter)
}

func TestHuggingFaceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": "org/model-a", "pipeline_tag": "text-generation", "downloads": 12345, "likes": 67},
			{"id": "org/model-b", "downloads": 10},
			{"id": "", "downloads": 1}
		]`)
	}))
	defer server.Close()

	items, err := buildHF(t, server.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "org/model-a", items[0].Title)
	require.Equal(t, "https://huggingface.co/org/model-a", items[0].URL)
	require.Contains(t, items[0].Summary, "text-generation model, 12345 downloads, 67 likes")
	require.Contains(t, items[1].Summary, "unknown model")
}

func TestHuggingFaceRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := buildHF(t, server.URL).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestHuggingFaceMalformedBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	_, err := buildHF(t, server.URL).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrMalformed)
}
