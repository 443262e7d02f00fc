package analysis

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"aidigest/internal/domain"
)

func TestBuildDigestGroupsBySource(t *testing.T) {
	t.Parallel()

	items := []domain.Item{
		{Source: "arxiv", Category: domain.CategoryPaper, Title: "Paper One", Summary: "short"},
		{Source: "github-trending", Category: domain.CategoryTool, Title: "some/repo"},
		{Source: "arxiv", Category: domain.CategoryPaper, Title: "Paper Two"},
	}

	digest := BuildDigest(items)
	require.Contains(t, digest, "ARXIV:")
	require.Contains(t, digest, "GITHUB TRENDING:")
	require.Contains(t, digest, "1. Paper One [paper]")
	require.Contains(t, digest, "2. Paper Two [paper]")
	require.Less(t, strings.Index(digest, "ARXIV:"), strings.Index(digest, "GITHUB TRENDING:"))
}

func TestBuildDigestCapsItemsAndClipsSummaries(t *testing.T) {
	t.Parallel()

	var items []domain.Item
	for i := 0; i < maxItemsPerSource+5; i++ {
		items = append(items, domain.Item{
			Source:  "reddit",
			Title:   "post",
			Summary: strings.Repeat("a", maxDigestSummary+50),
		})
	}

	digest := BuildDigest(items)
	require.Equal(t, maxItemsPerSource, strings.Count(digest, "post ["))
	require.Contains(t, digest, strings.Repeat("a", maxDigestSummary)+"...")
	require.NotContains(t, digest, strings.Repeat("a", maxDigestSummary+1))
}

func TestBuildDigestClipsOnRuneBoundary(t *testing.T) {
	t.Parallel()

	items := []domain.Item{{
		Source:  "arxiv",
		Title:   "multibyte abstract",
		Summary: "x" + strings.Repeat("語", maxDigestSummary),
	}}

	digest := BuildDigest(items)
	require.True(t, utf8.ValidString(digest))
	require.Contains(t, digest, "...")
}

func TestBuildDigestEmptyCorpus(t *testing.T) {
	t.Parallel()

	require.Equal(t, "No items were collected in this run.", BuildDigest(nil))
}
