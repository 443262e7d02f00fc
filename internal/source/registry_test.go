package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

type nopAdapter struct{ name string }

func (n *nopAdapter) Name() string                                    { return n.name }
func (n *nopAdapter) Fetch(context.Context) ([]domain.RawItem, error) { return nil, nil }

func nopFactory(cfg config.SourceConfig, _ FactoryDeps) (ports.SourceAdapter, error) {
	return &nopAdapter{name: cfg.Name}, nil
}

func TestBuildPreservesConfigOrder(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Register("rss", nopFactory)
	b.Register("reddit", nopFactory)

	regs, err := b.Build([]config.SourceConfig{
		{Name: "arxiv", Kind: "rss", Category: "paper"},
		{Name: "reddit", Kind: "reddit", Category: "discussion"},
		{Name: "ai-news", Kind: "rss", Category: "news"},
	}, FactoryDeps{})
	require.NoError(t, err)
	require.Len(t, regs, 3)
	require.Equal(t, "arxiv", regs[0].Name)
	require.Equal(t, domain.CategoryPaper, regs[0].Category)
	require.Equal(t, "reddit", regs[1].Name)
	require.Equal(t, "ai-news", regs[2].Name)
}

func TestBuildUnknownKind(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	_, err := b.Build([]config.SourceConfig{
		{Name: "mystery", Kind: "carrier-pigeon", Category: "news"},
	}, FactoryDeps{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "carrier-pigeon")
}

func TestBuildUnknownCategory(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Register("rss", nopFactory)
	_, err := b.Build([]config.SourceConfig{
		{Name: "arxiv", Kind: "rss", Category: "gossip"},
	}, FactoryDeps{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown category")
}
