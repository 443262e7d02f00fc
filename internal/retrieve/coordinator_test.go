package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aidigest/internal/domain"
	"aidigest/internal/source"
)

type fakeAdapter struct {
	name  string
	items []domain.RawItem
	err   error
	delay time.Duration
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.items, f.err
}

func reg(name string, category domain.Category, adapter *fakeAdapter) source.Registration {
	return source.Registration{Name: name, Category: category, Adapter: adapter}
}

func TestFetchAllMergesAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	// A returns two items, B times out, C returns one duplicate of A's first
	// item. The corpus must hold A's two plus nothing from C's duplicate.
	shared := domain.RawItem{Title: "Shared Paper", URL: "https://example.org/shared"}
	regs := []source.Registration{
		reg("alpha", domain.CategoryPaper, &fakeAdapter{
			name:  "alpha",
			items: []domain.RawItem{shared, {Title: "Second", URL: "https://example.org/second"}},
		}),
		reg("beta", domain.CategoryNews, &fakeAdapter{name: "beta", delay: time.Second}),
		reg("gamma", domain.CategoryPaper, &fakeAdapter{name: "gamma", items: []domain.RawItem{shared}}),
	}

	c := New(regs, 50*time.Millisecond, nil)
	items, results, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, domain.SourceOK, results[0].Status)
	require.Equal(t, domain.SourceTimedOut, results[1].Status)
	require.Error(t, results[1].Err)
	require.Equal(t, domain.SourceOK, results[2].Status)
	require.Equal(t, 1, results[2].Duplicates)

	require.Len(t, items, 2)
	require.Equal(t, "Shared Paper", items[0].Title)
	require.Equal(t, "alpha", items[0].Source)
	require.Equal(t, "Second", items[1].Title)
}

func TestFetchAllDeterministicOrder(t *testing.T) {
	t.Parallel()

	// The slow source registers first, so its items must still lead the
	// corpus regardless of completion order.
	regs := []source.Registration{
		reg("slow", domain.CategoryNews, &fakeAdapter{
			name:  "slow",
			delay: 30 * time.Millisecond,
			items: []domain.RawItem{{Title: "From Slow", URL: "https://example.org/slow"}},
		}),
		reg("fast", domain.CategoryNews, &fakeAdapter{
			name:  "fast",
			items: []domain.RawItem{{Title: "From Fast", URL: "https://example.org/fast"}},
		}),
	}

	c := New(regs, time.Second, nil)
	for range 3 {
		items, _, err := c.FetchAll(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "From Slow", items[0].Title)
		require.Equal(t, "From Fast", items[1].Title)
	}
}

func TestFetchAllEmptyRegistry(t *testing.T) {
	t.Parallel()

	c := New(nil, time.Second, nil)
	_, _, err := c.FetchAll(context.Background())
	require.ErrorIs(t, err, domain.ErrNoAdapters)
}

func TestFetchAllAllSourcesFail(t *testing.T) {
	t.Parallel()

	regs := []source.Registration{
		reg("one", domain.CategoryNews, &fakeAdapter{name: "one", err: errors.New("boom")}),
		reg("two", domain.CategoryNews, &fakeAdapter{name: "two", err: domain.ErrUnavailable}),
	}

	c := New(regs, time.Second, nil)
	items, results, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
	require.Equal(t, domain.SourceFailed, results[0].Status)
	require.Equal(t, domain.SourceFailed, results[1].Status)
}

func TestFetchAllRunCancellation(t *testing.T) {
	t.Parallel()

	regs := []source.Registration{
		reg("hang", domain.CategoryNews, &fakeAdapter{name: "hang", delay: time.Second}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := New(regs, 10*time.Second, nil)
	items, results, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
	// Cancellation marks the source failed, not timed out.
	require.Equal(t, domain.SourceFailed, results[0].Status)
	require.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestFetchAllNormalizesItems(t *testing.T) {
	t.Parallel()

	regs := []source.Registration{
		reg("arxiv", domain.CategoryPaper, &fakeAdapter{
			name:  "arxiv",
			items: []domain.RawItem{{Title: "  Spaced Title  ", URL: " https://example.org/x "}},
		}),
	}

	c := New(regs, time.Second, nil)
	items, _, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Spaced Title", items[0].Title)
	require.Equal(t, domain.CategoryPaper, items[0].Category)
	require.Equal(t, domain.ItemID(domain.CategoryPaper, "Spaced Title", "https://example.org/x"), items[0].ID)
	require.False(t, items[0].PublishedAt.IsZero())
}
