// Package retrieve fans out over registered source adapters and merges their
// output into one deduplicated corpus.
package retrieve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"aidigest/internal/domain"
	"aidigest/internal/source"
)

// Coordinator runs all adapters concurrently, isolates per-source failures
// and aggregates normalized items plus a per-source status report.
type Coordinator struct {
	regs             []source.Registration
	perSourceTimeout time.Duration
	logger           *slog.Logger
	now              func() time.Time
}

// New wires the ordered adapter registrations. The registration order, not
// the completion order, determines the merged item sequence.
func New(regs []source.Registration, perSourceTimeout time.Duration, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		regs:             regs,
		perSourceTimeout: perSourceTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// FetchAll launches one unit of work per adapter, each under its own
// deadline, waits for every unit to finish and merges successful results.
// A run with zero successful sources still returns normally; only an empty
// registry is an error.
func (c *Coordinator) FetchAll(ctx context.Context) ([]domain.Item, []domain.SourceResult, error) {
	if len(c.regs) == 0 {
		return nil, nil, domain.ErrNoAdapters
	}

	results := make([]domain.SourceResult, len(c.regs))

	var g errgroup.Group
	for i, reg := range c.regs {
		g.Go(func() error {
			results[i] = c.fetchOne(ctx, reg)
			return nil
		})
	}
	// Unit errors are folded into SourceResults, never returned.
	_ = g.Wait()

	items := c.merge(results)

	c.debug("retrieval complete",
		"sources", len(c.regs),
		"items", len(items))

	return items, results, nil
}

// fetchOne invokes a single adapter under its own deadline and folds the
// outcome into a SourceResult. Failures never propagate.
func (c *Coordinator) fetchOne(ctx context.Context, reg source.Registration) domain.SourceResult {
	res := domain.SourceResult{SourceName: reg.Name}
	start := c.now()

	fctx, cancel := context.WithTimeout(ctx, c.perSourceTimeout)
	defer cancel()

	raws, err := reg.Adapter.Fetch(fctx)
	res.Duration = c.now().Sub(start)

	if err != nil {
		res.Status = classifyFailure(ctx, fctx, err)
		res.Err = err
		c.debug("source failed", "source", reg.Name, "status", res.Status, "error", err)
		return res
	}

	retrievedAt := c.now()
	res.Status = domain.SourceOK
	res.Items = make([]domain.Item, 0, len(raws))
	for _, raw := range raws {
		res.Items = append(res.Items, source.Normalize(reg.Name, reg.Category, raw, retrievedAt))
	}
	c.debug("source ok", "source", reg.Name, "items", len(res.Items), "duration", res.Duration)
	return res
}

// merge walks results in registration order, keeping the first occurrence of
// each item id and counting suppressed duplicates against the source that
// produced them.
func (c *Coordinator) merge(results []domain.SourceResult) []domain.Item {
	seen := make(map[string]struct{})
	var items []domain.Item

	for i := range results {
		if results[i].Status != domain.SourceOK {
			continue
		}
		for _, item := range results[i].Items {
			if _, dup := seen[item.ID]; dup {
				results[i].Duplicates++
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

func classifyFailure(runCtx, fetchCtx context.Context, err error) domain.SourceStatus {
	// The run-level signal takes priority: a cancelled run marks the source
	// failed (reason cancelled), not timed out.
	if runCtx.Err() != nil {
		return domain.SourceFailed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return domain.SourceTimedOut
	}
	return domain.SourceFailed
}

func (c *Coordinator) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
