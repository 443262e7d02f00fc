package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
	"aidigest/internal/source"
)

// CorpusFetcher is the retrieval boundary consumed by the workflow.
type CorpusFetcher interface {
	FetchAll(ctx context.Context) ([]domain.Item, []domain.SourceResult, error)
}

// Analyzer is the analysis boundary consumed by the workflow.
type Analyzer interface {
	Analyze(ctx context.Context, corpus []domain.Item) (domain.AnalysisResult, error)
}

// RenderedReport is what delivery collaborators receive.
type RenderedReport struct {
	Subject string
	HTML    string
	Text    string
	Digest  string
}

// RenderFunc turns the run outcome into deliverable form.
type RenderFunc func(run *domain.RunReport, result domain.AnalysisResult) (RenderedReport, error)

// Deps wires all collaborators into the run workflow. Sender, Notifier and
// Render are optional; a nil collaborator disables that delivery channel.
type Deps struct {
	Fetcher  CorpusFetcher
	Analyzer Analyzer
	Sender   ports.ReportSender
	Notifier ports.Notifier
	Render   RenderFunc
	Logger   *slog.Logger
}

// Workflow implements one end-to-end run: retrieval, analysis, report.
type Workflow struct {
	fetcher  CorpusFetcher
	analyzer Analyzer
	sender   ports.ReportSender
	notifier ports.Notifier
	render   RenderFunc
	logger   *slog.Logger
	now      func() time.Time
}

// NewWorkflow constructs the orchestration component.
func NewWorkflow(deps Deps) *Workflow {
	return &Workflow{
		fetcher:  deps.Fetcher,
		analyzer: deps.Analyzer,
		sender:   deps.Sender,
		notifier: deps.Notifier,
		render:   deps.Render,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Execute performs one run. Per-source and per-stage failures are absorbed
// into the report; only cancellation and configuration errors fail the run.
// Delivery failures are logged, not fatal: the next scheduled run retries
// naturally and delivery is not exactly-once.
func (w *Workflow) Execute(ctx context.Context) (*domain.RunReport, error) {
	run := &domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: w.now(),
	}
	w.info("run started", "run_id", run.RunID)

	items, sources, err := w.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	result, err := w.analyzer.Analyze(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	w.summarize(run, items, sources, result)

	if run.Outcome == domain.OutcomeEmpty {
		w.info("run produced no items, skipping delivery", "run_id", run.RunID)
		return run, nil
	}
	w.deliver(ctx, run, result)

	w.info("run finished",
		"run_id", run.RunID,
		"outcome", run.Outcome,
		"items", run.ItemCount,
		"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	return run, nil
}

func (w *Workflow) summarize(run *domain.RunReport, items []domain.Item, sources []domain.SourceResult, result domain.AnalysisResult) {
	run.ItemCount = len(items)
	run.Sources = sources
	run.Warnings = result.Warnings

	run.BySource = make(map[string]int)
	run.ByCategory = make(map[domain.Category]int)
	for _, item := range items {
		run.BySource[item.Source]++
		run.ByCategory[item.Category]++
	}
	run.ByImportance = source.CountByImportance(items)

	run.Stages = make(map[string]domain.StageStatus, len(result.Stages))
	for name, res := range result.Stages {
		run.Stages[name] = res.Status
	}

	run.Outcome = domain.ClassifyOutcome(sources, result)
	run.FinishedAt = w.now()
}

func (w *Workflow) deliver(ctx context.Context, run *domain.RunReport, result domain.AnalysisResult) {
	if w.render == nil {
		return
	}

	rendered, err := w.render(run, result)
	if err != nil {
		w.warn("report rendering failed", "run_id", run.RunID, "error", err)
		return
	}

	if w.sender != nil {
		if err := w.sender.Send(ctx, rendered.Subject, rendered.HTML, rendered.Text); err != nil {
			w.warn("report delivery failed", "run_id", run.RunID, "error", err)
		}
	}
	if w.notifier != nil && rendered.Digest != "" {
		if err := w.notifier.PublishDigest(ctx, rendered.Digest); err != nil {
			w.warn("digest notification failed", "run_id", run.RunID, "error", err)
		}
	}
}

func (w *Workflow) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Workflow) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
