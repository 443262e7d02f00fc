// Package app wires configuration to collaborators and use cases.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"aidigest/internal/analysis"
	"aidigest/internal/config"
	"aidigest/internal/domain"
	"aidigest/internal/infrastructure/gemini"
	"aidigest/internal/infrastructure/report"
	"aidigest/internal/infrastructure/scheduler"
	"aidigest/internal/infrastructure/sources"
	"aidigest/internal/infrastructure/telegram"
	"aidigest/internal/logging"
	"aidigest/internal/ports"
	"aidigest/internal/retrieve"
	"aidigest/internal/source"
	"aidigest/internal/usecase"
)

// Application holds the wired pipeline and its lifecycle entry points.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	coordinator *retrieve.Coordinator
	model       ports.ModelClient
	workflow    *usecase.Workflow
	driver      ports.Scheduler
}

// New builds a runnable application instance. A missing Gemini API key is a
// configuration error: the pipeline cannot run without its model.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	builder := source.NewBuilder()
	builder.Register("rss", sources.NewRSSFactory())
	builder.Register("huggingface", sources.NewHuggingFaceFactory())
	builder.Register("reddit", sources.NewRedditFactory())
	builder.Register("github-trending", sources.NewGitHubTrendingFactory())

	regs, err := builder.Build(cfg.Retrieval.Sources, source.FactoryDeps{
		Client: &http.Client{Timeout: cfg.Retrieval.PerSourceTimeout.Std()},
		Logger: logging.Component(baseLogger, "sources"),
	})
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}

	coordinator := retrieve.New(regs, cfg.Retrieval.PerSourceTimeout.Std(),
		logging.Component(baseLogger, "retrieval"))

	model, err := gemini.New(ctx, cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("build model client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(cfg.Analysis.ModelCallsPerMinute)/60.0), 1)
	runner := analysis.NewRunner(model, limiter, analysis.RunnerConfig{
		BaseDelay: cfg.Analysis.RetryBaseDelay.Std(),
	}, logging.Component(baseLogger, "stage-runner"))

	specs := analysis.DefaultStages(analysis.StageDefaults{
		MaxRetries: cfg.Analysis.MaxRetries,
		Timeout:    cfg.Analysis.StageTimeout.Std(),
	})
	pipeline := analysis.NewPipeline(runner, specs,
		cfg.Analysis.Budget.Std(), cfg.Analysis.MaxParallel,
		logging.Component(baseLogger, "pipeline"))

	var sender ports.ReportSender
	if cfg.Email.From != "" && cfg.Email.To != "" {
		sender = report.NewSMTPSender(cfg.Email)
	}

	var notifier ports.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Telegram)
	}

	workflow := usecase.NewWorkflow(usecase.Deps{
		Fetcher:  coordinator,
		Analyzer: pipeline,
		Sender:   sender,
		Notifier: notifier,
		Render:   renderReport,
		Logger:   logging.Component(baseLogger, "workflow"),
	})

	driver, err := scheduler.NewDailyScheduler(cfg.Scheduler.At, cfg.Scheduler.Location())
	if err != nil {
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		coordinator: coordinator,
		model:       model,
		workflow:    workflow,
		driver:      driver,
	}, nil
}

// RunOnce executes a single run.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.workflow.Execute(ctx)
	return err
}

// Serve runs the daily schedule until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	sched := usecase.NewScheduler(a.driver, a.workflow)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "at", a.cfg.Scheduler.At, "timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Check exercises retrieval and the model connection without sending
// anything: each source is fetched once and the model is asked for a
// trivial completion.
func (a *Application) Check(ctx context.Context) error {
	_, results, err := a.coordinator.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("retrieval check: %w", err)
	}
	for _, res := range results {
		a.logger.Info("source check",
			"source", res.SourceName,
			"status", res.Status,
			"items", len(res.Items),
			"error", res.Err)
	}

	if _, err := a.model.Complete(ctx, "Reply with the single word OK.", ""); err != nil {
		return fmt.Errorf("model check: %w", err)
	}
	a.logger.Info("model check passed", "model", a.cfg.Gemini.Model)
	return nil
}

func renderReport(run *domain.RunReport, result domain.AnalysisResult) (usecase.RenderedReport, error) {
	rendered, err := report.Assemble(run, result)
	if err != nil {
		return usecase.RenderedReport{}, err
	}
	return usecase.RenderedReport{
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
		Text:    rendered.Text,
		Digest:  report.Summary(run, result),
	}, nil
}
