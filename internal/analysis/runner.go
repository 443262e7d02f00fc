package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"aidigest/internal/domain"
	"aidigest/internal/ports"
)

// StageInput is everything a stage prompt may reference: the corpus digest
// and the payloads of declared predecessors, serialized as compact JSON.
// A failed predecessor appears as an empty object.
type StageInput struct {
	Digest string
	Deps   map[string]string
}

// RunnerConfig tunes the retry backoff. Base delay doubles per attempt with
// ±20% jitter so retries across stages do not synchronize.
type RunnerConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Runner executes a single structured-output model call with parsing,
// validation and retry. The rate limiter is shared across all stages and
// enforces the provider's per-minute call quota.
type Runner struct {
	model   ports.ModelClient
	limiter *rate.Limiter
	cfg     RunnerConfig
	logger  *slog.Logger
}

// NewRunner wires the model client and the shared quota limiter.
func NewRunner(model ports.ModelClient, limiter *rate.Limiter, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = time.Minute
	}
	return &Runner{model: model, limiter: limiter, cfg: cfg, logger: logger}
}

// Run executes one stage. Transient failures (rate limit, transport,
// timeout) are retried up to spec.MaxRetries times; a response that parses
// badly is final and reported degraded or failed without retry. Run never
// returns an error: every execution produces a StageResult.
func (r *Runner) Run(ctx context.Context, spec domain.StageSpec, input StageInput) domain.StageResult {
	start := time.Now()

	prompt, err := renderPrompt(spec, input)
	if err != nil {
		return domain.StageResult{
			Name:     spec.Name,
			Status:   domain.StageFailed,
			Attempts: 0,
			Err:      fmt.Errorf("render prompt: %w", err),
			Duration: time.Since(start),
		}
	}
	hint := schemaHint(spec.OutputSchema)

	attempts := 0
	op := func() (domain.StageResult, error) {
		attempts++
		res, err := r.attempt(ctx, spec, prompt, hint)
		if err != nil {
			if domain.IsTransient(err) {
				r.debug("stage attempt failed", "stage", spec.Name, "attempt", attempts, "error", err)
				return domain.StageResult{}, err
			}
			return domain.StageResult{}, backoff.Permanent(err)
		}
		return res, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.BaseDelay
	bo.RandomizationFactor = 0.2
	bo.Multiplier = 2
	bo.MaxInterval = r.cfg.MaxDelay

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(spec.MaxRetries+1)))
	if err != nil {
		res = domain.StageResult{Status: domain.StageFailed, Err: err}
	}

	res.Name = spec.Name
	res.Attempts = attempts
	res.Duration = time.Since(start)

	r.debug("stage finished",
		"stage", spec.Name,
		"status", res.Status,
		"attempts", res.Attempts,
		"duration", res.Duration)
	return res
}

// attempt performs one timed call: quota wait, model request, parse. A nil
// error means the result is final, whatever its status; a non-nil error is
// classified by the caller for retry.
func (r *Runner) attempt(ctx context.Context, spec domain.StageSpec, prompt, hint string) (domain.StageResult, error) {
	actx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(actx); err != nil {
			if ctx.Err() != nil {
				return domain.StageResult{}, fmt.Errorf("quota wait: %w", ctx.Err())
			}
			// Waiting out the quota would blow the attempt timeout; that
			// counts as a timeout and follows the transient retry policy.
			return domain.StageResult{}, fmt.Errorf("quota wait: %w", context.DeadlineExceeded)
		}
	}

	raw, err := r.model.Complete(actx, prompt, hint)
	if err != nil {
		return domain.StageResult{}, fmt.Errorf("model call: %w", err)
	}

	res := domain.StageResult{Name: spec.Name, RawResponse: raw}
	parsed, perr := Parse(raw, spec.OutputSchema)
	if perr != nil {
		res.Status = domain.StageFailed
		res.Err = perr
		return res, nil
	}

	res.Payload = parsed.Payload
	if parsed.Tier == TierHeuristic || len(parsed.Missing) > 0 {
		res.Status = domain.StageDegraded
	} else {
		res.Status = domain.StageOK
	}
	return res, nil
}

func renderPrompt(spec domain.StageSpec, input StageInput) (string, error) {
	tmpl, err := template.New(spec.Name).Parse(spec.PromptTemplate)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, input); err != nil {
		return "", err
	}
	return b.String(), nil
}

// schemaHint renders the output schema for the provider request, field names
// sorted for stable prompts.
func schemaHint(schema map[string]domain.FieldType) string {
	if len(schema) == 0 {
		return ""
	}
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, schema[name]))
	}
	return "JSON object with fields: " + strings.Join(parts, ", ")
}

func (r *Runner) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
