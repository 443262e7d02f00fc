package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"aidigest/internal/domain"
)

// StageExecutor runs one stage to completion. Satisfied by *Runner.
type StageExecutor interface {
	Run(ctx context.Context, spec domain.StageSpec, input StageInput) domain.StageResult
}

// Pipeline orchestrates the declared stages over the corpus: topological
// order from stage dependencies, bounded concurrency for independent stages,
// and a global wall-clock budget. One failed stage never halts the run.
type Pipeline struct {
	executor    StageExecutor
	specs       []domain.StageSpec
	budget      time.Duration
	maxParallel int
	logger      *slog.Logger
}

// NewPipeline validates nothing yet; configuration errors surface from
// Analyze so a misdeclared stage set fails the run, not process startup.
func NewPipeline(executor StageExecutor, specs []domain.StageSpec, budget time.Duration, maxParallel int, logger *slog.Logger) *Pipeline {
	if maxParallel <= 0 {
		maxParallel = 2
	}
	if budget <= 0 {
		budget = 10 * time.Minute
	}
	return &Pipeline{
		executor:    executor,
		specs:       specs,
		budget:      budget,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// Analyze executes every declared stage and returns one result per stage.
// A stage runs only after all its predecessors have produced a StageResult,
// whatever their status; dependents of a failed predecessor see an empty
// payload and a warning is recorded. Stages not yet started when the budget
// expires are recorded failed with reason budget exceeded. Only cancellation
// and configuration errors (no stages, unknown dependency, cycle) are
// surfaced as errors.
func (p *Pipeline) Analyze(ctx context.Context, corpus []domain.Item) (domain.AnalysisResult, error) {
	byName, dependents, indegree, err := p.buildGraph()
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	digest := BuildDigest(corpus)
	result := domain.AnalysisResult{Stages: make(map[string]domain.StageResult, len(p.specs))}

	var ready []string
	for _, spec := range p.specs {
		if indegree[spec.Name] == 0 {
			ready = append(ready, spec.Name)
		}
	}

	done := make(chan domain.StageResult, len(p.specs))
	running := 0
	finished := 0
	expired := false
	var expireErr error

	finalize := func(res domain.StageResult) {
		result.Stages[res.Name] = res
		finished++
		for _, dep := range dependents[res.Name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	schedule := func() {
		for len(ready) > 0 {
			name := ready[0]
			if expired {
				ready = ready[1:]
				finalize(domain.StageResult{
					Name:   name,
					Status: domain.StageFailed,
					Err:    expireErr,
				})
				continue
			}
			if running >= p.maxParallel {
				return
			}
			ready = ready[1:]
			running++
			spec := byName[name]
			input := p.buildInput(spec, digest, &result)
			go func() {
				done <- p.executor.Run(ctx, spec, input)
			}()
		}
	}

	budgetTimer := time.NewTimer(p.budget)
	defer budgetTimer.Stop()
	ctxDone := ctx.Done()

	schedule()
	for finished < len(p.specs) {
		select {
		case res := <-done:
			running--
			finalize(res)
			schedule()
		case <-budgetTimer.C:
			expired = true
			expireErr = domain.ErrBudgetExceeded
			p.debug("pipeline budget exhausted", "budget", p.budget)
			schedule()
		case <-ctxDone:
			ctxDone = nil
			expired = true
			expireErr = fmt.Errorf("run cancelled: %w", ctx.Err())
			schedule()
		}
	}

	return result, nil
}

// buildInput snapshots predecessor payloads for the stage about to start.
// All predecessors are finalized by now, so reading the result map here is
// race-free; a degraded predecessor's payload is passed through as-is.
func (p *Pipeline) buildInput(spec domain.StageSpec, digest string, result *domain.AnalysisResult) StageInput {
	deps := make(map[string]string, len(spec.DependsOn))
	for _, name := range spec.DependsOn {
		pre := result.Stages[name]
		if pre.Status != domain.StageOK {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stage %s ran with %s predecessor %s", spec.Name, pre.Status, name))
		}
		payload := pre.Payload
		if payload == nil {
			payload = map[string]any{}
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			encoded = []byte("{}")
		}
		deps[name] = string(encoded)
	}
	return StageInput{Digest: digest, Deps: deps}
}

// buildGraph validates the stage declarations and returns the dependency
// structures for Kahn-style execution.
func (p *Pipeline) buildGraph() (map[string]domain.StageSpec, map[string][]string, map[string]int, error) {
	if len(p.specs) == 0 {
		return nil, nil, nil, domain.ErrNoStages
	}

	byName := make(map[string]domain.StageSpec, len(p.specs))
	for _, spec := range p.specs {
		if _, dup := byName[spec.Name]; dup {
			return nil, nil, nil, fmt.Errorf("stage %s declared twice", spec.Name)
		}
		byName[spec.Name] = spec
	}

	dependents := make(map[string][]string)
	indegree := make(map[string]int, len(p.specs))
	for _, spec := range p.specs {
		indegree[spec.Name] += 0
		for _, dep := range spec.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, nil, nil, fmt.Errorf("stage %s depends on unknown stage %s", spec.Name, dep)
			}
			dependents[dep] = append(dependents[dep], spec.Name)
			indegree[spec.Name]++
		}
	}

	// Kahn pre-pass over a scratch copy to reject cycles up front.
	scratch := make(map[string]int, len(indegree))
	for name, deg := range indegree {
		scratch[name] = deg
	}
	var queue []string
	for _, spec := range p.specs {
		if scratch[spec.Name] == 0 {
			queue = append(queue, spec.Name)
		}
	}
	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[name] {
			scratch[dep]--
			if scratch[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited != len(p.specs) {
		return nil, nil, nil, fmt.Errorf("stage dependencies contain a cycle")
	}

	return byName, dependents, indegree, nil
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
