package domain

import "time"

// Outcome summarizes a whole run for downstream delivery decisions.
type Outcome string

const (
	// OutcomeComplete means every source and stage finished ok.
	OutcomeComplete Outcome = "complete"
	// OutcomePartial means at least one source or stage degraded or failed.
	OutcomePartial Outcome = "partial"
	// OutcomeEmpty means no source succeeded; the corpus is empty.
	OutcomeEmpty Outcome = "empty"
)

// Importance buckets items by how urgent they look, keyword-classified.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// RunReport is the run-level summary handed to logging, delivery and any
// monitoring collaborator. Discarded at run end; nothing is persisted.
type RunReport struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      Outcome
	ItemCount    int
	BySource     map[string]int
	ByCategory   map[Category]int
	ByImportance map[Importance]int
	Sources      []SourceResult
	Stages       map[string]StageStatus
	Warnings     []string
}

// ClassifyOutcome derives the run outcome from source and stage results.
func ClassifyOutcome(sources []SourceResult, analysis AnalysisResult) Outcome {
	anyOK := false
	degraded := false
	for _, src := range sources {
		if src.Status == SourceOK {
			anyOK = true
		} else {
			degraded = true
		}
	}
	if !anyOK {
		return OutcomeEmpty
	}
	if degraded || analysis.Degraded() {
		return OutcomePartial
	}
	return OutcomeComplete
}
