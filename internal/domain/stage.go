package domain

import "time"

// FieldType names the expected JSON type of one output field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "bool"
	FieldArray  FieldType = "array"
	FieldObject FieldType = "object"
)

// StageSpec is the static description of one analysis stage. PromptTemplate
// is a text/template body rendered against the corpus digest and the payloads
// of the stages named in DependsOn.
type StageSpec struct {
	Name           string
	PromptTemplate string
	OutputSchema   map[string]FieldType
	DependsOn      []string
	MaxRetries     int
	Timeout        time.Duration
}

// StageStatus reports how a stage execution ended.
type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
	StageFailed   StageStatus = "failed"
)

// StageResult is the outcome of executing one StageSpec. An executed stage
// always produces a StageResult, even on total failure; RawResponse keeps the
// last model output for diagnostics.
type StageResult struct {
	Name        string
	Status      StageStatus
	Payload     map[string]any
	Attempts    int
	RawResponse string
	Err         error
	Duration    time.Duration
}

// AnalysisResult aggregates all stage results keyed by stage name. A name
// missing from Stages means the stage was never declared, not that it ran
// and returned nothing.
type AnalysisResult struct {
	Stages   map[string]StageResult
	Warnings []string
}

// Degraded reports whether any stage ended degraded or failed.
func (a AnalysisResult) Degraded() bool {
	for _, res := range a.Stages {
		if res.Status != StageOK {
			return true
		}
	}
	return false
}
