package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyOutcome(t *testing.T) {
	t.Parallel()

	okSource := SourceResult{SourceName: "a", Status: SourceOK}
	failedSource := SourceResult{SourceName: "b", Status: SourceFailed}
	timedOut := SourceResult{SourceName: "c", Status: SourceTimedOut}

	okStages := AnalysisResult{Stages: map[string]StageResult{
		"summary": {Name: "summary", Status: StageOK},
	}}
	degradedStages := AnalysisResult{Stages: map[string]StageResult{
		"summary": {Name: "summary", Status: StageDegraded},
	}}

	cases := []struct {
		name     string
		sources  []SourceResult
		analysis AnalysisResult
		want     Outcome
	}{
		{"all ok", []SourceResult{okSource}, okStages, OutcomeComplete},
		{"one source failed", []SourceResult{okSource, failedSource}, okStages, OutcomePartial},
		{"one source timed out", []SourceResult{okSource, timedOut}, okStages, OutcomePartial},
		{"stage degraded", []SourceResult{okSource}, degradedStages, OutcomePartial},
		{"no source succeeded", []SourceResult{failedSource, timedOut}, okStages, OutcomeEmpty},
		{"no sources at all", nil, okStages, OutcomeEmpty},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyOutcome(tc.sources, tc.analysis), tc.name)
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	require.True(t, IsTransient(ErrRateLimited))
	require.True(t, IsTransient(ErrUnavailable))
	require.True(t, IsTransient(context.DeadlineExceeded))
	require.True(t, IsTransient(fmt.Errorf("feed x: %w", ErrRateLimited)))

	require.False(t, IsTransient(nil))
	require.False(t, IsTransient(context.Canceled))
	require.False(t, IsTransient(ErrMalformed))
	require.False(t, IsTransient(errors.New("rejected")))
}

func TestAnalysisResultDegraded(t *testing.T) {
	t.Parallel()

	require.False(t, AnalysisResult{}.Degraded())
	require.False(t, AnalysisResult{Stages: map[string]StageResult{
		"a": {Status: StageOK},
	}}.Degraded())
	require.True(t, AnalysisResult{Stages: map[string]StageResult{
		"a": {Status: StageOK},
		"b": {Status: StageFailed},
	}}.Degraded())
}
