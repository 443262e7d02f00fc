package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aidigest/internal/domain"
)

func TestParseStrictJSON(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{
		"overview":     domain.FieldString,
		"significance": domain.FieldString,
	}

	parsed, err := Parse(`{"overview": "a", "significance": "b"}`, schema)
	require.NoError(t, err)
	require.Equal(t, TierStrict, parsed.Tier)
	require.Empty(t, parsed.Missing)
	require.Equal(t, "a", parsed.Payload["overview"])
}

func TestParseFencedJSON(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{"trends": domain.FieldArray}
	raw := "Here is the analysis:\n```json\n{\"trends\": [\"agents\", \"distillation\"]}\n```\nHope this helps!"

	parsed, err := Parse(raw, schema)
	require.NoError(t, err)
	require.Equal(t, TierFragment, parsed.Tier)
	require.Empty(t, parsed.Missing)
	require.Equal(t, []any{"agents", "distillation"}, parsed.Payload["trends"])
}

func TestParseEmbeddedFragment(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{"top": domain.FieldArray}

	parsed, err := Parse(`Here is the result: {"top":["x","y"]} thanks`, schema)
	require.NoError(t, err)
	require.Equal(t, TierFragment, parsed.Tier)
	require.Empty(t, parsed.Missing)
	require.Equal(t, []any{"x", "y"}, parsed.Payload["top"])
}

func TestParsePicksLargestFragment(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{
		"overview": domain.FieldString,
		"outlook":  domain.FieldString,
	}
	raw := `{"stub": 1} and then the real answer {"overview": "long form", "outlook": "steady"}`

	parsed, err := Parse(raw, schema)
	require.NoError(t, err)
	require.Equal(t, TierFragment, parsed.Tier)
	require.Equal(t, "long form", parsed.Payload["overview"])
	require.Equal(t, "steady", parsed.Payload["outlook"])
}

func TestParseFragmentWithBracesInStrings(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{"overview": domain.FieldString}

	parsed, err := Parse(`noise {"overview": "uses {braces} inside"} noise`, schema)
	require.NoError(t, err)
	require.Equal(t, "uses {braces} inside", parsed.Payload["overview"])
}

func TestParseTopLevelArray(t *testing.T) {
	t.Parallel()

	// A sole array field accepts a bare top-level array.
	schema := map[string]domain.FieldType{"developments": domain.FieldArray}

	parsed, err := Parse(`["first", "second"]`, schema)
	require.NoError(t, err)
	require.Equal(t, TierStrict, parsed.Tier)
	require.Equal(t, []any{"first", "second"}, parsed.Payload["developments"])
}

func TestParseHeuristicSections(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{
		"overview": domain.FieldString,
		"trends":   domain.FieldArray,
	}
	raw := `Overview: models keep getting cheaper.

Trends:
- inference optimization
- on-device models
`

	parsed, err := Parse(raw, schema)
	require.NoError(t, err)
	require.Equal(t, TierHeuristic, parsed.Tier)
	require.Equal(t, "models keep getting cheaper.", parsed.Payload["overview"])
	require.Equal(t, []any{"inference optimization", "on-device models"}, parsed.Payload["trends"])
}

func TestParseHeuristicLabelVariants(t *testing.T) {
	t.Parallel()

	// Underscored schema names match spaced, capitalized labels.
	schema := map[string]domain.FieldType{"under_the_radar": domain.FieldArray}
	raw := "## Under The Radar:\n- tiny models\n- eval harnesses\n"

	parsed, err := Parse(raw, schema)
	require.NoError(t, err)
	require.Equal(t, TierHeuristic, parsed.Tier)
	require.Equal(t, []any{"tiny models", "eval harnesses"}, parsed.Payload["under_the_radar"])
}

func TestParsePartialPayloadReportsMissing(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{
		"overview": domain.FieldString,
		"outlook":  domain.FieldString,
	}

	parsed, err := Parse(`{"overview": "present", "outlook": 42}`, schema)
	require.NoError(t, err)
	require.Equal(t, TierStrict, parsed.Tier)
	require.Equal(t, []string{"outlook"}, parsed.Missing)
}

func TestParseUnrecoverable(t *testing.T) {
	t.Parallel()

	schema := map[string]domain.FieldType{"developments": domain.FieldArray}

	_, err := Parse("I cannot help with that.", schema)
	require.ErrorIs(t, err, domain.ErrMalformed)
}
