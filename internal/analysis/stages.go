package analysis

import (
	"time"

	"aidigest/internal/domain"
)

// Stage names, referenced by dependency declarations and by the report
// assembler.
const (
	StageKeyDevelopments    = "key-developments"
	StageTrends             = "trends"
	StageBreakthroughs      = "breakthroughs"
	StageExecutiveSummary   = "executive-summary"
	StageIndustryImpact     = "industry-impact"
	StageActionableInsights = "actionable-insights"
	StagePredictions        = "predictions"
)

// StageDefaults are applied to every spec returned by DefaultStages.
type StageDefaults struct {
	MaxRetries int
	Timeout    time.Duration
}

// DefaultStages returns the daily-digest stage catalog. Independent stages
// (key developments, trends, breakthroughs) read only the corpus digest;
// the remaining stages condition on their predecessors' payloads.
func DefaultStages(def StageDefaults) []domain.StageSpec {
	specs := []domain.StageSpec{
		{
			Name: StageKeyDevelopments,
			PromptTemplate: `You are an AI industry analyst. Analyze today's AI developments and identify the TOP 10 most important items.

DATA COLLECTED TODAY:
{{.Digest}}

For each item provide: rank, title, category (Model Release / Research / Tool / News / Policy), importance (Critical / High / Medium) with reasoning, impact, timeframe (Immediate / Short-term / Long-term), and a one-sentence key takeaway.

Return ONLY a JSON object: {"developments": [{"rank": 1, "title": "...", "category": "...", "importance": "...", "importance_reason": "...", "impact": "...", "timeframe": "...", "key_takeaway": "...", "source": "..."}, ...]}`,
			OutputSchema: map[string]domain.FieldType{
				"developments": domain.FieldArray,
			},
		},
		{
			Name: StageTrends,
			PromptTemplate: `Identify emerging trends and recurring patterns in today's AI developments.

DATA COLLECTED TODAY:
{{.Digest}}

Look for: themes appearing across multiple sources, momentum shifts in research focus, and notable but under-reported directions.

Return ONLY a JSON object: {"trends": ["..."], "patterns": ["..."], "under_the_radar": ["..."]}`,
			OutputSchema: map[string]domain.FieldType{
				"trends":          domain.FieldArray,
				"patterns":        domain.FieldArray,
				"under_the_radar": domain.FieldArray,
			},
		},
		{
			Name: StageBreakthroughs,
			PromptTemplate: `Identify genuine breakthrough technologies in today's AI developments, as opposed to incremental improvements.

DATA COLLECTED TODAY:
{{.Digest}}

Return ONLY a JSON object: {"breakthroughs": [{"name": "...", "why_it_matters": "...", "maturity": "..."}, ...]}`,
			OutputSchema: map[string]domain.FieldType{
				"breakthroughs": domain.FieldArray,
			},
		},
		{
			Name:      StageExecutiveSummary,
			DependsOn: []string{StageKeyDevelopments},
			PromptTemplate: `You are an AI industry analyst writing for busy executives.

DATA COLLECTED TODAY:
{{.Digest}}

TOP DEVELOPMENTS ALREADY IDENTIFIED:
{{index .Deps "key-developments"}}

Write a three-part executive summary. Be specific with numbers and names.

Return ONLY a JSON object: {"overview": "what is happening in AI today", "significance": "why these developments matter", "outlook": "what this means for the near future"}`,
			OutputSchema: map[string]domain.FieldType{
				"overview":     domain.FieldString,
				"significance": domain.FieldString,
				"outlook":      domain.FieldString,
			},
		},
		{
			Name:      StageIndustryImpact,
			DependsOn: []string{StageKeyDevelopments},
			PromptTemplate: `Assess the industry impact of today's AI developments.

TOP DEVELOPMENTS:
{{index .Deps "key-developments"}}

DATA COLLECTED TODAY:
{{.Digest}}

Return ONLY a JSON object: {"sectors": [{"sector": "...", "impact": "...", "affected_roles": ["..."]}], "overall_assessment": "..."}`,
			OutputSchema: map[string]domain.FieldType{
				"sectors":            domain.FieldArray,
				"overall_assessment": domain.FieldString,
			},
		},
		{
			Name:      StageActionableInsights,
			DependsOn: []string{StageTrends, StageBreakthroughs},
			PromptTemplate: `Turn today's AI developments into concrete recommendations.

IDENTIFIED TRENDS:
{{index .Deps "trends"}}

IDENTIFIED BREAKTHROUGHS:
{{index .Deps "breakthroughs"}}

For each audience, list specific actions: which tools or models to try, what to read, what to watch.

Return ONLY a JSON object: {"developers": ["..."], "businesses": ["..."], "researchers": ["..."]}`,
			OutputSchema: map[string]domain.FieldType{
				"developers":  domain.FieldArray,
				"businesses":  domain.FieldArray,
				"researchers": domain.FieldArray,
			},
		},
		{
			Name:      StagePredictions,
			DependsOn: []string{StageTrends},
			PromptTemplate: `Predict where AI is heading based on today's signals.

IDENTIFIED TRENDS:
{{index .Deps "trends"}}

DATA COLLECTED TODAY:
{{.Digest}}

Return ONLY a JSON object: {"short_term": ["next 3 months"], "long_term": ["next 1-2 years"], "wildcards": ["low probability, high impact"]}`,
			OutputSchema: map[string]domain.FieldType{
				"short_term": domain.FieldArray,
				"long_term":  domain.FieldArray,
				"wildcards":  domain.FieldArray,
			},
		},
	}

	for i := range specs {
		specs[i].MaxRetries = def.MaxRetries
		specs[i].Timeout = def.Timeout
	}
	return specs
}
