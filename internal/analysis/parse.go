// Package analysis drives structured-output model calls over the retrieved
// corpus: prompt rendering, response recovery, retry policy and the stage
// dependency pipeline.
package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"aidigest/internal/domain"
)

// ParseTier records which level of the escalation ladder produced a payload.
type ParseTier int

const (
	// TierStrict: the whole response was valid JSON.
	TierStrict ParseTier = iota + 1
	// TierFragment: a well-formed JSON fragment was recovered from
	// surrounding prose or code fences.
	TierFragment
	// TierHeuristic: fields were scraped from labeled text sections.
	TierHeuristic
)

// Parsed is the outcome of response recovery. Missing lists schema fields
// that are absent or mistyped; a non-empty Missing means the payload is
// partial and the stage should report degraded.
type Parsed struct {
	Payload map[string]any
	Tier    ParseTier
	Missing []string
}

// Parse attempts to recover a payload conforming to schema from a model
// response. Models frequently wrap valid JSON in prose or code fences, so
// recovery escalates: strict parse, embedded-fragment parse, then a
// label-keyed section scrape. An error means no field could be extracted.
func Parse(raw string, schema map[string]domain.FieldType) (Parsed, error) {
	trimmed := strings.TrimSpace(raw)

	if payload, ok := decodePayload(trimmed, schema); ok {
		parsed := Parsed{Payload: payload, Tier: TierStrict, Missing: missingFields(payload, schema)}
		if len(parsed.Missing) < len(schema) || len(schema) == 0 {
			return parsed, nil
		}
	}

	if fragment := largestFragment(raw); fragment != "" {
		if payload, ok := decodePayload(fragment, schema); ok {
			parsed := Parsed{Payload: payload, Tier: TierFragment, Missing: missingFields(payload, schema)}
			if len(parsed.Missing) < len(schema) || len(schema) == 0 {
				return parsed, nil
			}
		}
	}

	if payload := scrapeSections(raw, schema); len(payload) > 0 {
		return Parsed{Payload: payload, Tier: TierHeuristic, Missing: missingFields(payload, schema)}, nil
	}

	return Parsed{}, fmt.Errorf("no recognizable field in response: %w", domain.ErrMalformed)
}

// decodePayload parses s as a JSON object. A top-level array is accepted
// when the schema has exactly one array field, and is wrapped under it.
func decodePayload(s string, schema map[string]domain.FieldType) (map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return nil, false
	}

	switch v := value.(type) {
	case map[string]any:
		return v, true
	case []any:
		if name, ok := soleArrayField(schema); ok {
			return map[string]any{name: v}, true
		}
	}
	return nil, false
}

func soleArrayField(schema map[string]domain.FieldType) (string, bool) {
	if len(schema) != 1 {
		return "", false
	}
	for name, typ := range schema {
		if typ == domain.FieldArray {
			return name, true
		}
	}
	return "", false
}

// largestFragment returns the longest well-formed JSON value embedded in s.
// Code-fenced blocks are unwrapped first; otherwise every '{' and '[' is
// tried as a start and the longest decodable prefix wins.
func largestFragment(s string) string {
	if inner := insideFence(s); inner != "" {
		s = inner
	}

	best := ""
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var value any
		if err := dec.Decode(&value); err != nil {
			continue
		}
		candidate := strings.TrimSpace(s[i : i+int(dec.InputOffset())])
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

func insideFence(s string) string {
	for _, marker := range []string{"```json", "```"} {
		if _, after, found := strings.Cut(s, marker); found {
			if inner, _, closed := strings.Cut(after, "```"); closed {
				return strings.TrimSpace(inner)
			}
		}
	}
	return ""
}

var sectionLabel = regexp.MustCompile(`(?m)^\s*(?:[-*#>]+\s*)?"?([A-Za-z][A-Za-z0-9 _-]*?)"?\s*:\s*(.*)$`)

// scrapeSections extracts a best-effort payload from labeled text. Each
// schema field is matched case-insensitively against "Label: value" lines,
// with list continuation lines folded into array values.
func scrapeSections(raw string, schema map[string]domain.FieldType) map[string]any {
	lines := strings.Split(raw, "\n")
	payload := make(map[string]any)

	for name, typ := range schema {
		value, ok := scrapeField(lines, name, typ)
		if ok {
			payload[name] = value
		}
	}
	return payload
}

func scrapeField(lines []string, name string, typ domain.FieldType) (any, bool) {
	want := normalizeLabel(name)

	for i, line := range lines {
		m := sectionLabel.FindStringSubmatch(line)
		if m == nil || normalizeLabel(m[1]) != want {
			continue
		}

		head := strings.TrimSpace(m[2])
		if typ == domain.FieldArray {
			items := collectListItems(lines[i+1:])
			if head != "" {
				items = append([]any{head}, items...)
			}
			if len(items) > 0 {
				return items, true
			}
			continue
		}

		if head != "" {
			return head, true
		}
		// Value may sit on the following lines until the next label.
		var block []string
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" || sectionLabel.MatchString(next) {
				break
			}
			block = append(block, strings.TrimSpace(next))
		}
		if len(block) > 0 {
			return strings.Join(block, " "), true
		}
	}
	return nil, false
}

func collectListItems(lines []string) []any {
	var items []any
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
			items = append(items, strings.TrimSpace(strings.TrimLeft(trimmed, "-* ")))
			continue
		}
		break
	}
	return items
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// missingFields lists schema fields that are absent or carry the wrong type.
func missingFields(payload map[string]any, schema map[string]domain.FieldType) []string {
	var missing []string
	for name, typ := range schema {
		value, ok := payload[name]
		if !ok || !typeMatches(value, typ) {
			missing = append(missing, name)
		}
	}
	return missing
}

func typeMatches(v any, t domain.FieldType) bool {
	switch t {
	case domain.FieldString:
		_, ok := v.(string)
		return ok
	case domain.FieldNumber:
		_, ok := v.(float64)
		return ok
	case domain.FieldBool:
		_, ok := v.(bool)
		return ok
	case domain.FieldArray:
		_, ok := v.([]any)
		return ok
	case domain.FieldObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}
