package run

import (
	"context"
	"encoding/json"
	"strings"
)

// RecoveryRule maps search-intent keywords in the user's text to a
// registered tool that can produce a substitute answer when a run fails.
type RecoveryRule struct {
	// Keywords are matched case-insensitively against the user text.
	Keywords []string
	// Tool is the registered tool name to invoke directly.
	Tool string
	// Arguments builds the invocation arguments from the extracted search
	// term. Required.
	Arguments func(term string) json.RawMessage
}

// queryPrefixes are conversational lead-ins stripped before the remaining
// text is used as a search term.
var queryPrefixes = []string{
	"what is the latest on",
	"what is the latest",
	"what's the latest on",
	"what's the latest",
	"tell me about",
	"what do you know about",
	"how do i",
	"how to",
	"what is",
	"what are",
	"search for",
	"search the docs for",
	"find",
	"show me",
	"please",
}

// recoverDirect inspects the user's text for search intent and, on a match,
// invokes the matched tool directly, bypassing the assistant entirely. Best
// effort: any failure falls through to the next rule and finally to false.
func (o *Orchestrator) recoverDirect(ctx context.Context, userText string) (string, bool) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)

	for _, rule := range o.recovery {
		if !containsAny(lower, rule.Keywords) {
			continue
		}
		def, ok := o.registry.Find(rule.Tool)
		if !ok || rule.Arguments == nil {
			continue
		}

		term := ExtractSearchTerm(text)
		out, err := def.Invoke(ctx, rule.Arguments(term))
		if err != nil || strings.TrimSpace(out) == "" {
			o.log.Warn().Err(err).Str("tool_name", rule.Tool).Msg("direct tool recovery failed")
			continue
		}
		o.log.Info().Str("tool_name", rule.Tool).Msg("answered via direct tool recovery")
		return out, true
	}
	return "", false
}

// ExtractSearchTerm strips conversational prefixes and trailing punctuation
// from the user's raw text, yielding a naive search term. Heuristic by
// contract; never fails.
func ExtractSearchTerm(text string) string {
	term := strings.TrimSpace(text)
	lower := strings.ToLower(term)
	for _, prefix := range queryPrefixes {
		if strings.HasPrefix(lower, prefix) {
			term = strings.TrimSpace(term[len(prefix):])
			lower = strings.ToLower(term)
		}
	}
	term = strings.TrimRight(term, "?!. ")
	if term == "" {
		return strings.TrimRight(strings.TrimSpace(text), "?!. ")
	}
	return term
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
