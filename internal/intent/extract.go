package intent

import (
	"encoding/json"
	"regexp"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/agentcore/orchestrator/pkg/core"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json|json5)?\\s*(.*?)\\s*```")
var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// parseLLMOutput attempts, in order: (a) a direct parse; (b) a parse after
// stripping markdown code fences; (c) the first balanced brace/bracket
// segment, tidied (leading prefix up to ':' stripped, trailing commas
// removed) and reparsed, falling back to single→double quote repair and
// finally a json5 parse. It returns core.ParseJsonFailure when nothing
// works.
func parseLLMOutput(text string) (map[string]any, error) {
	if v, err := tryParse(text); err == nil {
		return v, nil
	}

	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		if v, err := tryParse(m[1]); err == nil {
			return v, nil
		}
	}

	if seg, ok := firstBalancedSegment(stripLabelPrefix(text)); ok {
		tidied := tidy(seg)
		if v, err := tryParse(tidied); err == nil {
			return v, nil
		}
		repaired := strings.ReplaceAll(tidied, "'", "\"")
		if v, err := tryParse(repaired); err == nil {
			return v, nil
		}
		var v map[string]any
		if err := json5.Unmarshal([]byte(tidied), &v); err == nil {
			return v, nil
		}
	}

	return nil, &core.ParseJsonFailure{Text: text, Cause: errNoJSONFound}
}

var errNoJSONFound = jsonExtractionError("no parseable JSON segment found")

type jsonExtractionError string

func (e jsonExtractionError) Error() string { return string(e) }

func tryParse(s string) (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// firstBalancedSegment scans for the first '{' or '[' and returns the text
// up to its matching close, tracking string literals so braces inside
// quoted values don't confuse the scan.
func firstBalancedSegment(text string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			start, open, close = i, '{', '}'
		case '[':
			start, open, close = i, '[', ']'
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stripLabelPrefix drops a leading label like "Response:" that precedes
// the real JSON payload, when that colon appears before the first brace
// or bracket in the text.
func stripLabelPrefix(text string) string {
	colon := strings.Index(text, ":")
	brace := strings.IndexAny(text, "{[")
	if colon >= 0 && brace >= 0 && colon < brace {
		return text[colon+1:]
	}
	return text
}

// tidy removes trailing commas before a closing brace or bracket, the
// single most common reason a balanced segment still fails to parse.
func tidy(segment string) string {
	return trailingCommaRe.ReplaceAllString(segment, "$1")
}
