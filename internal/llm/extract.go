package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON document out of model output that may be wrapped
// in prose or markdown code fences. Models sometimes preface structured
// output with text like "Here is the JSON:" even when asked not to.
//
// The heuristics, in order:
//  1. If the whole text parses as JSON, return it as is.
//  2. Strip ```json / ``` fences and retry.
//  3. Scan for the first balanced {...} or [...] block and parse that.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	if fenced := stripCodeFence(trimmed); fenced != "" && json.Valid([]byte(fenced)) {
		return json.RawMessage(fenced), nil
	}

	if block := firstBalancedBlock(trimmed); block != "" && json.Valid([]byte(block)) {
		return json.RawMessage(block), nil
	}

	return nil, &ErrInvalidResponse{
		Content: json.RawMessage(text),
		Err:     errNoJSON,
	}
}

var errNoJSON = jsonError("no JSON document found in model output")

type jsonError string

func (e jsonError) Error() string { return string(e) }

// stripCodeFence removes a surrounding markdown code fence, returning the
// inner text or "" when no fence is present.
func stripCodeFence(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}

	rest := text[start+3:]
	// Drop a language tag such as "json" on the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[nl+1:]
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

// firstBalancedBlock returns the first balanced JSON object or array in the
// text, tracking string literals so braces inside strings do not count.
func firstBalancedBlock(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if text[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
