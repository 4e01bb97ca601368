// Package llmutil extracts structured JSON from unreliable oracle output.
//
// Oracle responses arrive in three broad shapes: clean JSON, JSON wrapped in
// a markdown fence, and JSON embedded in explanatory prose. The parser tries
// the matching strategy for each shape, in that order; the first candidate
// that unmarshals wins. Callers that get an error back are expected to apply
// their own component-specific fallbacks rather than abort the run.
package llmutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON indicates that no strategy located a parseable JSON value.
var ErrNoJSON = errors.New("no parseable JSON value found in response")

var (
	// Regex definitions use \x60 (hex representation) for backticks because Go raw strings cannot contain backticks.

	// fencedObjectRegex extracts a JSON object wrapped in a markdown fence.
	fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	// fencedArrayRegex extracts a JSON array wrapped in a markdown fence.
	fencedArrayRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
	// fencedAnyRegex extracts any fenced block regardless of language tag.
	fencedAnyRegex = regexp.MustCompile("(?s)\x60\x60\x60[a-zA-Z]*\\s*(.*?)\\s*\x60\x60\x60")
)

// Parse attempts to parse an oracle response into the target type. Strategies
// are tried in order (whole text, fenced block, brace matching); the first
// candidate that unmarshals into T wins.
func Parse[T any](response string) (*T, error) {
	var lastErr error
	for _, candidate := range candidates(response) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			lastErr = err
			continue
		}
		return &result, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v (response truncated: %s)", ErrNoJSON, lastErr, truncate(response, 300))
	}
	return nil, fmt.Errorf("%w (response truncated: %s)", ErrNoJSON, truncate(response, 300))
}

// ExtractJSON locates the raw JSON payload inside a response without binding
// it to a type. Used by fallback paths that need to re-parse embedded JSON
// found in longer reasoning text.
func ExtractJSON(response string) (string, bool) {
	for _, candidate := range candidates(response) {
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// candidates yields the substrings the strategy chain would try, in order.
func candidates(response string) []string {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil
	}

	out := []string{response}

	// Strategy 2: fenced code blocks.
	if strings.Contains(response, "\x60\x60\x60") {
		if m := fencedObjectRegex.FindStringSubmatch(response); len(m) > 1 {
			out = append(out, m[1])
		}
		if m := fencedArrayRegex.FindStringSubmatch(response); len(m) > 1 {
			out = append(out, m[1])
		}
		if m := fencedAnyRegex.FindStringSubmatch(response); len(m) > 1 {
			out = append(out, m[1])
		}
	}

	// Strategy 3: brace matching over prose-embedded JSON.
	if candidate, ok := scanBalanced(response, '{', '}'); ok {
		out = append(out, candidate)
	}
	if candidate, ok := scanBalanced(response, '[', ']'); ok {
		out = append(out, candidate)
	}

	return out
}

// scanBalanced walks the text from the first opening delimiter keeping a
// depth counter and an inside-string flag. The flag toggles on unescaped
// quotes; a quote preceded by a backslash is skipped while inside a string,
// so string contents never disturb the depth count. When the depth returns
// to zero the substring is checked for validity; on failure the scan restarts
// from the next opening delimiter.
func scanBalanced(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	for start >= 0 {
		depth := 0
		inString := false
	walk:
		for i := start; i < len(s); i++ {
			ch := s[i]
			if inString {
				switch ch {
				case '\\':
					i++ // One-token look-back: the next byte is escaped.
				case '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					break walk
				}
			}
		}
		next := strings.IndexByte(s[start+1:], open)
		if next < 0 {
			return "", false
		}
		start += 1 + next
	}
	return "", false
}

// truncate shortens a string for inclusion in error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
