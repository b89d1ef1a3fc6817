// Package jsonrecover pulls a JSON object out of free-form model output.
//
// Completion backends are asked to answer with JSON only but frequently wrap
// the object in prose or markdown fences. FirstObject returns the first
// balanced {...} span, ignoring braces inside string literals. When no span
// balances it falls back to the greedy span between the first '{' and the
// last '}'.
package jsonrecover

import (
	"errors"
	"strings"
)

// ErrNoObject is returned when the text contains no '{' ... '}' span at all.
var ErrNoObject = errors.New("no JSON object found")

// FirstObject returns the first JSON-object-shaped substring of text.
// The result is not validated as JSON; callers decode it themselves.
func FirstObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	for i := start; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if end, ok := balancedEnd(text, i); ok {
			return text[i : end+1], nil
		}
	}

	end := strings.LastIndexByte(text, '}')
	if end <= start {
		return "", ErrNoObject
	}
	return text[start : end+1], nil
}

// balancedEnd scans from an opening brace and returns the index of the brace
// that closes it.
func balancedEnd(text string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := open; i < len(text); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
