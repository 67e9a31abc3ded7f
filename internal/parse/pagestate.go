package parse

import (
	"encoding/json"
	"strings"
)

// pageStateMarkers label the JSON page dumps a capture run prints. Longer
// markers come first so the scan never matches a prefix of another marker.
var pageStateMarkers = []string{
	"Comprehensive Page State:",
	"Page State:",
}

// noisePrefixes mark runner output lines that carry no signal for the model.
var noisePrefixes = []string{
	"at ",
	"npm warn",
	"npm WARN",
	"npm notice",
	"Downloading ",
	"Installing ",
}

// PageState returns the observation text for a runner output: every
// marker-labeled JSON block concatenated, or a line-filtered view of the raw
// output when no block is present.
func PageState(output string) string {
	if blocks, ok := ExtractPageState(output); ok {
		return blocks
	}
	return FilterOutput(output)
}

// ExtractPageState collects every JSON object that follows a page-state
// marker. All blocks are kept in order of appearance so the model sees the
// full history of captured states, not just the last one.
func ExtractPageState(output string) (string, bool) {
	var blocks []string
	rest := output
	for {
		idx, marker := nextMarker(rest)
		if idx == -1 {
			break
		}
		after := rest[idx+len(marker):]
		open := strings.IndexByte(after, '{')
		if open == -1 {
			rest = after
			continue
		}
		block, ok := balancedObject(after[open:])
		if ok && json.Valid([]byte(block)) {
			blocks = append(blocks, block)
			rest = after[open+len(block):]
			continue
		}
		rest = after[open+1:]
	}
	if len(blocks) == 0 {
		return "", false
	}
	return strings.Join(blocks, "\n\n"), true
}

func nextMarker(s string) (int, string) {
	best, bestMarker := -1, ""
	for _, m := range pageStateMarkers {
		idx := strings.Index(s, m)
		if idx == -1 {
			continue
		}
		if best == -1 || idx < best {
			best, bestMarker = idx, m
		}
	}
	return best, bestMarker
}

// balancedObject returns the shortest prefix of s that is a brace-balanced
// object. s must start with '{'. Braces inside string literals are ignored.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
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
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// FilterOutput strips noise lines from raw runner output: blank lines, stack
// trace continuations, and package install chatter.
func FilterOutput(output string) string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isNoise(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isNoise(trimmed string) bool {
	for _, p := range noisePrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
