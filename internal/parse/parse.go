// Package parse isolates every piece of semi-structured text recovery in one
// place: pulling JSON out of model replies, pulling page-state blocks out of
// runner output, and filtering runner noise. Callers get an ordered list of
// extraction strategies tried in sequence; the first that yields valid JSON
// wins.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

var (
	fencedJSONPattern   = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")
	fencedScriptPattern = regexp.MustCompile("(?s)```(?:javascript|js)?\\s*\\n?(.*?)```")
)

// strategy is one way of recovering a JSON document from raw text.
type strategy struct {
	name    string
	extract func(text string) (string, bool)
}

// jsonStrategies are tried in order; first valid JSON wins.
var jsonStrategies = []strategy{
	{name: "direct", extract: directJSON},
	{name: "fenced", extract: fencedJSON},
	{name: "braces", extract: braceJSON},
	{name: "repair", extract: repairJSON},
}

// ExtractJSON recovers a JSON document from model output that may be raw
// JSON, fenced in a code block, embedded in prose, or slightly malformed.
func ExtractJSON(text string) (string, error) {
	for _, s := range jsonStrategies {
		candidate, ok := s.extract(text)
		if !ok {
			continue
		}
		log.Debug().Str("strategy", s.name).Msg("extracted json")
		return candidate, nil
	}
	return "", fmt.Errorf("no json document found in %d bytes of output", len(text))
}

// DecodeJSON extracts a JSON document from text and unmarshals it into out.
func DecodeJSON(text string, out any) error {
	doc, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return fmt.Errorf("decode extracted json: %w", err)
	}
	return nil
}

func directJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return "", false
	}
	return trimmed, true
}

func fencedJSON(text string) (string, bool) {
	m := fencedJSONPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	if candidate == "" || !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

func braceJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "}]")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

func repairJSON(text string) (string, bool) {
	candidate := strings.TrimSpace(text)
	// Without a brace there is no document to repair; jsonrepair would quote
	// arbitrary prose into a valid JSON string.
	start := strings.IndexAny(candidate, "{[")
	if start == -1 {
		return "", false
	}
	repaired, err := jsonrepair.JSONRepair(candidate[start:])
	if err != nil || !json.Valid([]byte(repaired)) {
		return "", false
	}
	return repaired, true
}

// ExtractScript recovers script text from model output: the first fenced
// javascript block if present, otherwise the trimmed raw reply.
func ExtractScript(text string) string {
	if m := fencedScriptPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
