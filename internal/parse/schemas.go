package parse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Reply kinds the model is expected to produce.
const (
	ReplyPlan       = "plan"
	ReplyGeneration = "generation"
)

func replySchema(kind string) string {
	switch kind {
	case ReplyPlan:
		return planReplySchema
	case ReplyGeneration:
		return generationReplySchema
	default:
		return ""
	}
}

// ValidateReply checks an extracted model reply against the JSON schema for
// its kind.
func ValidateReply(kind, doc string) error {
	schema := replySchema(kind)
	if schema == "" {
		return fmt.Errorf("unknown reply kind %q", kind)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate %s reply: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("%s reply validation failed: %s", kind, strings.Join(errs, "; "))
}

const planReplySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "type": { "type": "string", "enum": ["action", "check", "precondition"] },
          "description": { "type": "string" },
          "action_type": { "type": "string" },
          "target": { "type": "string" },
          "data": { "type": "object" },
          "check_type": { "type": "string" },
          "expected": { "type": "string" },
          "precondition_type": { "type": "string" },
          "role": { "type": "string" }
        },
        "required": ["description"]
      }
    }
  },
  "required": ["steps"]
}`

const generationReplySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "success": { "type": "boolean" },
    "script": { "type": "string" }
  },
  "required": ["success"]
}`
