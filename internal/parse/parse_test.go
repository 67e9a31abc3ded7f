package parse

import (
	"strings"
	"testing"
)

func TestExtractJSONDirect(t *testing.T) {
	doc, err := ExtractJSON(`  {"success": true, "script": "x"}  `)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if doc != `{"success": true, "script": "x"}` {
		t.Fatalf("unexpected document: %q", doc)
	}
}

func TestExtractJSONFenced(t *testing.T) {
	text := "Here is the result:\n```json\n{\"success\": true}\n```\nDone."
	doc, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if doc != `{"success": true}` {
		t.Fatalf("unexpected document: %q", doc)
	}
}

func TestExtractJSONEmbedded(t *testing.T) {
	text := `The plan is ready: {"steps": [{"description": "open page"}]} as requested.`
	doc, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if !strings.HasPrefix(doc, `{"steps"`) || !strings.HasSuffix(doc, `}`) {
		t.Fatalf("unexpected document: %q", doc)
	}
}

func TestExtractJSONRepair(t *testing.T) {
	doc, err := ExtractJSON(`{"success": true, "script": "x",}`)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if !strings.Contains(doc, `"success"`) {
		t.Fatalf("unexpected document: %q", doc)
	}
}

func TestExtractJSONNone(t *testing.T) {
	if _, err := ExtractJSON("no structured content here"); err == nil {
		t.Fatal("expected error for text without json")
	}
}

func TestDecodeJSON(t *testing.T) {
	var reply struct {
		Success bool   `json:"success"`
		Script  string `json:"script"`
	}
	text := "```json\n{\"success\": true, \"script\": \"test()\"}\n```"
	if err := DecodeJSON(text, &reply); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !reply.Success || reply.Script != "test()" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestExtractScriptFenced(t *testing.T) {
	text := "Updated script:\n```javascript\nawait page.goto('/');\n```"
	if got := ExtractScript(text); got != "await page.goto('/');" {
		t.Fatalf("unexpected script: %q", got)
	}
}

func TestExtractScriptRaw(t *testing.T) {
	if got := ExtractScript("  await page.goto('/');\n"); got != "await page.goto('/');" {
		t.Fatalf("unexpected script: %q", got)
	}
}

func TestValidateReplyGeneration(t *testing.T) {
	if err := ValidateReply(ReplyGeneration, `{"success": true, "script": "x"}`); err != nil {
		t.Fatalf("valid reply rejected: %v", err)
	}
	if err := ValidateReply(ReplyGeneration, `{"script": "x"}`); err == nil {
		t.Fatal("expected error for reply without success")
	}
}

func TestValidateReplyPlan(t *testing.T) {
	doc := `{"steps": [{"type": "action", "description": "click login"}]}`
	if err := ValidateReply(ReplyPlan, doc); err != nil {
		t.Fatalf("valid reply rejected: %v", err)
	}
	if err := ValidateReply(ReplyPlan, `{"steps": [{"type": "action"}]}`); err == nil {
		t.Fatal("expected error for step without description")
	}
}

func TestValidateReplyUnknownKind(t *testing.T) {
	if err := ValidateReply("other", `{}`); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
