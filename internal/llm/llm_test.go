package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glyphtool/glyph/internal/config"
)

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		format, _ := req["response_format"].(map[string]any)
		if format["type"] != "json_object" {
			t.Errorf("response_format = %v, want json_object", req["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{\"success\": true}"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAI("gpt-4o", "sk-test", server.URL)
	reply, err := client.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if reply != `{"success": true}` {
		t.Fatalf("reply = %q", reply)
	}
}

func TestOpenAIGenerate_SurfacesHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	defer server.Close()

	client := NewOpenAI("gpt-4o", "sk-test", server.URL)
	_, err := client.Generate(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("Generate returned nil error, want error")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error %q does not mention status", err)
	}
}

func TestOpenAIGenerate_SurfacesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAI("gpt-4o", "sk-test", server.URL)
	_, err := client.Generate(context.Background(), "system", "user")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error = %v, want api error surfaced", err)
	}
}

func TestMockRepliesInOrder(t *testing.T) {
	t.Parallel()

	m := NewMock(`{"a": 1}`, `{"a": 2}`)
	ctx := context.Background()

	first, err := m.Generate(ctx, "s", "u1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	second, _ := m.Generate(ctx, "s", "u2")
	third, _ := m.Generate(ctx, "s", "u3")

	if first != `{"a": 1}` || second != `{"a": 2}` {
		t.Fatalf("replies out of order: %q, %q", first, second)
	}
	if third != `{"a": 2}` {
		t.Fatalf("exhausted mock should repeat last reply, got %q", third)
	}
	if calls := m.Calls(); len(calls) != 3 || calls[2].User != "u3" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
}

func TestGenerateJSON(t *testing.T) {
	t.Parallel()

	m := NewMock("Here you go:\n```json\n{\"success\": true, \"script\": \"x\"}\n```")
	var reply struct {
		Success bool   `json:"success"`
		Script  string `json:"script"`
	}
	if err := GenerateJSON(context.Background(), m, "s", "u", &reply); err != nil {
		t.Fatalf("GenerateJSON returned error: %v", err)
	}
	if !reply.Success || reply.Script != "x" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.LLM{Provider: "cohere", Model: "x"})
	if err == nil {
		t.Fatal("New returned nil error, want error")
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(context.Background(), config.LLM{
		Provider:  "openai",
		Model:     "gpt-4o",
		APIKeyEnv: "GLYPH_TEST_MISSING_KEY",
	})
	if err == nil || !strings.Contains(err.Error(), "GLYPH_TEST_MISSING_KEY") {
		t.Fatalf("error = %v, want missing key error", err)
	}
}

func TestNew_OpenAIFromConfig(t *testing.T) {
	t.Setenv("GLYPH_TEST_KEY", "sk-test")

	p, err := New(context.Background(), config.LLM{
		Provider:  "openai",
		Model:     "gpt-4o",
		APIKeyEnv: "GLYPH_TEST_KEY",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.Name() != "openai" {
		t.Fatalf("provider = %q, want openai", p.Name())
	}
}
