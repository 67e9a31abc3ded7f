package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Gemini generates completions through the Gemini API.
type Gemini struct {
	model  string
	client *genai.Client
}

// NewGemini builds a client for the given model.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{model: model, client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Generate sends one exchange and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate content returned no text")
	}

	log.Debug().
		Str("model", g.model).
		Dur("duration", time.Since(start)).
		Msg("gemini generation finished")

	return text, nil
}
