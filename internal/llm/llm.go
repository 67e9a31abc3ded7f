// Package llm abstracts the model backends behind a single Provider
// interface. Every exchange is a system prompt plus a user prompt, and every
// reply is expected to carry a JSON document; recovering that document is the
// caller's job through the parse package.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/glyphtool/glyph/internal/config"
	"github.com/glyphtool/glyph/internal/parse"
)

// Provider generates model completions.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// New builds the provider selected by the config.
func New(ctx context.Context, cfg config.LLM) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		key, err := apiKey(cfg, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewOpenAI(cfg.Model, key, cfg.BaseURL), nil
	case "gemini":
		key, err := apiKey(cfg, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return NewGemini(ctx, cfg.Model, key)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func apiKey(cfg config.LLM, defaultEnv string) (string, error) {
	env := cfg.APIKeyEnv
	if env == "" {
		env = defaultEnv
	}
	key := os.Getenv(env)
	if key == "" {
		return "", fmt.Errorf("api key not set: export %s or point llm.api_key_env at another variable", env)
	}
	return key, nil
}

// GenerateJSON runs one exchange and decodes the JSON reply into out.
func GenerateJSON(ctx context.Context, p Provider, system, user string, out any) error {
	reply, err := p.Generate(ctx, system, user)
	if err != nil {
		return err
	}
	if err := parse.DecodeJSON(reply, out); err != nil {
		return fmt.Errorf("%s reply: %w", p.Name(), err)
	}
	return nil
}
