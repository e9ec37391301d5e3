package googleai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tramovia/rutabot/ai"
)

// Generator implements ai.Generator using Gemini-family chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(client *googleai.GoogleAI) *Generator {
	return &Generator{
		client: client,
		logger: slog.Default().With("component", "googleai-generator"),
	}
}

// GenerateText returns the completion for the given prompt.
// Temperature, token limit and safety settings come from the provider config.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating completion", "promptLength", len(prompt))

	completion, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt)
	if err != nil {
		g.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	return strings.TrimSpace(completion), nil
}
