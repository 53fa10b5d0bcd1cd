package llm

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/xiaot623/medintake/internal/config"
)

const (
	// EnvIntakeMode is the environment variable name for mode selection.
	EnvIntakeMode = "INTAKE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates the LLM client selected by cfg.LLMProvider.
// INTAKE_MODE=MOCK forces the mock client regardless of the provider.
// completionAnnouncement is what the mock says when intake is complete.
func NewLLMClient(ctx context.Context, cfg *config.Config, completionAnnouncement string) (LLMClient, error) {
	if os.Getenv(EnvIntakeMode) == ModeMock {
		log.Println("INTAKE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient(completionAnnouncement), nil
	}

	switch cfg.LLMProvider {
	case config.ProviderMock:
		return NewMockClient(completionAnnouncement), nil
	case config.ProviderLiteLLM:
		return NewClient(cfg.LiteLLMURL, cfg.LiteLLMAPIKey, cfg.LLMTimeout), nil
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMTimeout), nil
	case config.ProviderBedrock:
		return NewBedrockClient(ctx, cfg.BedrockRegion)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
