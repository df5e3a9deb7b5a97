// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

// NewClient builds the tier router from the agent configuration: one client
// for the fast model, one for the powerful model. The two tiers may share a
// provider or mix them.
func NewClient(cfg config.AgentConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	fast, err := newModelClient(cfg.LLM, cfg.LLM.DefaultFastModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}
	powerful, err := newModelClient(cfg.LLM, cfg.LLM.DefaultPowerfulModel, logger)
	if err != nil {
		return nil, fmt.Errorf("building powerful tier client: %w", err)
	}
	return NewRouter(logger, fast, powerful)
}

func newModelClient(router config.LLMRouterConfig, name string, logger *zap.Logger) (schemas.LLMClient, error) {
	modelCfg, ok := router.Models[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not defined in agent.llm.models", name)
	}

	switch modelCfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(modelCfg, logger)
	case config.ProviderOpenAI, config.ProviderOllama:
		return NewOpenAIClient(modelCfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q for model %q. Supported: [%s %s %s]",
			modelCfg.Provider, name, config.ProviderGemini, config.ProviderOpenAI, config.ProviderOllama)
	}
}
