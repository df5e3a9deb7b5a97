// Package llmclient provides the generation backends behind the
// schemas.LLMClient interface: a Gemini client, an OpenAI-compatible client
// covering OpenAI and Ollama endpoints, and a tier router in front of them.
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

// Router satisfies schemas.LLMClient and dispatches each request to the
// client configured for its tier.
type Router struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
}

func NewRouter(logger *zap.Logger, fast, powerful schemas.LLMClient) (*Router, error) {
	if fast == nil || powerful == nil {
		return nil, fmt.Errorf("both fast and powerful tier clients must be provided")
	}
	return &Router{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:     fast,
			schemas.TierPowerful: powerful,
		},
	}, nil
}

// Generate routes by req.Tier, defaulting to the powerful tier when the
// request does not specify one.
func (r *Router) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierPowerful
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	r.logger.Debug("routing LLM request", zap.String("tier", string(tier)))
	return client.Generate(ctx, req)
}
