package llmclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

func agentCfg() config.AgentConfig {
	return config.AgentConfig{
		LLM: config.LLMRouterConfig{
			DefaultFastModel:     "flash",
			DefaultPowerfulModel: "pro",
			Models: map[string]config.LLMModelConfig{
				"flash": {
					Provider:   config.ProviderGemini,
					Model:      "gemini-2.5-flash",
					APIKey:     "key-a",
					APITimeout: 30 * time.Second,
				},
				"pro": {
					Provider:   config.ProviderGemini,
					Model:      "gemini-2.5-pro",
					APIKey:     "key-b",
					APITimeout: 60 * time.Second,
				},
			},
		},
	}
}

func TestNewClientBuildsRouter(t *testing.T) {
	client, err := NewClient(agentCfg(), setupTestLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &Router{}, client)
}

func TestNewClientMixedProviders(t *testing.T) {
	cfg := agentCfg()
	m := cfg.LLM.Models["flash"]
	m.Provider = config.ProviderOllama
	m.APIKey = ""
	m.Endpoint = "http://localhost:11434/v1/chat/completions"
	cfg.LLM.Models["flash"] = m

	client, err := NewClient(cfg, setupTestLogger(t))
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClientUnknownModelName(t *testing.T) {
	cfg := agentCfg()
	cfg.LLM.DefaultFastModel = "missing"

	_, err := NewClient(cfg, setupTestLogger(t))
	assert.ErrorContains(t, err, `model "missing" is not defined`)
}

func TestNewClientUnknownProvider(t *testing.T) {
	cfg := agentCfg()
	m := cfg.LLM.Models["pro"]
	m.Provider = config.LLMProvider("anthropic2")
	cfg.LLM.Models["pro"] = m

	_, err := NewClient(cfg, setupTestLogger(t))
	assert.ErrorContains(t, err, "unknown LLM provider")
}

func TestNewClientMissingAPIKeyPropagates(t *testing.T) {
	cfg := agentCfg()
	m := cfg.LLM.Models["flash"]
	m.APIKey = ""
	cfg.LLM.Models["flash"] = m

	_, err := NewClient(cfg, setupTestLogger(t))
	assert.ErrorContains(t, err, "fast tier client")
}
