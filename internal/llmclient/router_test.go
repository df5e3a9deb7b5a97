package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidjmoloney/cicd-ai-assistant/api/schemas"
)

func TestNewRouterRequiresBothClients(t *testing.T) {
	logger := setupTestLogger(t)
	fast := &MockLLMClient{Name: "fast"}

	_, err := NewRouter(logger, fast, nil)
	assert.Error(t, err)

	_, err = NewRouter(logger, nil, fast)
	assert.Error(t, err)
}

func TestRouterDispatchesByTier(t *testing.T) {
	logger := setupTestLogger(t)
	fast := &MockLLMClient{Name: "fast"}
	powerful := &MockLLMClient{Name: "powerful"}

	router, err := NewRouter(logger, fast, powerful)
	require.NoError(t, err)

	req := createTestRequest()
	req.Tier = schemas.TierFast
	fast.On("Generate", mock.Anything, req).Return("fast response", nil).Once()

	resp, err := router.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "fast response", resp)

	fast.AssertExpectations(t)
	powerful.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRouterDefaultsToPowerfulTier(t *testing.T) {
	logger := setupTestLogger(t)
	fast := &MockLLMClient{Name: "fast"}
	powerful := &MockLLMClient{Name: "powerful"}

	router, err := NewRouter(logger, fast, powerful)
	require.NoError(t, err)

	req := createTestRequest()
	powerful.On("Generate", mock.Anything, req).Return("powerful response", nil).Once()

	resp, err := router.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "powerful response", resp)
	powerful.AssertExpectations(t)
}

func TestRouterUnknownTier(t *testing.T) {
	logger := setupTestLogger(t)
	router, err := NewRouter(logger, &MockLLMClient{}, &MockLLMClient{})
	require.NoError(t, err)

	req := createTestRequest()
	req.Tier = schemas.ModelTier("experimental")

	_, err = router.Generate(context.Background(), req)
	assert.ErrorContains(t, err, "no LLM client configured for tier")
}

func TestRouterPropagatesClientError(t *testing.T) {
	logger := setupTestLogger(t)
	fast := &MockLLMClient{Name: "fast"}
	powerful := &MockLLMClient{Name: "powerful"}

	router, err := NewRouter(logger, fast, powerful)
	require.NoError(t, err)

	req := createTestRequest()
	req.Tier = schemas.TierFast
	fast.On("Generate", mock.Anything, req).Return("", errors.New("backend down")).Once()

	_, err = router.Generate(context.Background(), req)
	assert.ErrorContains(t, err, "backend down")
}
