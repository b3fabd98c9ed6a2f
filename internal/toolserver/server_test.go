package toolserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/false-systems/nopea/internal/agentrt"
	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
)

func callToolRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestManifestsFromJSON_ParsesArray(t *testing.T) {
	manifests, err := manifestsFromJSON(`[{"kind":"Deployment","metadata":{"name":"checkout"}}]`)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.Equal(t, "Deployment", manifests[0]["kind"])
}

func TestManifestsFromJSON_EmptyIsError(t *testing.T) {
	_, err := manifestsFromJSON("")
	assert.Error(t, err)
}

func TestHandleDeploy_RunsThroughRegistry(t *testing.T) {
	c := cache.New()
	runner := func(ctx context.Context, spec *deploy.Spec) *deploy.Result {
		return &deploy.Result{Service: spec.Service, Status: deploy.StatusCompleted, Timestamp: time.Now()}
	}
	registry := agentrt.NewRegistry(runner, c, 10, 2*time.Second, 0)
	s := &Server{registry: registry, cache: c}

	req := callToolRequest(map[string]interface{}{
		"service":   "checkout",
		"manifests": `[{"kind":"Deployment"}]`,
	})
	result, err := s.handleDeploy(context.Background(), req)
	require.NoError(t, err)

	var decoded deploy.Result
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, deploy.StatusCompleted, decoded.Status)
	registry.Stop()
}

func TestHandleDeploy_MissingServiceIsToolError(t *testing.T) {
	s := &Server{}
	result, err := s.handleDeploy(context.Background(), callToolRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleHealth_ReflectsRegistry(t *testing.T) {
	c := cache.New()
	runner := func(ctx context.Context, spec *deploy.Spec) *deploy.Result {
		return &deploy.Result{Service: spec.Service, Status: deploy.StatusCompleted, Timestamp: time.Now()}
	}
	registry := agentrt.NewRegistry(runner, c, 10, 2*time.Second, 0)
	registry.Deploy("checkout", &deploy.Spec{Service: "checkout"})
	s := &Server{registry: registry, cache: c}

	result, err := s.handleHealth(context.Background(), callToolRequest(nil))
	require.NoError(t, err)

	var statuses []agentrt.Status
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "checkout", statuses[0].Service)
	registry.Stop()
}
