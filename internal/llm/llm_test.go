package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentToolsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, tool := range AgentTools {
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.Parameters["type"], tool.Name)
	}
}

func TestObjReq(t *testing.T) {
	s := objReq(map[string]any{"name": prop("string", "n")}, "name")
	assert.Equal(t, []string{"name"}, s["required"])
	props := s["properties"].(map[string]any)
	assert.Contains(t, props, "name")
}

func TestNewClient(t *testing.T) {
	for _, p := range []string{"anthropic", "openai", "ollama"} {
		c, err := NewClient(ProviderConfig{Provider: p, APIKey: "k", BaseURL: "http://localhost:11434/v1"})
		require.NoError(t, err, p)
		assert.NotNil(t, c, p)
	}
	_, err := NewClient(ProviderConfig{Provider: "bogus"})
	assert.Error(t, err)
}

func TestConfigured(t *testing.T) {
	assert.False(t, ProviderConfig{Provider: "anthropic"}.Configured())
	assert.True(t, ProviderConfig{Provider: "anthropic", AuthToken: "t"}.Configured())
	assert.False(t, ProviderConfig{Provider: "openai"}.Configured())
	assert.True(t, ProviderConfig{Provider: "openai", APIKey: "k"}.Configured())
	assert.True(t, ProviderConfig{Provider: "ollama", BaseURL: "http://localhost:11434/v1"}.Configured())
}

func TestToAnthropicMessages_MergesToolResults(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "how many points?"},
		{Role: "assistant", ToolCalls: []ToolCall{
			{ID: "a", Name: "get_points", Params: map[string]any{}},
			{ID: "b", Name: "get_time", Params: map[string]any{}},
		}},
		{Role: "user", Content: `{"points":5}`, ToolCallID: "a"},
		{Role: "user", Content: `{"local":"08:20"}`, ToolCallID: "b"},
	}
	msgs := toAnthropicMessages(history)
	require.Len(t, msgs, 3)
	assert.Len(t, msgs[2].Content, 2)
}

func TestToOpenAIMessages(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "a", Name: "get_time"}}},
		{Role: "user", Content: "{}", ToolCallID: "a"},
		{Role: "assistant", Content: "done"},
	}
	msgs := toOpenAIMessages("sys", history)
	require.Len(t, msgs, 5)
	require.NotNil(t, msgs[2].OfAssistant)
	assert.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.NotNil(t, msgs[3].OfTool)
}
