package metricskey

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsDefinitions(t *testing.T) {
	for _, m := range Metrics {
		assert.NotEmpty(t, m.Name, "Metric name should not be empty")
		assert.NotEmpty(t, m.Help, "Metric help text should not be empty")
		assert.NotEmpty(t, m.RequiredTags, "Metric should have required tags")
	}

	isSorted := sort.SliceIsSorted(Metrics, func(i, j int) bool {
		return Metrics[i].Name < Metrics[j].Name
	})
	assert.True(t, isSorted, "Metrics slice should be sorted by name")

	seen := make(map[string]bool)
	for _, m := range Metrics {
		assert.False(t, seen[m.Name], "Metric name should be unique: %s", m.Name)
		seen[m.Name] = true
	}

	t.Run("LLM metrics have agent tag", func(t *testing.T) {
		llmMetrics := []string{"agent", "model"}
		for _, m := range []*struct {
			tags []string
			name string
		}{
			{StatsLLMMessagesSent.RequiredTags, StatsLLMMessagesSent.Name},
			{StatsLLMBytesSent.RequiredTags, StatsLLMBytesSent.Name},
			{StatsLLMBytesReceived.RequiredTags, StatsLLMBytesReceived.Name},
			{StatsLLMInputTokens.RequiredTags, StatsLLMInputTokens.Name},
			{StatsLLMOutputTokens.RequiredTags, StatsLLMOutputTokens.Name},
		} {
			assert.Equal(t, llmMetrics, m.tags, "LLM metric should have agent and model tags: %s", m.name)
		}
	})

	t.Run("tool metrics have tool tag", func(t *testing.T) {
		assert.Contains(t, StatsToolCallsSucceeded.RequiredTags, "tool")
		assert.Contains(t, StatsToolCallsFailed.RequiredTags, "tool")
		assert.Contains(t, StatsToolCallsNotFound.RequiredTags, "tool")
		assert.Contains(t, PerfToolCall.RequiredTags, "tool")
		assert.Contains(t, PerfMCPCall.RequiredTags, "tool")
	})

	t.Run("MCP metrics have server tag", func(t *testing.T) {
		assert.Contains(t, StatsMCPConnectFailed.RequiredTags, "server")
		assert.Contains(t, StatsMCPSessionsFailed.RequiredTags, "server")
		assert.Contains(t, PerfMCPCall.RequiredTags, "server")
	})
}
