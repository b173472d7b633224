package llms_test

import (
	"testing"

	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/stretchr/testify/assert"
)

func Test_CallOptions(t *testing.T) {
	opts := []llms.CallOption{
		llms.WithModel("gpt-4o-mini"),
		llms.WithMaxTokens(1024),
		llms.WithTemperature(0.2),
		llms.WithStopWords([]string{"STOP"}),
		llms.WithTopK(40),
		llms.WithTopP(0.9),
		llms.WithTools([]llms.Tool{
			{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        "calculate",
					Description: "Performs basic arithmetic.",
				},
			},
		}),
		llms.WithToolChoice("auto"),
	}

	var cfg llms.CallOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.InDelta(t, 0.2, cfg.Temperature, 0.0001)
	assert.Equal(t, []string{"STOP"}, cfg.StopWords)
	assert.Equal(t, 40, cfg.TopK)
	assert.InDelta(t, 0.9, cfg.TopP, 0.0001)
	assert.Len(t, cfg.Tools, 1)
	assert.Equal(t, "calculate", cfg.Tools[0].Function.Name)
	assert.Equal(t, "auto", cfg.ToolChoice)
}
