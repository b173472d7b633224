package agent

import (
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/store"
)

// Option is a function that can be used to modify the behavior of the Agent Config.
type Option func(*Config)

type Config struct {
	// Model is the model to use in an LLM call.
	Model    string
	modelSet bool

	// MaxTokens is the maximum number of tokens to generate to use in an LLM call.
	MaxTokens    int
	maxTokensSet bool

	// Temperature is the temperature for sampling to use in an LLM call, between 0 and 1.
	Temperature    float64
	temperatureSet bool

	// StopWords is a list of words to stop on to use in an LLM call.
	StopWords    []string
	stopWordsSet bool

	// TopK is the number of tokens to consider for top-k sampling in an LLM call.
	TopK    int
	topkSet bool

	// TopP is the cumulative probability for top-p sampling in an LLM call.
	TopP    float64
	toppSet bool

	// ToolChoice is the choice of tool to use, it can either be "none", "auto" (the default behavior), or a specific tool as described in the ToolChoice type.
	ToolChoice    any
	toolChoiceSet bool

	// CallbackHandler is the callback handler for the agent run.
	CallbackHandler Callback

	//
	// Below are the options for the Agent, not related to LLM call
	//

	// Store keeps chat history between runs. By default no store is used.
	Store store.ChatHistory

	// MaxToolCalls limits the total number of tool calls in one run.
	MaxToolCalls int
	// MaxMessages limits the number of messages in one run.
	MaxMessages int
	// MaxContentSize limits the total content size sent to the LLM in one run.
	MaxContentSize uint64

	// SkipMessageHistory skips adding run messages to the Store.
	SkipMessageHistory bool
}

func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		MaxToolCalls:   DefaultMaxToolCalls,
		MaxMessages:    DefaultMaxMessages,
		MaxContentSize: DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the given options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel is an option for LLM.Call.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
		o.modelSet = true
	}
}

// WithMaxTokens is an option for LLM.Call.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
		o.maxTokensSet = true
	}
}

// WithTemperature is an option for LLM.Call.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
		o.temperatureSet = true
	}
}

// WithStopWords is an option for setting the stop words for LLM.Call.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
		o.stopWordsSet = true
	}
}

// WithTopK will add an option to use top-k sampling for LLM.Call.
func WithTopK(topK int) Option {
	return func(o *Config) {
		o.TopK = topK
		o.topkSet = true
	}
}

// WithTopP will add an option to use top-p sampling for LLM.Call.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
		o.toppSet = true
	}
}

// WithToolChoice is an option for LLM.Call.
func WithToolChoice(choice any) Option {
	return func(o *Config) {
		o.ToolChoice = choice
		o.toolChoiceSet = true
	}
}

// WithCallback allows setting a custom Callback Handler.
func WithCallback(callbackHandler Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callbackHandler
	}
}

// WithStore keeps the chat history in the provided store between runs.
func WithStore(s store.ChatHistory) Option {
	return func(o *Config) {
		o.Store = s
	}
}

// WithMaxToolCalls limits the total number of tool calls in one run.
func WithMaxToolCalls(limit int) Option {
	return func(o *Config) {
		o.MaxToolCalls = limit
	}
}

// WithMaxMessages limits the number of messages in one run.
func WithMaxMessages(limit int) Option {
	return func(o *Config) {
		o.MaxMessages = limit
	}
}

// WithMaxContentSize limits the total content size sent to the LLM in one run.
func WithMaxContentSize(limit uint64) Option {
	return func(o *Config) {
		o.MaxContentSize = limit
	}
}

// WithSkipMessageHistory is an option that allows to skip adding run messages to the Store.
func WithSkipMessageHistory(skip bool) Option {
	return func(o *Config) {
		o.SkipMessageHistory = skip
	}
}

// GetCallOptions converts the config to LLM call options.
func (c *Config) GetCallOptions(options ...llms.CallOption) []llms.CallOption {
	var callOptions []llms.CallOption
	if c.modelSet {
		callOptions = append(callOptions, llms.WithModel(c.Model))
	}
	if c.maxTokensSet {
		callOptions = append(callOptions, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.temperatureSet {
		callOptions = append(callOptions, llms.WithTemperature(c.Temperature))
	}
	if c.stopWordsSet {
		callOptions = append(callOptions, llms.WithStopWords(c.StopWords))
	}
	if c.topkSet {
		callOptions = append(callOptions, llms.WithTopK(c.TopK))
	}
	if c.toppSet {
		callOptions = append(callOptions, llms.WithTopP(c.TopP))
	}
	if c.toolChoiceSet {
		callOptions = append(callOptions, llms.WithToolChoice(c.ToolChoice))
	}
	callOptions = append(callOptions, options...)
	return callOptions
}
