package llmfactory

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/pkg/llms/anthropic"
	"github.com/effective-security/mcpagent/pkg/llms/bedrock"
	"github.com/effective-security/mcpagent/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mcpagent", "llmfactory")

// Factory creates and caches LLM clients from configuration.
type Factory interface {
	DefaultModel() (llms.Model, error)
	ModelByProvider(provider string) (llms.Model, error)
	ModelByName(name string) (llms.Model, error)
}

// Load returns a factory from a configuration file.
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

type factory struct {
	cfg *Config

	byProvider map[string]llms.Model
	byName     map[string]llms.Model
	lock       sync.Mutex
}

// New creates a new LLM factory.
func New(cfg *Config) Factory {
	return &factory{
		cfg:        cfg,
		byProvider: make(map[string]llms.Model),
		byName:     make(map[string]llms.Model),
	}
}

// NewLLM creates a model client for the provider configuration.
func NewLLM(cfg *ProviderConfig) (llms.Model, error) {
	switch llms.ProviderType(cfg.Provider) {
	case llms.ProviderOpenAI:
		var opts []openai.Option
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.OrgID != "" {
			opts = append(opts, openai.WithOrganization(cfg.OrgID))
		}
		opts = append(opts, openai.WithModel(cfg.DefaultModel))
		return openai.New(opts...)

	case llms.ProviderAnthropic:
		var opts []anthropic.Option
		if cfg.Token != "" {
			opts = append(opts, anthropic.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		opts = append(opts, anthropic.WithModel(cfg.DefaultModel))
		return anthropic.New(opts...)

	case llms.ProviderBedrock:
		var opts []bedrock.Option
		if cfg.DefaultModel != "" {
			opts = append(opts, bedrock.WithModel(cfg.DefaultModel))
		}
		return bedrock.New(opts...)

	default:
		return nil, errors.Newf("unsupported provider: %s", cfg.Provider)
	}
}

// DefaultModel returns the model of the first configured provider.
func (f *factory) DefaultModel() (llms.Model, error) {
	if len(f.cfg.Providers) == 0 {
		return nil, errors.New("no providers configured")
	}
	return f.ModelByName(f.cfg.Providers[0].Name)
}

func (f *factory) ModelByProvider(provider string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byProvider[provider]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Provider == provider {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byProvider[provider] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for type: %s", provider)
}

func (f *factory) ModelByName(name string) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byName[name]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		if cfg.Name == name {
			model, err := NewLLM(cfg)
			if err != nil {
				return nil, err
			}

			logger.KV(xlog.DEBUG,
				"status", "created_llm",
				"provider", cfg.Provider,
				"model", cfg.DefaultModel,
				"name", cfg.Name)

			f.byName[name] = model
			return model, nil
		}
	}
	return nil, errors.Newf("provider not found for name: %s", name)
}
