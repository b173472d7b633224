package llmfactory

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// Config describes the configured LLM providers.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"required,dive"`
}

// ProviderConfig for a single LLM provider.
type ProviderConfig struct {
	// Name is a unique name of the provider entry.
	Name string `json:"name" yaml:"name" validate:"required"`
	// Provider specifies the provider type: OPENAI|ANTHROPIC|BEDROCK.
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=OPENAI ANTHROPIC BEDROCK"`
	// Token is the API token, may use ${ENV_VAR} expansion.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// BaseURL overrides the provider API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// OrgID specifies which organization's quota and billing should be used
	// when making API requests.
	OrgID           string   `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
}

// LoadConfig loads the factory configuration from file, expanding
// environment variables in the values.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or invalid fields.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return errors.WithMessage(err, "invalid configuration")
	}
	return nil
}
