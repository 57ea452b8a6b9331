package config

import "strings"

const (
	DefaultAddr         = "localhost:8000"
	DefaultVariant      = "huggingface"
	DefaultModelsDir    = "~/models/llm"
	DefaultLogLevel     = "info"
	DefaultMaxBodyBytes = 1 << 20
)

// Environment variables consulted by ApplyEnv.
const (
	EnvAddr      = "COMPLETIOND_ADDR"
	EnvLogLevel  = "COMPLETIOND_LOG_LEVEL"
	EnvVariant   = "COMPLETIOND_VARIANT"
	EnvOpenAI    = "OPENAI_API_KEY"
	EnvOpenAIURL = "OPENAI_BASE_URL"
	EnvHFToken   = "HF_TOKEN"
)

// ApplyEnv fills fields still unset from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Addr, EnvAddr)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.Variant, EnvVariant)
	set(&c.OpenAI.APIKey, EnvOpenAI)
	set(&c.OpenAI.BaseURL, EnvOpenAIURL)
	set(&c.HF.Token, EnvHFToken)
}

// WithDefaults returns c with every unspecified server-level field set.
// Connector-specific zero values are left for the connectors to default.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}
