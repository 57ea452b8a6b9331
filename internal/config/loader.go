package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the server.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr         string   `json:"addr" yaml:"addr" toml:"addr"`
	Variant      string   `json:"variant" yaml:"variant" toml:"variant"`
	DefaultModel string   `json:"default_model" yaml:"default_model" toml:"default_model"`
	ModelsDir    string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LogLevel     string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	HF     HFConfig     `json:"hf" yaml:"hf" toml:"hf"`
	OpenAI OpenAIConfig `json:"openai" yaml:"openai" toml:"openai"`
	Llama  LlamaConfig  `json:"llama" yaml:"llama" toml:"llama"`
}

// HFConfig configures the Hugging Face hub connectors.
type HFConfig struct {
	Token        string   `json:"token" yaml:"token" toml:"token"`
	HubURL       string   `json:"hub_url" yaml:"hub_url" toml:"hub_url"`
	InferenceURL string   `json:"inference_url" yaml:"inference_url" toml:"inference_url"`
	Timeout      Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	CacheTTL     Duration `json:"cache_ttl" yaml:"cache_ttl" toml:"cache_ttl"`
}

// OpenAIConfig configures the multimodel connectors.
type OpenAIConfig struct {
	APIKey     string `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL    string `json:"base_url" yaml:"base_url" toml:"base_url"`
	ChatModel  string `json:"chat_model" yaml:"chat_model" toml:"chat_model"`
	EmbedModel string `json:"embed_model" yaml:"embed_model" toml:"embed_model"`
	IndexFile  string `json:"index_file" yaml:"index_file" toml:"index_file"`
	TopK       int    `json:"top_k" yaml:"top_k" toml:"top_k"`
	ChunkSize  int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
}

// LlamaConfig configures local GGUF models.
type LlamaConfig struct {
	ContextSize int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int      `json:"threads" yaml:"threads" toml:"threads"`
	IdleTTL     Duration `json:"idle_ttl" yaml:"idle_ttl" toml:"idle_ttl"`
}

// Duration is a time.Duration written as a string such as "10m" in every
// supported format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
