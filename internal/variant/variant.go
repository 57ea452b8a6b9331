// Package variant assembles the model registry for a named server preset.
package variant

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"completiond/internal/config"
	"completiond/internal/connector/huggingface"
	"completiond/internal/connector/llama"
	"completiond/internal/connector/multimodel"
	"completiond/internal/registry"
)

const (
	HuggingFace = "huggingface"
	MultiModel  = "multimodel"
)

type builder func(cfg config.Config, log zerolog.Logger) (*Set, error)

var builders = map[string]builder{
	HuggingFace: buildHuggingFace,
	MultiModel:  buildMultiModel,
}

// Names lists the known variants.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Set is a built registry plus the resources its connectors hold.
type Set struct {
	Name         string
	Registry     *registry.Registry
	DefaultModel string

	closers []func()
}

// Close releases connector resources (caches, loaded weights).
func (s *Set) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Build constructs the named variant from cfg.
func Build(cfg config.Config, log zerolog.Logger) (*Set, error) {
	b, ok := builders[cfg.Variant]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (known: %v)", cfg.Variant, Names())
	}
	set, err := b(cfg, log)
	if err != nil {
		return nil, err
	}
	set.Name = cfg.Variant
	if cfg.DefaultModel != "" {
		set.DefaultModel = cfg.DefaultModel
	}
	if set.DefaultModel != "" && !set.Registry.Has(set.DefaultModel) {
		log.Warn().Str("model", set.DefaultModel).Msg("default model is not registered")
	}
	return set, nil
}

func buildHuggingFace(cfg config.Config, log zerolog.Logger) (*Set, error) {
	hub := huggingface.NewHub(huggingface.Config{
		HubURL:       cfg.HF.HubURL,
		InferenceURL: cfg.HF.InferenceURL,
		Token:        cfg.HF.Token,
		Timeout:      cfg.HF.Timeout.Duration,
		CacheTTL:     cfg.HF.CacheTTL.Duration,
	})
	loader := llama.NewLoader(llama.Config{
		ContextSize: cfg.Llama.ContextSize,
		Threads:     cfg.Llama.Threads,
		IdleTTL:     cfg.Llama.IdleTTL.Duration,
		Logger:      &log,
	})
	entries := hub.Entries()
	if cfg.ModelsDir != "" {
		models, err := registry.ScanGGUF(cfg.ModelsDir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("skipping local gguf models")
		} else {
			entries = append(entries, loader.Entries(models)...)
		}
	}
	reg, err := registry.New(entries...)
	if err != nil {
		loader.Close()
		hub.Close()
		return nil, err
	}
	return &Set{
		Registry:     reg,
		DefaultModel: huggingface.FinbertToneModel,
		closers:      []func(){hub.Close, loader.Close},
	}, nil
}

func buildMultiModel(cfg config.Config, _ zerolog.Logger) (*Set, error) {
	demo := multimodel.New(multimodel.Config{
		OpenAI: multimodel.OpenAIConfig{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			ChatModel:  cfg.OpenAI.ChatModel,
			EmbedModel: cfg.OpenAI.EmbedModel,
		},
		IndexFile: cfg.OpenAI.IndexFile,
		TopK:      cfg.OpenAI.TopK,
		ChunkSize: cfg.OpenAI.ChunkSize,
	})
	reg, err := registry.New(demo.Entries()...)
	if err != nil {
		return nil, err
	}
	return &Set{Registry: reg}, nil
}
