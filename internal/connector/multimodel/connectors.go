package multimodel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"completiond/internal/registry"
	"completiond/internal/vectorindex"
	"completiond/pkg/types"
)

const (
	EmbeddingModel = "embedding"
	CodegenModel   = "codegen"

	DefaultIndexFile = "code_snippet_index.json"
	DefaultTopK      = 1

	embeddedMessage = "Successfully embedded."
)

// Config configures the demo connectors.
type Config struct {
	OpenAI    OpenAIConfig
	IndexFile string
	TopK      int
	ChunkSize int
}

// Demo builds the "embedding" and "codegen" connectors.
type Demo struct {
	cfg Config
}

// New applies defaults and returns the demo. The API key is checked per
// request so the server starts without one.
func New(cfg Config) *Demo {
	cfg.OpenAI = cfg.OpenAI.withDefaults()
	if cfg.IndexFile == "" {
		cfg.IndexFile = DefaultIndexFile
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = vectorindex.DefaultChunkSize
	}
	return &Demo{cfg: cfg}
}

// Entries returns the registry entries for both connectors.
func (d *Demo) Entries() []registry.Entry {
	return []registry.Entry{
		{
			Model:   types.Model{ID: EmbeddingModel, Source: "openai", Task: "embedding", Path: d.cfg.IndexFile},
			Factory: d.Embedding(),
		},
		{
			Model:   types.Model{ID: CodegenModel, Source: "openai", Task: "question-answering", Path: d.cfg.IndexFile},
			Factory: d.Codegen(),
		},
	}
}

func (d *Demo) client() (*Client, error) {
	if d.cfg.OpenAI.APIKey == "" {
		return nil, registry.ErrDependencyUnavailable("OPENAI_API_KEY is not set")
	}
	return NewClient(d.cfg.OpenAI), nil
}

// Embedding indexes the prompt as a single document and saves the index,
// replacing any previous one.
func (d *Demo) Embedding() registry.Factory {
	return func(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
		c, err := d.client()
		if err != nil {
			return nil, nil, nil, err
		}
		infer := func(ctx context.Context, _ registry.Handle, in registry.Input, _ registry.Handle) (any, error) {
			idx, err := vectorindex.FromDocuments(ctx, c, []vectorindex.Document{{Text: in.Prompt}}, d.cfg.ChunkSize)
			if err != nil {
				return nil, err
			}
			if err := idx.Save(d.cfg.IndexFile); err != nil {
				return nil, fmt.Errorf("save index: %w", err)
			}
			return embeddedMessage, nil
		}
		return c, nil, infer, nil
	}
}

// Codegen loads the saved index, retrieves the closest chunks and asks the
// chat model to answer the prompt from them.
func (d *Demo) Codegen() registry.Factory {
	return func(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
		c, err := d.client()
		if err != nil {
			return nil, nil, nil, err
		}
		idx, err := vectorindex.LoadFor(d.cfg.IndexFile, c.Model())
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil, registry.ErrDependencyUnavailable(
				fmt.Sprintf("no index at %s; send a prompt to the %q model first", d.cfg.IndexFile, EmbeddingModel))
		}
		if err != nil {
			return nil, nil, nil, err
		}
		return c, idx, d.answer, nil
	}
}

func (d *Demo) answer(ctx context.Context, model registry.Handle, in registry.Input, aux registry.Handle) (any, error) {
	c, ok := model.(*Client)
	if !ok {
		return nil, fmt.Errorf("codegen: unexpected model handle %T", model)
	}
	idx, ok := aux.(*vectorindex.Index)
	if !ok {
		return nil, fmt.Errorf("codegen: unexpected index handle %T", aux)
	}
	matches, err := idx.Query(ctx, c, in.Prompt, d.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	return c.Chat(ctx, questionPrompt(matches, in.Prompt))
}
