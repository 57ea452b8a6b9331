// Package registry maps model identifiers to connector functions. A Registry
// is assembled once at start-up and never modified afterwards.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"completiond/pkg/types"
)

// Handle is a loaded model or an auxiliary object (tokenizer, vector index).
type Handle interface {
	Close() error
}

// Input carries the prompt and the optional generation knobs of a request.
type Input struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	TopP        float64
	TopK        int
	Seed        int
	Stop        []string
}

// InferFunc runs one prediction against a loaded model. aux may be nil.
type InferFunc func(ctx context.Context, model Handle, in Input, aux Handle) (any, error)

// Factory is a connector function: it loads one named model and returns the
// model handle, an auxiliary handle and the function that runs inference.
type Factory func(ctx context.Context) (model Handle, aux Handle, infer InferFunc, err error)

// Entry binds a model description to its connector.
type Entry struct {
	Model   types.Model
	Factory Factory
}

// Registry is an immutable id -> connector mapping.
type Registry struct {
	entries map[string]Entry
	ids     []string
}

// New builds a registry. Ids must be unique and non-empty, and every entry
// needs a factory.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		id := e.Model.ID
		if id == "" {
			return nil, errors.New("registry: empty model id")
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("registry: model %s has no connector", id)
		}
		if _, dup := r.entries[id]; dup {
			return nil, fmt.Errorf("registry: duplicate model id %s", id)
		}
		r.entries[id] = e
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Lookup returns the connector registered under id.
func (r *Registry) Lookup(id string) (Factory, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.Factory, true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int { return len(r.ids) }

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Models returns the model descriptions in id order.
func (r *Registry) Models() []types.Model {
	out := make([]types.Model, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.entries[id].Model)
	}
	return out
}

// NopHandle is a Handle with nothing to release.
type NopHandle struct{}

func (NopHandle) Close() error { return nil }
