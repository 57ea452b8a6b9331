package completion

import (
	"context"
	"sync/atomic"
	"testing"

	"completiond/internal/registry"
	"completiond/pkg/types"
)

// countingHandle records Close calls.
type countingHandle struct{ closed atomic.Int32 }

func (h *countingHandle) Close() error { h.closed.Add(1); return nil }

// fakeConnector is a registry.Factory with call accounting.
type fakeConnector struct {
	loads    atomic.Int32
	infers   atomic.Int32
	loadErr  error
	inferErr error
	result   any
	noInfer  bool
	model    *countingHandle
	aux      *countingHandle
	lastIn   registry.Input
}

func newFakeConnector(result any) *fakeConnector {
	return &fakeConnector{result: result, model: &countingHandle{}, aux: &countingHandle{}}
}

func (f *fakeConnector) factory(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
	f.loads.Add(1)
	if f.loadErr != nil {
		return nil, nil, nil, f.loadErr
	}
	if f.noInfer {
		return f.model, f.aux, nil, nil
	}
	return f.model, f.aux, func(ctx context.Context, m registry.Handle, in registry.Input, aux registry.Handle) (any, error) {
		f.infers.Add(1)
		f.lastIn = in
		if f.inferErr != nil {
			return nil, f.inferErr
		}
		return f.result, nil
	}, nil
}

func newTestService(t *testing.T, defaultModel string, conns map[string]*fakeConnector) (*Service, *MemoryPublisher) {
	t.Helper()
	var entries []registry.Entry
	for id, c := range conns {
		entries = append(entries, registry.Entry{Model: types.Model{ID: id, Source: "fake"}, Factory: c.factory})
	}
	reg, err := registry.New(entries...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	pub := NewMemoryPublisher()
	return New(Config{Registry: reg, DefaultModel: defaultModel, Publisher: pub}), pub
}
