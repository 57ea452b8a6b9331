//go:build !llama

package llama

import "completiond/internal/registry"

// llamaBuilt indicates this binary was compiled without llama support.
const llamaBuilt = false

const notBuiltMsg = "llama support not built (missing 'llama' build tag)"

type stubBackend struct{}

// NewBackend returns a backend that refuses to load models because llama.cpp
// was not compiled in.
func NewBackend(ctxSize, threads int) Backend { return stubBackend{} }

func (stubBackend) Load(string) (Session, error) {
	return nil, registry.ErrDependencyUnavailable(notBuiltMsg)
}
