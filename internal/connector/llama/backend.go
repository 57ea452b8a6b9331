// Package llama serves local GGUF models in-process through llama.cpp.
//
// The real backend is compiled with -tags=llama (go-llama.cpp, CGO). Without
// the tag a stub backend reports a dependency-unavailable error, keeping
// default builds CGO-free.
package llama

import "context"

// Backend loads model files into sessions.
type Backend interface {
	Load(modelPath string) (Session, error)
}

// Session is a loaded model. Predict is not safe for concurrent use; the
// Loader serializes calls per model.
type Session interface {
	Predict(ctx context.Context, prompt string, p Params) (string, error)
	Close() error
}

// Params are the generation knobs a request may set. Zero values select the
// backend defaults.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
	TopK        int
	Stop        []string
	Seed        int
}
