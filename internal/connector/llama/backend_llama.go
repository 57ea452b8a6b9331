//go:build llama

package llama

import (
	"context"
	"errors"
	"strings"

	llamacpp "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

type cppBackend struct {
	ctxSize int
	threads int
}

// NewBackend returns the go-llama.cpp backend.
func NewBackend(ctxSize, threads int) Backend {
	return &cppBackend{ctxSize: ctxSize, threads: threads}
}

type cppSession struct {
	model   *llamacpp.LLama
	threads int
}

func (b *cppBackend) Load(modelPath string) (Session, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llamacpp.New(modelPath, llamacpp.SetContext(b.ctxSize))
	if err != nil {
		return nil, err
	}
	return &cppSession{model: m, threads: b.threads}, nil
}

func (s *cppSession) Predict(ctx context.Context, prompt string, p Params) (string, error) {
	if s.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Returning false from the callback stops generation on cancellation.
	s.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	defer s.model.SetTokenCallback(nil)
	text, err := s.model.Predict(prompt, predictOptions(p, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return text, nil
}

func (s *cppSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func predictOptions(p Params, threads int) []llamacpp.PredictOption {
	po := []llamacpp.PredictOption{
		llamacpp.SetTokens(max(1, p.MaxTokens)),
		llamacpp.SetThreads(max(1, threads)),
		llamacpp.SetTopP(positiveOr(p.TopP, llamacpp.DefaultOptions.TopP)),
		llamacpp.SetTopK(positiveOr(p.TopK, llamacpp.DefaultOptions.TopK)),
		llamacpp.SetTemperature(positiveOr(p.Temperature, llamacpp.DefaultOptions.Temperature)),
	}
	if p.Seed != 0 {
		po = append(po, llamacpp.SetSeed(p.Seed))
	}
	if len(p.Stop) > 0 {
		po = append(po, llamacpp.SetStopWords(p.Stop...))
	}
	return po
}
