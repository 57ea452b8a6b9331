package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"completiond/internal/registry"
	"completiond/pkg/types"
)

// Model ids served by this package.
const (
	TkInstructModel  = "allenai/tk-instruct-3b-def"
	FinbertToneModel = "yiyanghkust/finbert-tone"
)

// tk-instruct output length in tokens.
const tkInstructMaxLength = 10

// Entries returns the registry entries for the hosted models.
func (h *Hub) Entries() []registry.Entry {
	return []registry.Entry{
		{
			Model:   types.Model{ID: TkInstructModel, Source: "huggingface", Task: "text2text-generation"},
			Factory: h.TkInstruct(),
		},
		{
			Model:   types.Model{ID: FinbertToneModel, Source: "huggingface", Task: "sentiment-analysis"},
			Factory: h.FinbertTone(),
		},
	}
}

// TkInstruct loads allenai/tk-instruct-3b-def for short text2text generation.
func (h *Hub) TkInstruct() registry.Factory {
	return h.connector(TkInstructModel, text2text(tkInstructMaxLength))
}

// FinbertTone loads yiyanghkust/finbert-tone for financial sentiment analysis.
func (h *Hub) FinbertTone() registry.Factory {
	return h.connector(FinbertToneModel, sentiment)
}

func (h *Hub) connector(id string, fn registry.InferFunc) registry.Factory {
	return func(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
		tok, err := h.Tokenizer(ctx, id)
		if err != nil {
			return nil, nil, nil, err
		}
		model, err := h.Model(ctx, id)
		if err != nil {
			return nil, nil, nil, err
		}
		return model, tok, fn, nil
	}
}

func unpack(m, aux registry.Handle) (*Model, *Tokenizer, error) {
	model, ok := m.(*Model)
	if !ok || model == nil {
		return nil, nil, fmt.Errorf("huggingface: unexpected model handle %T", m)
	}
	tok, _ := aux.(*Tokenizer)
	return model, tok, nil
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// text2text generates up to maxLength tokens and decodes the first sequence.
func text2text(maxLength int) registry.InferFunc {
	return func(ctx context.Context, m registry.Handle, in registry.Input, aux registry.Handle) (any, error) {
		model, tok, err := unpack(m, aux)
		if err != nil {
			return nil, err
		}
		var out []generatedText
		req := inferenceRequest{
			Inputs:     tok.Normalize(in.Prompt),
			Parameters: map[string]any{"max_length": maxLength},
		}
		if err := model.hub.infer(ctx, model.Info.ID, req, &out); err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, errors.New("huggingface: empty generation")
		}
		return tok.Decode(out[0].GeneratedText), nil
	}
}

// sentiment classifies a one-element batch and keeps the top label per input.
func sentiment(ctx context.Context, m registry.Handle, in registry.Input, aux registry.Handle) (any, error) {
	model, tok, err := unpack(m, aux)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := model.hub.infer(ctx, model.Info.ID, inferenceRequest{Inputs: []string{tok.Normalize(in.Prompt)}}, &raw); err != nil {
		return nil, err
	}
	batches, err := decodeClassifications(raw)
	if err != nil {
		return nil, err
	}
	out := make(Classifications, 0, len(batches))
	for _, preds := range batches {
		if best, ok := top(preds); ok {
			out = append(out, best)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("huggingface: empty classification")
	}
	return out, nil
}

// decodeClassifications accepts the batched [[...]] shape and the flat [...]
// shape some deployments return for a single input.
func decodeClassifications(raw json.RawMessage) ([][]Classification, error) {
	var batched [][]Classification
	if err := json.Unmarshal(raw, &batched); err == nil {
		return batched, nil
	}
	var flat []Classification
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	return [][]Classification{flat}, nil
}
