package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"completiond/internal/registry"
	"completiond/pkg/types"
)

// Complete resolves the requested model, invokes its connector once, runs the
// returned inference function once on the prompt and wraps the result.
//
// An unregistered model is not an error: the returned response carries the
// inline message and err is nil, whatever the prompt. A blank prompt for a
// registered model yields a bad-request error. Connector and inference
// failures are returned wrapped.
func (s *Service) Complete(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = s.defaultModel
	}
	factory, ok := s.reg.Lookup(modelID)
	if !ok {
		modelNotFoundTotal.Inc()
		s.pub.Publish(Event{Name: EventModelNotFound, ModelID: modelID})
		return types.CompletionResponse{Error: NotFoundMessage(modelID)}, nil
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return types.CompletionResponse{}, ErrBadRequest("prompt is required")
	}

	start := time.Now()
	connectorInvocations.WithLabelValues(modelID).Inc()
	model, aux, infer, err := factory(ctx)
	if err != nil {
		return types.CompletionResponse{}, s.fail(modelID, "load", fmt.Errorf("load model %s: %w", modelID, err))
	}
	defer closeHandle(model)
	defer closeHandle(aux)
	if infer == nil {
		return types.CompletionResponse{}, s.fail(modelID, "load", fmt.Errorf("load model %s: connector returned no inference function", modelID))
	}
	s.pub.Publish(Event{Name: EventConnectorLoad, ModelID: modelID, Fields: map[string]any{"dur_ms": time.Since(start).Milliseconds()}})

	out, err := infer(ctx, model, registry.Input{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		Seed:        req.Seed,
		Stop:        req.Stop,
	}, aux)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return types.CompletionResponse{}, err
		}
		return types.CompletionResponse{}, s.fail(modelID, "infer", fmt.Errorf("run model %s: %w", modelID, err))
	}

	resp := types.CompletionResponse{Choices: []types.Choice{{Text: Stringify(out)}}}
	dur := time.Since(start)
	completionDuration.WithLabelValues(modelID).Observe(dur.Seconds())
	s.pub.Publish(Event{Name: EventCompleted, ModelID: modelID, Fields: map[string]any{"dur_ms": dur.Milliseconds()}})
	s.log.Debug().Str("model", modelID).Dur("dur", dur).Str("text", resp.Choices[0].Text).Msg("completion")
	return resp, nil
}

func (s *Service) fail(modelID, stage string, err error) error {
	connectorFailures.WithLabelValues(modelID, stage).Inc()
	s.pub.Publish(Event{Name: EventFailed, ModelID: modelID, Fields: map[string]any{"stage": stage, "error": err.Error()}})
	s.log.Error().Str("model", modelID).Str("stage", stage).Err(err).Msg("completion failed")
	return err
}

func closeHandle(h registry.Handle) {
	if h != nil {
		_ = h.Close()
	}
}
