package completion

import "github.com/rs/zerolog"

// Event names published by the Service.
const (
	EventModelNotFound = "model_not_found"
	EventConnectorLoad = "connector_load"
	EventCompleted     = "completed"
	EventFailed        = "failed"
)

// Event is a request lifecycle event: name + model ID and optional fields.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the Service. Publish must not block
// or panic.
type EventPublisher interface {
	Publish(Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events to a zerolog logger at debug level.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Logger.Debug().Str("event", e.Name).Str("model", e.ModelID)
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("completion event")
}
