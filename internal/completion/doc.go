// Package completion implements the /completions request path: resolve the
// requested model in the registry, run its connector, run the returned
// inference function on the prompt and wrap the stringified result.
//
//   - service.go: Service type, Config and defaults.
//   - complete.go: Complete, the single request entry point.
//   - stringify.go: result coercion to text.
//   - errors.go: bad-request errors and the unknown-model message.
//   - events.go, eventpub_memory.go: lifecycle events for logs and tests.
//   - metrics.go: connector counters and latency histogram.
package completion
