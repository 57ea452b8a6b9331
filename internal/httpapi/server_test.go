package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"completiond/internal/completion"
	"completiond/internal/registry"
	"completiond/pkg/types"
)

type mockService struct {
	models       []types.Model
	defaultModel string
	ready        bool
	completeErr  error

	mu   sync.Mutex
	reqs []types.CompletionRequest
}

func (m *mockService) ListModels() []types.Model { return append([]types.Model(nil), m.models...) }
func (m *mockService) DefaultModel() string      { return m.defaultModel }
func (m *mockService) Ready() bool               { return m.ready }
func (m *mockService) Complete(ctx context.Context, req types.CompletionRequest) (types.CompletionResponse, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.completeErr != nil {
		return types.CompletionResponse{}, m.completeErr
	}
	if req.Model == "missing" {
		return types.CompletionResponse{Error: completion.NotFoundMessage(req.Model)}, nil
	}
	return types.CompletionResponse{Choices: []types.Choice{{Text: "echo: " + req.Prompt}}}, nil
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func postCompletion(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/completions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.Model{{ID: "m1"}, {ID: "m2"}}, defaultModel: "m1"}
	r := NewMux(svc)
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 || body.Default != "m1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestModelsHandler_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if !strings.Contains(w.Body.String(), `"models":[]`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	svc := &mockService{ready: true}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	svc := &mockService{ready: false}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestCompletions_ReturnsChoices(t *testing.T) {
	svc := &mockService{}
	w := postCompletion(t, NewMux(svc), `{"model":"m1","prompt":"hi","max_tokens":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.CompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Choices) != 1 || body.Choices[0].Text != "echo: hi" || body.Error != "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if len(svc.reqs) != 1 || svc.reqs[0].MaxTokens != 5 {
		t.Fatalf("request not passed through: %+v", svc.reqs)
	}
}

func TestCompletions_UnknownModelIs200WithError(t *testing.T) {
	w := postCompletion(t, NewMux(&mockService{}), `{"model":"missing","prompt":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Could not find model missing."}` {
		t.Fatalf("body=%s", got)
	}
}

func TestCompletions_BadJSON(t *testing.T) {
	w := postCompletion(t, NewMux(&mockService{}), "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != "invalid JSON body" || body.Code != 400 {
		t.Fatalf("unexpected body: %s (%v)", w.Body.String(), err)
	}
}

func TestCompletions_BodyTooLarge(t *testing.T) {
	svc := &mockService{}
	big := `{"prompt":"` + strings.Repeat("a", (1<<20)+10) + `"}`
	w := postCompletion(t, NewMux(svc), big)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
	if len(svc.reqs) != 0 {
		t.Fatal("service must not be called")
	}
}

// echoMux serves a real completion service with a single "echo" model.
func echoMux(t *testing.T, defaultModel string) (http.Handler, *int) {
	t.Helper()
	var mu sync.Mutex
	calls := 0
	reg, err := registry.New(registry.Entry{
		Model: types.Model{ID: "echo"},
		Factory: func(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			infer := func(ctx context.Context, _ registry.Handle, in registry.Input, _ registry.Handle) (any, error) {
				return strings.ToUpper(in.Prompt), nil
			}
			return registry.NopHandle{}, nil, infer, nil
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return NewMux(completion.New(completion.Config{Registry: reg, DefaultModel: defaultModel})), &calls
}

func TestCompletions_PromptRequired(t *testing.T) {
	h, calls := echoMux(t, "echo")
	for _, body := range []string{`{"prompt":"   "}`, `{"model":"echo"}`, `{"model":"echo","prompt":""}`} {
		w := postCompletion(t, h, body)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "prompt is required") {
			t.Fatalf("%s: status=%d body=%s", body, w.Code, w.Body.String())
		}
	}
	if *calls != 0 {
		t.Fatalf("connector invoked %d times for blank prompts", *calls)
	}
}

func TestCompletions_UnknownModelWithEmptyPrompt(t *testing.T) {
	h, calls := echoMux(t, "echo")
	for _, body := range []string{`{"model":"nope","prompt":""}`, `{"model":"nope"}`, `{"model":"nope","prompt":"  "}`} {
		w := postCompletion(t, h, body)
		if got := strings.TrimSpace(w.Body.String()); w.Code != http.StatusOK || got != `{"error":"Could not find model nope."}` {
			t.Fatalf("%s: status=%d body=%s", body, w.Code, got)
		}
	}
	if *calls != 0 {
		t.Fatalf("connector invoked %d times", *calls)
	}
}

func TestCompletions_ContentTypeNotEnforced(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/completions", bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCompletions_HTTPErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"direct", mockHTTPError{msg: "nope", code: http.StatusTeapot}, http.StatusTeapot},
		{"wrapped dependency", fmt.Errorf("load model x: %w", registry.ErrDependencyUnavailable("OPENAI_API_KEY is not set")), http.StatusServiceUnavailable},
		{"bad request", completion.ErrBadRequest("prompt is required"), http.StatusBadRequest},
		{"generic", io.EOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postCompletion(t, NewMux(&mockService{completeErr: tc.err}), `{"prompt":"hi"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d want %d", w.Code, tc.want)
			}
			var body types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body.Error != tc.err.Error() || body.Code != tc.want {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestCompletions_ShutdownSuppressesReply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	defer SetBaseContext(nil)
	cancel()

	w := postCompletion(t, NewMux(&mockService{completeErr: context.Canceled}), `{"prompt":"hi"}`)
	if w.Body.Len() != 0 {
		t.Fatalf("expected no body after shutdown, got %q", w.Body.String())
	}
}

// Runs the real completion service behind the mux.
func TestCompletions_EndToEndWithRegistry(t *testing.T) {
	h, calls := echoMux(t, "echo")

	w := postCompletion(t, h, `{"prompt":"hello"}`)
	if got := strings.TrimSpace(w.Body.String()); w.Code != http.StatusOK || got != `{"choices":[{"text":"HELLO"}]}` {
		t.Fatalf("status=%d body=%s", w.Code, got)
	}
	w = postCompletion(t, h, `{"model":"gpt-9","prompt":"hello"}`)
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"Could not find model gpt-9."}` {
		t.Fatalf("body=%s", got)
	}
	if *calls != 1 {
		t.Fatalf("connector calls=%d want 1", *calls)
	}
}
