package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"completiond/pkg/types"
)

// headerCounter counts WriteHeader calls.
type headerCounter struct {
	*httptest.ResponseRecorder
	headers int
}

func (h *headerCounter) WriteHeader(code int) {
	h.headers++
	h.ResponseRecorder.WriteHeader(code)
}

func TestWriteJSON_EncodeFailureIsSingleError(t *testing.T) {
	w := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	writeJSON(w, map[string]any{"ch": make(chan int)})
	if w.Code != http.StatusInternalServerError || w.headers != 1 {
		t.Fatalf("status=%d headers=%d", w.Code, w.headers)
	}
	dec := json.NewDecoder(bytes.NewReader(w.Body.Bytes()))
	var body types.ErrorResponse
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("decode: %v (%q)", err, w.Body.String())
	}
	if body.Error != "failed to encode response" || body.Code != http.StatusInternalServerError {
		t.Fatalf("body=%+v", body)
	}
	if dec.More() {
		t.Fatalf("trailing data after error body: %q", w.Body.String())
	}
}

func TestWriteJSON_Success(t *testing.T) {
	w := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	writeJSON(w, types.CompletionResponse{Choices: []types.Choice{{Text: "ok"}}})
	if w.Code != http.StatusOK || w.headers != 1 {
		t.Fatalf("status=%d headers=%d", w.Code, w.headers)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
	if got := w.Body.String(); got != `{"choices":[{"text":"ok"}]}`+"\n" {
		t.Fatalf("body=%q", got)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(fmt.Errorf("wrapped: %w", mockHTTPError{msg: "x", code: http.StatusConflict})); got != http.StatusConflict {
		t.Fatalf("wrapped status=%d", got)
	}
	if got := statusFor(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Fatalf("plain status=%d", got)
	}
}
