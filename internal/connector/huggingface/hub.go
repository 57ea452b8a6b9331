// Package huggingface connects registry entries to models hosted on the
// Hugging Face Hub. Model metadata and tokenizer configs are fetched from the
// Hub and cached; predictions run on the Inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	DefaultHubURL       = "https://huggingface.co"
	DefaultInferenceURL = "https://api-inference.huggingface.co"

	defaultCacheTTL = 30 * time.Minute
	defaultTimeout  = 120 * time.Second
	cacheCapacity   = 64
	maxErrorBody    = 4096
)

// Config configures a Hub client. Zero values select defaults.
type Config struct {
	HubURL       string
	InferenceURL string
	// Token is sent as a bearer token when non-empty.
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Hub fetches model and tokenizer metadata and runs hosted inference.
type Hub struct {
	hubURL     string
	inferURL   string
	token      string
	httpClient *http.Client

	models     *ttlcache.Cache[string, *Model]
	tokenizers *ttlcache.Cache[string, *Tokenizer]
}

// NewHub constructs a Hub. Call Close to stop the cache expiration loops.
func NewHub(cfg Config) *Hub {
	if cfg.HubURL == "" {
		cfg.HubURL = DefaultHubURL
	}
	if cfg.InferenceURL == "" {
		cfg.InferenceURL = DefaultInferenceURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	h := &Hub{
		hubURL:     strings.TrimRight(cfg.HubURL, "/"),
		inferURL:   strings.TrimRight(cfg.InferenceURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Transport: tr, Timeout: cfg.Timeout},
		models: ttlcache.New[string, *Model](
			ttlcache.WithTTL[string, *Model](cfg.CacheTTL),
			ttlcache.WithCapacity[string, *Model](cacheCapacity),
		),
		tokenizers: ttlcache.New[string, *Tokenizer](
			ttlcache.WithTTL[string, *Tokenizer](cfg.CacheTTL),
			ttlcache.WithCapacity[string, *Tokenizer](cacheCapacity),
		),
	}
	go h.models.Start()
	go h.tokenizers.Start()
	return h
}

// Close stops the cache expiration loops and idle connections.
func (h *Hub) Close() {
	h.models.Stop()
	h.tokenizers.Stop()
	h.httpClient.CloseIdleConnections()
}

// ModelInfo is the subset of /api/models/<id> the connectors use.
type ModelInfo struct {
	ID          string `json:"id"`
	SHA         string `json:"sha"`
	PipelineTag string `json:"pipeline_tag"`
	LibraryName string `json:"library_name"`
}

// Model is the model handle returned by the connectors.
type Model struct {
	Info ModelInfo
	hub  *Hub
}

// Close is a no-op; model handles are shared through the cache.
func (m *Model) Close() error { return nil }

// Model returns the handle for id, fetching its metadata on a cache miss.
func (h *Hub) Model(ctx context.Context, id string) (*Model, error) {
	if item := h.models.Get(id); item != nil {
		return item.Value(), nil
	}
	var info ModelInfo
	status, err := h.getJSON(ctx, h.hubURL+"/api/models/"+escapeRepo(id), &info)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("model %s not found on the hub: %w", id, err)
		}
		return nil, err
	}
	if info.ID == "" {
		info.ID = id
	}
	m := &Model{Info: info, hub: h}
	h.models.Set(id, m, ttlcache.DefaultTTL)
	return m, nil
}

// Tokenizer returns the tokenizer handle for id. Repositories without a
// tokenizer_config.json get an empty config, as transformers falls back to
// defaults in that case.
func (h *Hub) Tokenizer(ctx context.Context, id string) (*Tokenizer, error) {
	if item := h.tokenizers.Get(id); item != nil {
		return item.Value(), nil
	}
	var raw tokenizerConfigJSON
	status, err := h.getJSON(ctx, h.hubURL+"/"+escapeRepo(id)+"/resolve/main/tokenizer_config.json", &raw)
	if err != nil && status != http.StatusNotFound {
		return nil, fmt.Errorf("tokenizer %s: %w", id, err)
	}
	tok := raw.tokenizer(id)
	h.tokenizers.Set(id, tok, ttlcache.DefaultTTL)
	return tok, nil
}

// inferenceRequest is the Inference API payload.
type inferenceRequest struct {
	Inputs     any            `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// infer posts a prediction request and decodes the JSON reply into out.
func (h *Hub) infer(ctx context.Context, id string, req inferenceRequest, out any) error {
	if req.Options == nil {
		req.Options = map[string]any{"wait_for_model": true}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal inference request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.inferURL+"/models/"+escapeRepo(id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	_, err = h.do(ctx, httpReq, out)
	return err
}

func (h *Hub) getJSON(ctx context.Context, u string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	return h.do(ctx, req, out)
}

func (h *Hub) do(ctx context.Context, req *http.Request, out any) (int, error) {
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return resp.StatusCode, nil
}

// APIError is a non-2xx reply from the Hub or the Inference API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huggingface http error %d: %s", e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 from the Hub.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// escapeRepo escapes each path segment of an "org/name" repo id.
func escapeRepo(id string) string {
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
