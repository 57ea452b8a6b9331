package llama

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"

	"completiond/internal/registry"
	"completiond/pkg/types"
)

const defaultIdleTTL = 10 * time.Minute

// Config configures a Loader. Zero values select defaults.
type Config struct {
	// Backend defaults to NewBackend(ContextSize, Threads).
	Backend     Backend
	ContextSize int
	Threads     int
	// IdleTTL is how long loaded weights stay resident without use.
	IdleTTL time.Duration
	Logger  *zerolog.Logger
}

// Loader turns GGUF registry entries into connectors. Loaded weights are
// kept in a TTL cache keyed by file path and freed when they expire.
type Loader struct {
	backend Backend
	log     zerolog.Logger

	loadMu sync.Mutex
	cache  *ttlcache.Cache[string, *Weights]
}

// Weights is the model handle for a loaded GGUF file.
type Weights struct {
	Path string
	mu   sync.Mutex
	sess Session
}

// Close is a no-op: the Loader's cache owns the session.
func (w *Weights) Close() error { return nil }

// NewLoader constructs a Loader. Call Close to free all loaded weights.
func NewLoader(cfg Config) *Loader {
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = 2048
	}
	if cfg.Backend == nil {
		cfg.Backend = NewBackend(cfg.ContextSize, cfg.Threads)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	l := &Loader{backend: cfg.Backend, log: zerolog.Nop()}
	if cfg.Logger != nil {
		l.log = *cfg.Logger
	}
	l.cache = ttlcache.New[string, *Weights](
		ttlcache.WithTTL[string, *Weights](cfg.IdleTTL),
	)
	l.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Weights]) {
		w := item.Value()
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.sess != nil {
			if err := w.sess.Close(); err != nil {
				l.log.Warn().Err(err).Str("path", w.Path).Msg("free llama weights")
			}
			w.sess = nil
		}
		l.log.Info().Str("path", w.Path).Int("reason", int(reason)).Msg("llama weights evicted")
	})
	go l.cache.Start()
	return l
}

// Close frees every loaded model and stops the expiration loop.
func (l *Loader) Close() {
	l.cache.DeleteAll()
	l.cache.Stop()
}

// Loaded returns the number of resident models.
func (l *Loader) Loaded() int { return l.cache.Len() }

// Entries builds registry entries for scanned GGUF models.
func (l *Loader) Entries(models []types.Model) []registry.Entry {
	out := make([]registry.Entry, 0, len(models))
	for _, m := range models {
		out = append(out, registry.Entry{Model: m, Factory: l.Factory(m.Path)})
	}
	return out
}

// Factory returns the connector for the model file at path.
func (l *Loader) Factory(path string) registry.Factory {
	return func(ctx context.Context) (registry.Handle, registry.Handle, registry.InferFunc, error) {
		w, err := l.weights(path)
		if err != nil {
			return nil, nil, nil, err
		}
		return w, nil, predict, nil
	}
}

func (l *Loader) weights(path string) (*Weights, error) {
	if item := l.cache.Get(path); item != nil {
		return item.Value(), nil
	}
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	if item := l.cache.Get(path); item != nil {
		return item.Value(), nil
	}
	start := time.Now()
	sess, err := l.backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	w := &Weights{Path: path, sess: sess}
	l.cache.Set(path, w, ttlcache.DefaultTTL)
	l.log.Info().Str("path", path).Dur("dur", time.Since(start)).Msg("llama weights loaded")
	return w, nil
}

func predict(ctx context.Context, m registry.Handle, in registry.Input, _ registry.Handle) (any, error) {
	w, ok := m.(*Weights)
	if !ok || w == nil {
		return nil, fmt.Errorf("llama: unexpected model handle %T", m)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sess == nil {
		return nil, fmt.Errorf("llama: %s was unloaded", w.Path)
	}
	return w.sess.Predict(ctx, in.Prompt, paramsFromInput(in))
}
