package completion

import (
	"github.com/rs/zerolog"

	"completiond/internal/registry"
	"completiond/pkg/types"
)

// Config encapsulates everything Service construction needs.
type Config struct {
	Registry *registry.Registry
	// DefaultModel is used when a request omits "model". May be empty, in
	// which case such requests get the unknown-model reply.
	DefaultModel string
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Service answers completion requests against an immutable registry.
type Service struct {
	reg          *registry.Registry
	defaultModel string
	pub          EventPublisher
	log          zerolog.Logger
}

// New constructs a Service. A nil registry behaves as an empty one.
func New(cfg Config) *Service {
	s := &Service{
		reg:          cfg.Registry,
		defaultModel: cfg.DefaultModel,
		pub:          cfg.Publisher,
	}
	if s.reg == nil {
		s.reg, _ = registry.New()
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	} else {
		s.log = zerolog.Nop()
	}
	return s
}

// Ready reports whether at least one model is registered.
func (s *Service) Ready() bool { return s.reg.Len() > 0 }

// DefaultModel returns the model used when a request names none.
func (s *Service) DefaultModel() string { return s.defaultModel }

// ListModels returns the registered models.
func (s *Service) ListModels() []types.Model { return s.reg.Models() }
