package admincore

import (
	"errors"
	"time"

	"github.com/ieltsline/admincore/credstore"
	"github.com/ieltsline/admincore/internal/notice"
	"github.com/ieltsline/admincore/token"
)

// Builder defines a public type used by admincore APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	creds      credstore.Store
	validator  TokenValidator
	noticeSink NoticeSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithCredentials describes the withcredentials operation and its observable behavior.
//
// WithCredentials does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentials(store credstore.Store) *Builder {
	b.creds = store
	return b
}

// WithValidator describes the withvalidator operation and its observable behavior.
//
// WithValidator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithValidator(v TokenValidator) *Builder {
	b.validator = v
	return b
}

// WithNoticeSink describes the withnoticesink operation and its observable behavior.
//
// WithNoticeSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNoticeSink(sink NoticeSink) *Builder {
	b.noticeSink = sink
	return b
}

// WithAllowedRoles describes the withallowedroles operation and its observable behavior.
//
// WithAllowedRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAllowedRoles(roles []Role) *Builder {
	b.config.Session.AllowedRoles = append([]Role(nil), roles...)
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	// Zero means the documented 7-day default; normalize before Validate so
	// a hand-built Config never writes entries that expire immediately.
	if cfg.Session.CredentialTTL == 0 {
		cfg.Session.CredentialTTL = 7 * 24 * time.Hour
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.creds == nil {
		return nil, errors.New("credential store required")
	}

	validator := b.validator
	if validator == nil {
		validator = token.IsValid
	}

	allowed := make(map[Role]struct{}, len(cfg.Session.AllowedRoles))
	for _, r := range cfg.Session.AllowedRoles {
		allowed[r] = struct{}{}
	}

	m := &Manager{
		config:      cfg,
		creds:       b.creds,
		validator:   validator,
		allowed:     allowed,
		state:       StateInitializing,
		loading:     true,
		subscribers: map[int]func(Snapshot){},
	}
	m.notices = notice.NewDispatcher(notice.Config{
		Enabled:    cfg.Notice.Enabled,
		BufferSize: cfg.Notice.BufferSize,
		DropIfFull: cfg.Notice.DropIfFull,
	}, b.noticeSink)
	m.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return m, nil
}
