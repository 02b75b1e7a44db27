package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/pantrylog/authcore/internal/rate"
	"github.com/pantrylog/authcore/password"
	"github.com/pantrylog/authcore/refresh"
	"github.com/pantrylog/authcore/token"
)

// Builder assembles an [Engine]. The Redis client and [UserDirectory] are
// mandatory; everything else has defaults. A Builder is single-use.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	directory UserDirectory
	hasher    Hasher
	auditSink AuditSink

	built bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the shared cache client. The engine never creates or
// owns the connection; lifecycle belongs to the composition root.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory injects the credential backend.
func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithHasher overrides the default argon2id password primitive.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the audit destination. Without one, enabled auditing
// discards events through [NoOpSink].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the counter registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the leaves, and returns the
// engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.directory == nil {
		return nil, errors.New("user directory is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Method:     token.SigningMethod(b.config.Token.SigningMethod),
		Secret:     b.config.Token.Secret,
		PrivateKey: b.config.Token.PrivateKey,
		PublicKey:  b.config.Token.PublicKey,
		Leeway:     b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:       b.config,
		codec:        codec,
		refreshStore: refresh.NewStore(b.redis, ""),
		guard: rate.New(b.redis, rate.Config{
			MaxAttempts:      b.config.Throttle.MaxAttempts,
			Window:           b.config.Throttle.Window,
			EnableIPThrottle: b.config.Throttle.EnableIPThrottle,
		}),
		directory: b.directory,
		hasher:    hasher,
	}

	if b.config.Metrics.Enabled {
		engine.metrics = NewMetrics()
	}
	engine.audit = newAuditDispatcher(b.config.Audit, b.auditSink)

	b.built = true
	return engine, nil
}
