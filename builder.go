package authcore

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clinichub/authcore/internal/rate"
	"github.com/clinichub/authcore/password"
	"github.com/clinichub/authcore/revoke"
	"github.com/clinichub/authcore/token"
)

// Builder assembles an Engine. Construction is allocation-only; no I/O
// happens until the first Engine call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     PrincipalStore
	ledger    revoke.Ledger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the Redis client backing the revocation ledger and the
// login throttle. Optional when WithLedger is given and throttling is off.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies the external principal store. Required.
func (b *Builder) WithStore(store PrincipalStore) *Builder {
	b.store = store
	return b
}

// WithLedger overrides the revocation ledger. When unset, Build constructs a
// Redis-backed ledger from the client given to WithRedis.
func (b *Builder) WithLedger(ledger revoke.Ledger) *Builder {
	b.ledger = ledger
	return b
}

// WithAuditSink supplies the sink receiving audit events. Ignored unless
// Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and returns a ready Engine. All
// configuration problems surface here, at startup; Build is the single
// fail-fast point.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already consumed")
	}

	cfg := b.config
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("authcore config: %w", err)
	}
	if b.store == nil {
		return nil, errors.New("authcore: principal store is required")
	}

	codec, err := token.NewCodec(token.Config{
		SigningMethod: cfg.Token.SigningMethod,
		Secret:        cfg.Token.Secret,
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Now:           cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("authcore token config: %w", err)
	}

	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("authcore password config: %w", err)
	}

	ledger := b.ledger
	if ledger == nil {
		if b.redis == nil {
			return nil, errors.New("authcore: a redis client or an explicit ledger is required")
		}
		ledger = revoke.NewRedisLedger(b.redis, cfg.Ledger.KeyPrefix)
	}

	var limiter *rate.Limiter
	if cfg.Limits.Enabled {
		if b.redis == nil {
			return nil, errors.New("authcore: login throttling requires a redis client")
		}
		limiter = rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Limits.MaxLoginAttempts,
			Cooldown:    cfg.Limits.LoginCooldown,
			PerIP:       cfg.Limits.PerIP,
			KeyPrefix:   cfg.Ledger.KeyPrefix,
		})
	}

	// Digest used to equalize timing for unknown emails during Authenticate.
	decoy, err := hasher.Hash("authcore-decoy-credential")
	if err != nil {
		return nil, fmt.Errorf("authcore decoy hash: %w", err)
	}

	b.built = true
	return &Engine{
		config:    cfg,
		codec:     codec,
		hasher:    hasher,
		ledger:    ledger,
		store:     b.store,
		limiter:   limiter,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		decoyHash: decoy,
	}, nil
}
