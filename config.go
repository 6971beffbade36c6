package authcore

import (
	"errors"
	"time"

	"github.com/clinichub/authcore/password"
	"github.com/clinichub/authcore/token"
)

// Config is the process-wide engine configuration. It is read once during
// Build and treated as immutable afterwards; signing keys and work factors
// are never mutated at runtime.
type Config struct {
	Token    TokenConfig
	Password password.Config
	Ledger   LedgerConfig
	Limits   LimitConfig
	Audit    AuditConfig
	// MinSecretLength is the registration-time password policy. Defaults to 8.
	MinSecretLength int
	// Now supplies the current time across the engine (issuance, sweeps,
	// throttle windows). Defaults to time.Now; tests inject a fake clock.
	Now func() time.Time
}

// TokenConfig configures the token codec and pair lifetimes.
type TokenConfig struct {
	SigningMethod token.SigningMethod
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	// AccessTTL is minutes-scale; RefreshTTL is days-scale.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// LedgerConfig configures the revocation ledger backing store.
type LedgerConfig struct {
	// KeyPrefix namespaces Redis keys; defaults to "authcore".
	KeyPrefix string
}

// LimitConfig configures the optional login throttle.
type LimitConfig struct {
	Enabled          bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	// PerIP additionally throttles by client IP (see WithClientIP).
	PerIP bool
}

// AuditConfig configures the audit event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking: events beyond the buffer are
	// counted and discarded instead of stalling request handlers.
	DropIfFull bool
}

// DefaultConfig returns the baseline configuration: HS256 signing (secret
// still required), 15-minute access tokens, 7-day refresh tokens, and an
// argon2id work factor suitable for interactive logins.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: token.MethodHS256,
			Issuer:        "authcore",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Ledger: LedgerConfig{KeyPrefix: "authcore"},
		Limits: LimitConfig{
			MaxLoginAttempts: 10,
			LoginCooldown:    5 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		MinSecretLength: 8,
	}
}

func (c *Config) applyDefaults() {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MinSecretLength <= 0 {
		c.MinSecretLength = 8
	}
	if c.Ledger.KeyPrefix == "" {
		c.Ledger.KeyPrefix = "authcore"
	}
}

func (c *Config) validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token access ttl must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("token refresh ttl must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh ttl must not be shorter than access ttl")
	}
	if c.Limits.Enabled {
		if c.Limits.MaxLoginAttempts <= 0 {
			return errors.New("limits require a positive max login attempts")
		}
		if c.Limits.LoginCooldown <= 0 {
			return errors.New("limits require a positive login cooldown")
		}
	}
	return nil
}
