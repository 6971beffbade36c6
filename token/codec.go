package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two credential flavors the codec mints.
type Kind string

const (
	// KindAccess marks a short-lived token that authorizes individual requests.
	KindAccess Kind = "access"
	// KindRefresh marks a longer-lived token used solely to mint new pairs.
	KindRefresh Kind = "refresh"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// SigningMethod selects the signature algorithm used by a Codec.
type SigningMethod string

const (
	// MethodHS256 signs with a shared HMAC-SHA256 secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key and verifies with the public key.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrMalformed is returned when a token is structurally invalid or carries
	// claims the codec does not accept.
	ErrMalformed = errors.New("token malformed")
	// ErrSignature is returned when the signature does not verify against the
	// configured key material.
	ErrSignature = errors.New("token signature invalid")
	// ErrExpired is returned when the token's expiry is not strictly in the
	// future. A token whose expiry equals the current instant is expired.
	ErrExpired = errors.New("token expired")
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	Role string `json:"role"`
	Kind Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Config holds the immutable signing configuration for a Codec.
//
// Key material is injected once at startup and never mutated afterwards.
type Config struct {
	SigningMethod SigningMethod
	// Secret is the shared key for MethodHS256.
	Secret []byte
	// PrivateKey and PublicKey hold raw or PEM-encoded Ed25519 keys for
	// MethodEd25519. PrivateKey may be omitted on verify-only instances.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	// Now supplies the current time for issuance and expiry checks.
	// Defaults to time.Now. Tests inject a fake clock here.
	Now func() time.Time
}

// Codec signs and verifies compact, expiring, tamper-evident tokens. It is
// pure: verification never consults revocation state or any other I/O.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready Codec. Configuration problems are
// reported here, at startup, never per call.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires a public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	return &Codec{config: cfg}, nil
}

// Issue mints a token for subject with the given role, kind, and lifetime.
// Expiry is issued-at plus ttl; a unique jti makes every token distinct even
// when two calls land on the same clock tick.
func (c *Codec) Issue(subject, role string, kind Kind, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	if !kind.Valid() {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	if ttl < 0 {
		return "", errors.New("negative ttl")
	}

	now := c.config.Now()
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(c.method(), claims)
	key, err := c.signKey()
	if err != nil {
		return "", err
	}

	return tok.SignedString(key)
}

// Verify checks structural well-formedness, signature validity, and strict
// expiry. It returns the decoded claims or exactly one of ErrMalformed,
// ErrSignature, ErrExpired. Kind policy (access vs refresh) is the caller's
// concern; Verify only guarantees the kind is one of the known values.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.config.Now),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey()
	})
	if err != nil {
		return nil, translateError(err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" || !claims.Kind.Valid() {
		return nil, ErrMalformed
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrMalformed
	}
	// jwt treats exp == now as still valid; the expiry contract here is strict.
	if !c.config.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	return claims, nil
}

func translateError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignature
	default:
		return ErrMalformed
	}
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (c *Codec) signKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.Secret, nil
	default:
		if len(c.config.PrivateKey) == 0 {
			return nil, errors.New("codec is verify-only: no private key configured")
		}
		return parseEdPrivateKey(c.config.PrivateKey)
	}
}

func (c *Codec) verifyKey() (interface{}, error) {
	switch c.config.SigningMethod {
	case MethodHS256:
		return c.config.Secret, nil
	default:
		return parseEdPublicKey(c.config.PublicKey)
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
