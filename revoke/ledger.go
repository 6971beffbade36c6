package revoke

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrAlreadyRevoked is returned when the same token is revoked twice.
	// Callers use it to surface "you cannot log out twice with this token".
	ErrAlreadyRevoked = errors.New("token already revoked")
	// ErrUnavailable is returned when the backing store cannot be reached.
	// Consumers must fail closed on it.
	ErrUnavailable = errors.New("revocation store unavailable")
)

// Ledger records revoked tokens until their natural expiry has passed.
//
// Implementations must make a completed Revoke visible to every subsequent
// IsRevoked within the same process, and must tolerate concurrent calls.
type Ledger interface {
	// Revoke inserts an entry for token. Revoking the same token a second
	// time fails with ErrAlreadyRevoked.
	Revoke(ctx context.Context, token, principalID string, expiresAt time.Time) error
	// IsRevoked reports whether token has an entry in the ledger.
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Sweep removes entries whose stored expiry is at or before now and
	// returns how many were removed. Entries that have not yet expired are
	// never touched. Safe to run concurrently with lookups.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Digest returns the stable ledger key for a token: hex-encoded SHA-256 of
// the exact token string.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
