package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinichub/authcore/revoke"
	"github.com/clinichub/authcore/token"
)

// Logout revokes the presented access token. The ledger entry carries the
// token's own expiry, so it becomes sweepable exactly when the token would
// have died naturally.
//
// Revoking the same token twice fails with ErrAlreadyLoggedOut; callers use
// that signal to detect replay of an already-surrendered credential.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrMissingToken
	}

	claims, err := e.codec.Verify(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != token.KindAccess {
		return fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}

	err = e.ledger.Revoke(ctx, accessToken, claims.Subject, claims.ExpiresAt.Time)
	switch {
	case errors.Is(err, revoke.ErrAlreadyRevoked):
		return ErrAlreadyLoggedOut
	case err != nil:
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditLogout,
		PrincipalID: claims.Subject,
		Success:     true,
	})

	return nil
}
