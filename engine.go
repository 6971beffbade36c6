package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinichub/authcore/internal/rate"
	"github.com/clinichub/authcore/password"
	"github.com/clinichub/authcore/revoke"
	"github.com/clinichub/authcore/token"
)

// Engine is the session manager: it orchestrates the hasher, the token codec,
// the revocation ledger, and the external principal store. All methods are
// safe for concurrent use; the engine holds no per-request mutable state.
type Engine struct {
	config    Config
	codec     *token.Codec
	hasher    *password.Hasher
	ledger    revoke.Ledger
	store     PrincipalStore
	limiter   *rate.Limiter
	audit     *auditDispatcher
	decoyHash string
}

// Close flushes and stops the audit dispatcher. Safe on a nil engine.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AccessTTL reports the configured access-token lifetime, for callers that
// surface token expiry to clients.
func (e *Engine) AccessTTL() time.Duration {
	return e.config.Token.AccessTTL
}

// Validate is the authorization-guard core for a single presented token:
// codec verification, access-kind enforcement, revocation lookup, and role
// membership, combined here and nowhere else.
//
// Every validation failure collapses to ErrUnauthenticated; the caller never
// learns whether the token was malformed, expired, or revoked. ErrForbidden
// is the one distinguished failure, since it implies a known valid identity.
// A ledger outage yields ErrLedgerUnavailable: the guard fails closed.
func (e *Engine) Validate(ctx context.Context, tok string, requiredRoles ...Role) (*token.Claims, error) {
	if tok == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := e.codec.Verify(tok)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if claims.Kind != token.KindAccess {
		return nil, ErrUnauthenticated
	}

	revoked, err := e.ledger.IsRevoked(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if len(requiredRoles) > 0 {
		allowed := false
		for _, r := range requiredRoles {
			if r == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrForbidden
		}
	}

	return claims, nil
}

// SweepRevoked removes revocation entries whose expiry has passed. Intended
// for a periodic background task; safe to run concurrently with validation.
func (e *Engine) SweepRevoked(ctx context.Context) (int, error) {
	removed, err := e.ledger.Sweep(ctx, e.config.Now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if removed > 0 {
		e.audit.Emit(ctx, AuditEvent{
			Timestamp: e.config.Now(),
			EventType: AuditSweep,
			Success:   true,
			Metadata:  map[string]string{"removed": fmt.Sprintf("%d", removed)},
		})
	}
	return removed, nil
}

// issuePair mints a fresh access+refresh pair for p.
func (e *Engine) issuePair(p *Principal) (access, refresh string, err error) {
	access, err = e.codec.Issue(p.ID, string(p.Role), token.KindAccess, e.config.Token.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = e.codec.Issue(p.ID, string(p.Role), token.KindRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	event.Timestamp = e.config.Now()
	event.IP = clientIPFromContext(ctx)
	e.audit.Emit(ctx, event)
}

func storeErr(err error) error {
	if errors.Is(err, ErrPrincipalNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
