package authcore

import "errors"

var (
	// ErrInvalidInput is returned for malformed request data: empty or
	// malformed fields, unknown roles, secrets below the minimum length.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateEmail is returned by Register when the store already holds
	// a principal with the given email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned by Authenticate for unknown email,
	// wrong secret, and inactive principal alike. The three cases are never
	// distinguished, to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned by Authenticate when the login throttle
	// budget for the identifier or client IP is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInvalidRefreshToken is returned by Refresh for every failure mode:
	// expired, malformed, bad signature, wrong kind, unknown or inactive
	// subject. Detail never leaks to the caller.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrMissingToken is returned by Logout when no token is presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned by Logout when the presented token fails
	// structural verification or is not an access token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrAlreadyLoggedOut is returned by Logout when the token has already
	// been revoked.
	ErrAlreadyLoggedOut = errors.New("already logged out")
	// ErrUnauthenticated is returned by Validate for every token-validation
	// failure: absent, malformed, tampered, expired, wrong kind, or revoked.
	// The reason is deliberately not distinguishable by the caller.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned by Validate when the token is valid but the
	// role claim does not satisfy the required roles. Unlike
	// ErrUnauthenticated it implies a known, valid identity.
	ErrForbidden = errors.New("forbidden")
	// ErrLedgerUnavailable is returned when the revocation store cannot be
	// reached. Consumers must fail closed on it, never open.
	ErrLedgerUnavailable = errors.New("revocation ledger unavailable")
	// ErrStoreUnavailable is returned when the principal store fails for a
	// reason other than a missing record.
	ErrStoreUnavailable = errors.New("principal store unavailable")
	// ErrPrincipalNotFound is the sentinel PrincipalStore implementations
	// return for missing records. The engine translates it before it reaches
	// clients.
	ErrPrincipalNotFound = errors.New("principal not found")
)
