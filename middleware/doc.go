// Package middleware exposes the authorization guard as net/http middleware,
// compatible with chi and any router built on http.Handler.
//
// The guard is the single place where token validity, revocation, and role
// authorization combine. Clients see three outcomes only: 401 for any
// token-validation failure (the reason is never distinguished), 403 for a
// valid identity lacking the required role, and 503 when the revocation
// backend is unreachable — the guard fails closed, never open.
package middleware
