// Package authcore is the bearer-token session core of the clinichub
// platform: registration, authentication, refresh, logout, and request-time
// authorization for short-lived access tokens paired with longer-lived
// refresh tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder], [Config],
// the error taxonomy, and value types ([Principal], [Role], [RegisterInput],
// AuditEvent). Token signing lives in token/, credential hashing in
// password/, revocation in revoke/; each stays single-purpose and the Engine
// is the only place that combines them.
//
// # What this package must NOT do
//
//   - Own persistent user records: the [PrincipalStore] contract is
//     implemented by callers (store/postgres and store/memory ship as
//     references).
//   - Leak why a credential check failed: authentication failures collapse to
//     [ErrInvalidCredentials], guard failures to [ErrUnauthenticated].
//   - Mutate configuration or key material after Build.
package authcore
