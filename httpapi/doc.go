// Package httpapi exposes the authentication engine over HTTP: JSON
// endpoints for register/login/refresh/logout plus the request plumbing
// around them (payload validation, RFC7807 error responses, per-operation
// metrics).
//
// # Architecture boundaries
//
// The package translates between the wire and the engine. Every
// authentication decision — credential checks, token verification,
// revocation, roles — belongs to the engine; handlers here only decode,
// delegate, and encode.
//
// # What this package must NOT do
//
//   - Inspect or mint tokens itself.
//   - Map one engine error to different statuses depending on the caller.
//   - Leak which of email/secret was wrong in a login failure.
package httpapi
