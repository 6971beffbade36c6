// Package revoke implements the revocation ledger: a bounded-growth record of
// tokens that must no longer be honored even though they are structurally
// valid and unexpired.
//
// Entries are keyed by the SHA-256 digest of the exact token string and carry
// the owning principal id plus the token's original expiry. Once that expiry
// has passed the entry carries no further meaning and Sweep may remove it.
//
// # Architecture boundaries
//
// The ledger answers exactly three questions: revoke once, is-revoked, and
// sweep. Token verification, kind policy, and role checks live elsewhere.
//
// # What this package must NOT do
//
//   - Parse or verify token contents.
//   - Decide what a revoked token means for a request (the guard's job).
//   - Store plaintext tokens; only digests are persisted.
package revoke
