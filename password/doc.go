// Package password implements the credential hasher: one-way, salted argon2id
// digests in PHC string format with constant-time verification.
//
// # Architecture boundaries
//
// This package owns hashing, digest parsing, and work-factor validation.
// Account lookup, uniform invalid-credentials behavior, and rate limiting are
// the engine's concern.
//
// # What this package must NOT do
//
//   - Perform any I/O besides reading crypto/rand.
//   - Log or otherwise expose plaintext secrets.
//   - Distinguish "wrong password" from "unknown account" in its API shape.
package password
