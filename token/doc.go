// Package token implements the signed-token codec: compact JWS credentials
// carrying a subject identity, a role claim, and an access/refresh kind.
//
// # Wire format
//
// Standard compact JWT layout: three dot-separated base64url segments
// (header, payload, signature), signed with HS256 or Ed25519.
//
// # Architecture boundaries
//
// This package owns issuance and verification of token structure, signature,
// and expiry. Revocation checks and role policy are layered on top by the
// engine and middleware; the codec stays pure and side-effect-free.
//
// # What this package must NOT do
//
//   - Consult the revocation ledger or any store.
//   - Perform network or disk I/O.
//   - Import the root authcore package (no import cycles).
package token
