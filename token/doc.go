// Package token implements signing and verification of the bearer
// credentials issued by the authcore engine.
//
// # Token format
//
// Compact JWS (golang-jwt/v5) whose claim set is exactly {sub, id, exp},
// plus {jti} on refresh tokens. Access tokens deliberately omit jti: they
// are stateless and non-revocable before natural expiry, which keeps
// per-request validation free of store lookups. Refresh tokens always
// carry a jti; it is the revocation handle held by the refresh store.
//
// # Architecture boundaries
//
// This package owns claim encoding, signature verification, and structural
// validation. Decoding is all-or-nothing: a token that verifies but lacks
// a required claim still fails with [ErrInvalidToken]. Whitelisting,
// rotation, and replay policy belong to the engine and the refresh store.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import the root package or the refresh store.
//   - Decide which error the caller's boundary exposes.
package token
