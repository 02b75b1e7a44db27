// Package password provides the opaque hash/verify primitive consumed by
// the engine: hash(password) -> digest, verify(password, digest) -> bool.
//
// Digests are argon2id in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash), so parameters travel with
// the digest and verification never depends on current configuration.
package password
