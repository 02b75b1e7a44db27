// Package refresh implements the server-side whitelist of outstanding
// refresh tokens.
//
// # Key layout
//
// One Redis key per token: "refresh:<jti>" holding the owning principal id,
// with a native key TTL equal to the refresh-token lifetime. A jti is valid
// iff its key exists; expiry is delegated entirely to Redis, so no sweeper
// runs here. Keys are independently owned; there is no cross-key
// coordination.
//
// # Rotation support
//
// [Store.Take] consumes a record atomically via GETDEL, so two concurrent
// rotations of the same token cannot both observe it live: exactly one
// caller receives the record, the other sees it as already gone.
//
// # What this package must NOT do
//
//   - Decode or mint tokens.
//   - Decide boundary errors; "absent" is a boolean here, never an
//     authorization verdict.
package refresh
