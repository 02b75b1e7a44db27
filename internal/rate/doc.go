// Package rate implements the fixed-window login-attempt guard backed by
// Redis counters.
//
// A window is a single counter key with a native TTL: the first failed
// attempt creates the key and arms the TTL, later attempts only increment.
// Once the counter reaches the configured maximum, further attempts are
// refused without incrementing, carrying the remaining window time as a
// retry-after hint. A successful login deletes the counter outright.
//
// Fixed-window semantics are deliberate: a caller straddling a window
// boundary can produce up to 2*max-1 failures. The simplicity of one
// INCR/EXPIRE pair per attempt is worth that slack for login throttling.
package rate
