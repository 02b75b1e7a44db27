// Package authcore is the authentication and session-lifecycle core of the
// pantrylog backend.
//
// It issues short-lived stateless access tokens and longer-lived revocable
// refresh tokens, rotates refresh tokens on single use, and throttles
// repeated failed logins through a shared Redis cache. Credential storage
// itself lives behind the [UserDirectory] interface; HTTP routing and the
// rest of the product's CRUD surface are out of scope and talk to this
// package only through [Engine].
//
// Construction goes through the [Builder]: inject a Redis client and a
// UserDirectory, tune [Config], call Build. No package-level state exists;
// everything flows down from the composition root.
package authcore
