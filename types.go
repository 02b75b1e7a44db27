package authcore

import "context"

// TokenTypeBearer is the token_type value carried by every issued pair.
const TokenTypeBearer = "bearer"

// Principal is the account record owned by a [UserDirectory]. The engine
// only reads it: PasswordDigest is the opaque output of a [Hasher], never
// a cleartext password.
type Principal struct {
	ID             int64
	Username       string
	Email          string
	PasswordDigest string
}

// NewPrincipal is the registration input accepted by [Engine.Register].
// Password arrives in clear and is hashed before the directory sees it.
type NewPrincipal struct {
	Username string
	Email    string
	Password string
}

// TokenPair is the credential pair returned by register, login, and
// refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// UserDirectory is the interface callers implement to connect the engine
// to their user database. It owns the Principal data entirely; the engine
// never persists profile state.
//
// Create must return [ErrConflict] (possibly wrapped) when the username or
// email is already taken. Lookup resolves a normalized identity (email)
// and must return [ErrPrincipalNotFound] when nothing matches; any other
// error is treated as an infrastructure failure.
type UserDirectory interface {
	Create(ctx context.Context, p Principal) (Principal, error)
	Lookup(ctx context.Context, identity string) (Principal, error)
}

// Hasher is the opaque password primitive: hash to digest, verify against
// digest. The default implementation is [password.Argon2].
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}
