package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the signature algorithm used by a [Codec].
type SigningMethod string

const (
	// MethodHS256 signs with a shared HMAC secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// ErrInvalidToken is returned by [Codec.Decode] for every rejection:
// bad signature, malformed structure, expired token, or a missing
// required claim. Callers get one error, not a reason taxonomy.
var ErrInvalidToken = errors.New("invalid token")

// Config holds the signing material and verification tuning for a Codec.
//
// For MethodHS256 only Secret is consulted. For MethodEd25519 the private
// key (32-byte seed or 64-byte expanded form) is needed to encode and the
// public key (derived from the private key when absent) to decode.
type Config struct {
	Method     SigningMethod
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
	Leeway     time.Duration
}

// Claims is the fixed claim shape carried by every authcore token.
// PrincipalID maps to the "id" claim; sub, exp, and jti come from the
// embedded registered claims. Decode never returns a partially populated
// Claims value.
type Claims struct {
	PrincipalID int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim, empty for access tokens.
func (c *Claims) TokenID() string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Codec encodes and decodes signed, time-bound claim sets. A Codec is
// immutable after construction and safe for concurrent use.
type Codec struct {
	config    Config
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewCodec validates the signing configuration and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	c := &Codec{config: cfg}

	switch cfg.Method {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a signing secret")
		}
		c.method = jwt.SigningMethodHS256
		c.signKey = cfg.Secret
		c.verifyKey = cfg.Secret
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.method = jwt.SigningMethodEdDSA
		c.signKey = priv
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			c.verifyKey = pub
		} else {
			c.verifyKey = priv.Public()
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Method)
	}

	return c, nil
}

// Encode mints a signed token for the given subject and principal id,
// expiring ttl from now. A non-empty tokenID becomes the jti claim;
// access tokens pass "" and carry no jti at all.
func (c *Codec) Encode(subject string, principalID int64, tokenID string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("empty subject")
	}
	if principalID <= 0 {
		return "", errors.New("non-positive principal id")
	}
	if ttl <= 0 {
		return "", errors.New("non-positive ttl")
	}

	claims := Claims{
		PrincipalID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			ID:        tokenID,
		},
	}

	return jwt.NewWithClaims(c.method, claims).SignedString(c.signKey)
}

// Decode verifies signature and expiry and validates the claim structure.
// Every rejection is reported as [ErrInvalidToken]; the wrapped detail is
// for logs, not for control flow.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return c.verifyKey, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	if claims.PrincipalID <= 0 {
		return nil, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}

	return claims, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	switch len(key) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	default:
		return nil, errors.New("ed25519 private key must be a 32-byte seed or 64-byte key")
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, errors.New("ed25519 public key must be 32 bytes")
	}
	return ed25519.PublicKey(key), nil
}
