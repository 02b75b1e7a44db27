package authcore

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pantrylog/authcore/token"
)

// Config is the full engine configuration. Zero values are not usable;
// start from [DefaultConfig] and override.
type Config struct {
	Token    TokenConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig holds signing material and credential lifetimes.
//
// SigningMethod is "hs256" (Secret) or "ed25519" (PrivateKey/PublicKey).
// AccessTTL is short (minutes): access tokens are stateless and cannot be
// revoked before expiry. RefreshTTL is long (days) and doubles as the
// whitelist record TTL in Redis.
type TokenConfig struct {
	SigningMethod string
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Leeway        time.Duration
}

// ThrottleConfig tunes the fixed-window login-attempt guard.
type ThrottleConfig struct {
	MaxAttempts      int
	Window           time.Duration
	EnableIPThrottle bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counter registry.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production baseline: HS256 signing (secret
// must still be provided), 15-minute access tokens, 7-day refresh tokens,
// and a 5-attempt / 10-minute login window.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: string(token.MethodHS256),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Throttle: ThrottleConfig{
			MaxAttempts: 5,
			Window:      10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch token.SigningMethod(c.Token.SigningMethod) {
	case token.MethodHS256:
		if len(c.Token.Secret) == 0 {
			return errors.New("config: hs256 requires a signing secret")
		}
	case token.MethodEd25519:
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("config: ed25519 requires a private key")
		}
	default:
		return fmt.Errorf("config: unknown signing method %q", c.Token.SigningMethod)
	}

	if c.Token.AccessTTL <= 0 {
		return errors.New("config: access TTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("config: refresh TTL must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("config: refresh TTL shorter than access TTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("config: negative leeway")
	}

	if c.Throttle.MaxAttempts < 1 {
		return errors.New("config: throttle max attempts must be at least 1")
	}
	if c.Throttle.Window < time.Second {
		return errors.New("config: throttle window must be at least 1s")
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("config: negative audit buffer size")
	}

	return nil
}

// ConfigFromEnv builds a Config from the deployment's environment
// variables, falling back to [DefaultConfig] values where a variable is
// unset:
//
//	AUTH_SECRET_KEY                 signing secret (hs256)
//	AUTH_SIGNING_ALGORITHM          "hs256" or "ed25519"
//	ACCESS_TOKEN_EXPIRE_MINUTES     access-token TTL
//	REFRESH_TOKEN_EXPIRE_DAYS       refresh-token TTL
//	LOGIN_ATTEMPT_LIMIT             failed attempts per window
//	LOGIN_ATTEMPT_WINDOW_SECONDS    window length
//
// Loading a .env file beforehand (godotenv) is the caller's business.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("AUTH_SECRET_KEY"); v != "" {
		cfg.Token.Secret = []byte(v)
	}
	if v := os.Getenv("AUTH_SIGNING_ALGORITHM"); v != "" {
		cfg.Token.SigningMethod = v
	}

	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		cfg.Token.AccessTTL = time.Duration(minutes) * time.Minute
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: REFRESH_TOKEN_EXPIRE_DAYS: %w", err)
		}
		cfg.Token.RefreshTTL = time.Duration(days) * 24 * time.Hour
	}

	if v := os.Getenv("LOGIN_ATTEMPT_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: LOGIN_ATTEMPT_LIMIT: %w", err)
		}
		cfg.Throttle.MaxAttempts = limit
	}
	if v := os.Getenv("LOGIN_ATTEMPT_WINDOW_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: LOGIN_ATTEMPT_WINDOW_SECONDS: %w", err)
		}
		cfg.Throttle.Window = time.Duration(seconds) * time.Second
	}

	return cfg, cfg.Validate()
}
