package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pantrylog/authcore/internal/rate"
	"github.com/pantrylog/authcore/refresh"
	"github.com/pantrylog/authcore/token"
)

// Engine composes the token codec, refresh whitelist, login-attempt guard,
// and user directory into the register/login/refresh/logout protocol.
//
// Per credential chain the engine walks Anonymous -> Authenticated(jti_0)
// -> Authenticated(jti_1) -> ... -> Revoked: every refresh supersedes the
// presented jti, logout (or replay of a superseded token) terminates the
// chain. At most one live refresh token exists per chain at any time.
//
// Engines are built once via [Builder] and safe for concurrent use.
type Engine struct {
	config       Config
	codec        *token.Codec
	refreshStore *refresh.Store
	guard        *rate.Guard
	directory    UserDirectory
	hasher       Hasher
	metrics      *Metrics
	audit        *auditDispatcher
}

// Close stops the audit dispatcher, draining buffered events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot copies the current counters. Empty when metrics are
// disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports events lost to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Register creates a Principal through the directory and, on success,
// returns a fresh access/refresh pair with the refresh record stored.
// A taken username or email fails with [ErrConflict].
func (e *Engine) Register(ctx context.Context, input NewPrincipal) (TokenPair, error) {
	if e == nil || e.directory == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	username := strings.TrimSpace(input.Username)
	email := normalizeIdentity(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return TokenPair{}, fmt.Errorf("%w: missing registration fields", ErrConflict)
	}

	digest, err := e.hasher.Hash(input.Password)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := e.directory.Create(ctx, Principal{
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, AuditEvent{
				EventType: AuditRegisterConflict,
				Identity:  email,
				IP:        clientIPFromContext(ctx),
				Error:     err.Error(),
			})
			return TokenPair{}, err
		}
		return TokenPair{}, fmt.Errorf("%w: create principal: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.issuePair(ctx, created.Username, created.ID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRegister,
		Identity:    email,
		PrincipalID: created.ID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
	})
	return pair, nil
}

// Login verifies credentials and returns a fresh pair. The attempt guard
// is consulted before the directory: a throttled identity fails with a
// [*RateLimitError] without any credential check, so attackers cannot
// burn directory lookups past the budget. A credential mismatch leaves
// the window counter incremented; a verified login clears it.
func (e *Engine) Login(ctx context.Context, identity, password string) (TokenPair, error) {
	if e == nil || e.directory == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	identity = normalizeIdentity(identity)
	if identity == "" || password == "" {
		return TokenPair{}, ErrUnauthorized
	}
	ip := clientIPFromContext(ctx)

	if err := e.guard.RecordAttempt(ctx, identity, ip); err != nil {
		var limit *rate.LimitError
		if errors.As(err, &limit) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, AuditEvent{
				EventType: AuditLoginRateLimited,
				Identity:  identity,
				IP:        ip,
				Error:     limit.Error(),
			})
			return TokenPair{}, &RateLimitError{RetryAfter: limit.RetryAfter}
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	principal, err := e.directory.Lookup(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return TokenPair{}, e.failLogin(ctx, identity, ip)
		}
		return TokenPair{}, fmt.Errorf("%w: lookup principal: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.hasher.Verify(password, principal.PasswordDigest)
	if err != nil || !ok {
		// A digest that fails to parse is a mismatch, not an oracle.
		return TokenPair{}, e.failLogin(ctx, identity, ip)
	}

	if err := e.guard.Clear(ctx, identity, ip); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.issuePair(ctx, principal.Username, principal.ID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditLogin,
		Identity:    identity,
		PrincipalID: principal.ID,
		IP:          ip,
		Success:     true,
	})
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, consuming the
// presented jti. Every rejection (forged, expired, jti-less, already
// rotated, logged out) is the same [ErrUnauthorized]; the old record is
// consumed atomically before the new one is created, so a cancelled
// rotation fails closed and the caller must re-authenticate.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.refreshStore == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	claims, err := e.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, e.rejectRefresh(ctx, "", err)
	}
	jti := claims.TokenID()
	if jti == "" {
		return TokenPair{}, e.rejectRefresh(ctx, claims.Subject, errors.New("token carries no jti"))
	}

	principalID, live, err := e.refreshStore.Take(ctx, jti)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !live {
		return TokenPair{}, e.rejectRefresh(ctx, claims.Subject, errors.New("no live record"))
	}
	if principalID != claims.PrincipalID {
		return TokenPair{}, e.rejectRefresh(ctx, claims.Subject, errors.New("record owner mismatch"))
	}

	pair, err := e.issuePair(ctx, claims.Subject, claims.PrincipalID)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditRefresh,
		Identity:    claims.Subject,
		PrincipalID: claims.PrincipalID,
		IP:          clientIPFromContext(ctx),
		Success:     true,
	})
	return pair, nil
}

// Logout revokes the presented refresh token. It is an idempotent no-op
// for tokens that do not decode or carry no jti: the session those would
// name is already unusable. Only cache connectivity failures surface.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.refreshStore == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Decode(refreshToken)
	if err != nil {
		e.metricInc(MetricLogout)
		return nil
	}
	jti := claims.TokenID()
	if jti == "" {
		e.metricInc(MetricLogout)
		return nil
	}

	existed, err := e.refreshStore.Delete(ctx, jti)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditEvent{
		EventType:   AuditLogout,
		Identity:    claims.Subject,
		PrincipalID: claims.PrincipalID,
		IP:          clientIPFromContext(ctx),
		Success:     existed,
	})
	return nil
}

// ValidateAccess verifies an access token and returns its claims for the
// HTTP collaborator to resolve the current principal. Any codec failure
// is [ErrUnauthorized].
func (e *Engine) ValidateAccess(tokenStr string) (*token.Claims, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	claims, err := e.codec.Decode(tokenStr)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// LoginAttempts exposes the current window counter for an identity.
func (e *Engine) LoginAttempts(ctx context.Context, identity string) (int, error) {
	if e == nil || e.guard == nil {
		return 0, ErrEngineNotReady
	}
	n, err := e.guard.Attempts(ctx, normalizeIdentity(identity))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// issuePair mints an access token (no jti) and a refresh token under a
// fresh UUID jti, then whitelists the refresh record. The record TTL
// matches the token's own expiry, so Redis retires both together.
func (e *Engine) issuePair(ctx context.Context, subject string, principalID int64) (TokenPair, error) {
	access, err := e.codec.Encode(subject, principalID, "", e.config.Token.AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode access token: %w", err)
	}

	jti := uuid.NewString()
	refreshTok, err := e.codec.Encode(subject, principalID, jti, e.config.Token.RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("encode refresh token: %w", err)
	}

	if err := e.refreshStore.Put(ctx, jti, principalID, e.config.Token.RefreshTTL); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refreshTok,
		TokenType:    TokenTypeBearer,
	}, nil
}

func (e *Engine) failLogin(ctx context.Context, identity, ip string) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditLoginFailure,
		Identity:  identity,
		IP:        ip,
		Error:     "invalid credentials",
	})
	return ErrUnauthorized
}

func (e *Engine) rejectRefresh(ctx context.Context, subject string, cause error) error {
	e.metricInc(MetricRefreshRejected)
	e.emitAudit(ctx, AuditEvent{
		EventType: AuditRefreshRejected,
		Identity:  subject,
		IP:        clientIPFromContext(ctx),
		Error:     cause.Error(),
	})
	return ErrUnauthorized
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = time.Now()
	e.audit.Emit(ctx, event)
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
