package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis transport failure so callers can
// tell infrastructure trouble apart from a record that simply is not there.
var ErrStoreUnavailable = errors.New("refresh store unavailable")

const defaultKeyPrefix = "refresh:"

// Store is the revocable whitelist of outstanding refresh tokens.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store on the given Redis client. An empty prefix
// selects the default "refresh:" layout.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

// Put creates or overwrites the whitelist entry for jti, expiring ttl from
// now. A previously absent jti becomes valid.
func (s *Store) Put(ctx context.Context, jti string, principalID int64, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(jti), principalID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Exists reports whether jti currently has a live record.
func (s *Store) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// Delete removes the record for jti. Deleting an absent key is not an
// error; the returned bool tells the caller whether a live record was
// actually removed.
func (s *Store) Delete(ctx context.Context, jti string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Take atomically deletes the record for jti and returns the principal id
// it held. ok is false when no live record existed; the caller cannot
// distinguish natural expiry from prior revocation, which is the point.
// A record whose value does not parse as a principal id is treated as
// absent; it was consumed either way.
func (s *Store) Take(ctx context.Context, jti string) (principalID int64, ok bool, err error) {
	val, err := s.redis.GetDel(ctx, s.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, nil
	}
	return id, true, nil
}

func (s *Store) key(jti string) string {
	return s.prefix + jti
}
