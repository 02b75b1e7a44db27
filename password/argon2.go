package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// Config holds argon2id cost parameters. Memory is in KiB.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns interactive-login cost parameters.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 hashes and verifies passwords. Immutable after construction and
// safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 rejects parameters below the package floor and returns a
// ready hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if cfg.Memory < minMemoryKB {
		return nil, errors.New("argon2 memory below minimum")
	}
	if cfg.Time < minTimeCost {
		return nil, errors.New("argon2 time cost below minimum")
	}
	if cfg.Parallelism < minParallelism {
		return nil, errors.New("argon2 parallelism below minimum")
	}
	if cfg.SaltLength < minSaltLength {
		return nil, errors.New("argon2 salt length below minimum")
	}
	if cfg.KeyLength < minKeyLength {
		return nil, errors.New("argon2 key length below minimum")
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a fresh-salted argon2id digest in PHC string format.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest with the parameters embedded in encoded and
// compares in constant time. A malformed digest is an error, not a false.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	memory, time, parallelism, salt, want, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func parsePHC(encoded string) (memory, time uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return 0, 0, 0, nil, nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return 0, 0, 0, nil, nil, errors.New("unsupported digest algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 version field")
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
	}
	if memory == 0 || time == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid argon2 parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return 0, 0, 0, nil, nil, errors.New("invalid salt")
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return 0, 0, 0, nil, nil, errors.New("invalid hash")
	}

	return memory, time, parallelism, salt, hash, nil
}
