package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params follows the OWASP recommendation of 64 MiB, 3 passes.
var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

var errInvalidPHC = errors.New("invalid argon2id PHC string")

// Argon2Hasher produces digests in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	if p.Threads == 0 {
		p.Threads = 1
	}
	return &Argon2Hasher{params: p}
}

func (h *Argon2Hasher) Hash(_ context.Context, plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key with the parameters stored in the digest, so
// digests made under older settings keep verifying.
func (h *Argon2Hasher) Verify(_ context.Context, plaintext, digest string) (bool, error) {
	salt, key, p, err := decodePHC(digest)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key))) //nolint:gosec // key length fits uint32
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodePHC(encoded string) (salt, key []byte, p Argon2Params, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, p, errInvalidPHC
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, p, fmt.Errorf("%w: version: %v", errInvalidPHC, err)
	}
	if version != argon2.Version {
		return nil, nil, p, fmt.Errorf("%w: unsupported version %d", errInvalidPHC, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return nil, nil, p, fmt.Errorf("%w: parameters: %v", errInvalidPHC, err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, p, fmt.Errorf("%w: salt: %v", errInvalidPHC, err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, p, fmt.Errorf("%w: hash", errInvalidPHC)
	}
	return salt, key, p, nil
}
