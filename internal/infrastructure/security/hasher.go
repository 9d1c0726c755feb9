// Package security provides the salted, adaptive password hashers.
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// ErrUnknownDigest is returned when a stored digest matches no supported
// algorithm.
var ErrUnknownDigest = errors.New("unrecognised password digest")

type hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// Hasher hashes new passwords with the configured algorithm and verifies any
// digest by looking at its prefix.
type Hasher struct {
	primary hasher
	bcrypt  *BcryptHasher
	argon   *Argon2Hasher
}

// NewHasher returns a Hasher whose new digests use algorithm. bcryptCost is
// ignored for argon2id.
func NewHasher(algorithm string, bcryptCost int) (*Hasher, error) {
	return newHasher(algorithm, NewBcryptHasher(bcryptCost), NewArgon2Hasher(DefaultArgon2Params))
}

func newHasher(algorithm string, b *BcryptHasher, a *Argon2Hasher) (*Hasher, error) {
	h := &Hasher{bcrypt: b, argon: a}
	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		h.primary = b
	case AlgorithmArgon2id:
		h.primary = a
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
	return h, nil
}

func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	return h.primary.Hash(ctx, plaintext)
}

func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return h.argon.Verify(ctx, plaintext, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return h.bcrypt.Verify(ctx, plaintext, digest)
	default:
		return false, ErrUnknownDigest
	}
}
