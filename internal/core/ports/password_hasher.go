package ports

import "context"

// PasswordHasher turns plaintext passwords into salted one-way digests.
// Verify reports (false, nil) on a mismatch and an error only when the digest
// cannot be processed.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}
