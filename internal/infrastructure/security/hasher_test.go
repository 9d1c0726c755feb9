package security

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var fastArgon = Argon2Params{Time: 1, Memory: 1024, Threads: 1}

func testHasher(t *testing.T, algorithm string) *Hasher {
	t.Helper()
	h, err := newHasher(algorithm, NewBcryptHasher(bcrypt.MinCost), NewArgon2Hasher(fastArgon))
	if err != nil {
		t.Fatalf("newHasher(%q): %v", algorithm, err)
	}
	return h
}

func TestHasher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, alg := range []string{AlgorithmBcrypt, AlgorithmArgon2id} {
		t.Run(alg, func(t *testing.T) {
			h := testHasher(t, alg)

			d1, err := h.Hash(ctx, "Secret1")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			d2, err := h.Hash(ctx, "Secret1")
			if err != nil {
				t.Fatalf("Hash: %v", err)
			}
			if d1 == d2 {
				t.Fatalf("two hashes of the same password must differ")
			}
			if strings.Contains(d1, "Secret1") {
				t.Fatalf("digest contains the plaintext")
			}

			for _, d := range []string{d1, d2} {
				ok, err := h.Verify(ctx, "Secret1", d)
				if err != nil || !ok {
					t.Fatalf("Verify(correct) = %v, %v", ok, err)
				}
				ok, err = h.Verify(ctx, "secret1", d)
				if err != nil || ok {
					t.Fatalf("Verify(wrong) = %v, %v", ok, err)
				}
			}
		})
	}
}

func TestHasher_PrimaryAlgorithmSelectsPrefix(t *testing.T) {
	ctx := context.Background()

	d, _ := testHasher(t, AlgorithmArgon2id).Hash(ctx, "pw")
	if !strings.HasPrefix(d, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected argon2id digest %q", d)
	}

	d, _ = testHasher(t, "").Hash(ctx, "pw")
	if !strings.HasPrefix(d, "$2a$") {
		t.Fatalf("bcrypt must be the default, got %q", d)
	}
}

func TestHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	ctx := context.Background()
	bc := testHasher(t, AlgorithmBcrypt)
	ar := testHasher(t, AlgorithmArgon2id)

	oldDigest, _ := bc.Hash(ctx, "pw")
	if ok, err := ar.Verify(ctx, "pw", oldDigest); err != nil || !ok {
		t.Fatalf("argon2id-primary hasher must still verify bcrypt digests: %v, %v", ok, err)
	}

	newDigest, _ := ar.Hash(ctx, "pw")
	if ok, err := bc.Verify(ctx, "pw", newDigest); err != nil || !ok {
		t.Fatalf("bcrypt-primary hasher must verify argon2id digests: %v, %v", ok, err)
	}
}

func TestHasher_MalformedDigest(t *testing.T) {
	ctx := context.Background()
	h := testHasher(t, AlgorithmBcrypt)

	if _, err := h.Verify(ctx, "pw", "plaintext"); !errors.Is(err, ErrUnknownDigest) {
		t.Fatalf("expected ErrUnknownDigest, got %v", err)
	}
	if _, err := h.Verify(ctx, "pw", "$argon2id$v=19$garbage"); !errors.Is(err, errInvalidPHC) {
		t.Fatalf("expected errInvalidPHC, got %v", err)
	}
	if _, err := h.Verify(ctx, "pw", "$2a$04$short"); err == nil {
		t.Fatalf("expected error for truncated bcrypt digest")
	}
}

func TestNewHasher_UnknownAlgorithm(t *testing.T) {
	if _, err := NewHasher("md5", 0); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	if got := NewBcryptHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("zero cost = %d, want default", got)
	}
	if got := NewBcryptHasher(1).cost; got != bcrypt.MinCost {
		t.Fatalf("low cost = %d, want min", got)
	}
	if got := NewBcryptHasher(99).cost; got != bcrypt.MaxCost {
		t.Fatalf("high cost = %d, want max", got)
	}
}
