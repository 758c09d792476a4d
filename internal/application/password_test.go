package application

import (
	"errors"
	"strings"
	"testing"
)

// testArgon2idParams keeps the hashing cost low so the suite stays fast.
var testArgon2idParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestPasswordHash_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("correct horse battery staple", testArgon2idParams)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("expected argon2id encoded hash, got %q", hash)
	}

	if err := VerifyPassword(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}

	if err := VerifyPassword(hash, "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}

func TestPasswordHash_SaltsAreUnique(t *testing.T) {
	t.Parallel()

	first, err := CreatePasswordHash("secret", testArgon2idParams)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	second, err := CreatePasswordHash("secret", testArgon2idParams)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPassword_RejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	for _, malformed := range []string{"", "plaintext", "$bcrypt$something", "$argon2id$v=19$m=8192,t=1,p=1$salt"} {
		if err := VerifyPassword(malformed, "secret"); err == nil {
			t.Fatalf("expected %q to be rejected", malformed)
		}
	}
}
