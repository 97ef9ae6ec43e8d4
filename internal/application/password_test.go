package application

import (
	"errors"
	"strings"
	"testing"
)

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	params := Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
	hash, err := CreatePasswordHash("회의실예약2024", params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}

	other, err := CreatePasswordHash("회의실예약2024", params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected a fresh salt per hash")
	}

	if err := VerifyPassword(hash, "회의실예약2024"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	cases := map[string]error{
		"plaintext":                              ErrInvalidPasswordHash,
		"$bcrypt$v=19$m=1,t=1,p=1$a$b":           ErrInvalidPasswordHash,
		"$argon2id$v=19$m=1,t=1,p=1$a":           ErrInvalidPasswordHash,
		"$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5": ErrIncompatiblePasswordVersion,
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5": ErrInvalidPasswordHash,
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$!!!":  ErrInvalidPasswordHash,
	}
	for encoded, want := range cases {
		if err := VerifyPassword(encoded, "x"); !errors.Is(err, want) {
			t.Fatalf("VerifyPassword(%q) = %v, want %v", encoded, err, want)
		}
	}
}
