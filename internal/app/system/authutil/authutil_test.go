package authutil

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	// bcrypt hashes start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Error("expected bcrypt hash to start with $2")
	}
	if hash == "s3cret-password" {
		t.Error("hash must not equal the plaintext")
	}
}

func TestHashPassword_RandomSalt(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	// bcrypt uses random salt, so hashes should be different
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "correct-horse") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "battery-staple") {
		t.Error("expected wrong password to fail")
	}
	if CheckPassword("", "anything") {
		t.Error("expected empty hash to fail")
	}
}
