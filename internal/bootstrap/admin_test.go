package bootstrap

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeAdminStore struct {
	email   string
	hash    string
	created bool
	calls   int
}

func (s *fakeAdminStore) Ensure(_ context.Context, email, passwordHash string) (bool, error) {
	s.calls++
	s.email = email
	s.hash = passwordHash
	return s.created, nil
}

func TestEnsureAdmin_HashesAndNormalizes(t *testing.T) {
	s := &fakeAdminStore{created: true}

	if err := EnsureAdmin(context.Background(), s, "  Admin@Example.COM ", "super-secreta-123"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if s.email != "admin@example.com" {
		t.Fatalf("email not normalized: %q", s.email)
	}
	if s.hash == "super-secreta-123" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.hash), []byte("super-secreta-123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestEnsureAdmin_Validation(t *testing.T) {
	s := &fakeAdminStore{}

	if err := EnsureAdmin(context.Background(), s, "", "super-secreta-123"); err == nil {
		t.Fatal("empty email should fail")
	}
	if err := EnsureAdmin(context.Background(), s, "a@b.com", "corta"); err == nil {
		t.Fatal("short password should fail")
	}
	if s.calls != 0 {
		t.Fatal("store should not be touched on invalid input")
	}
}
