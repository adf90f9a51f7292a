package helpers

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash should not equal the plain password")
	}
	if cost, _ := bcrypt.Cost([]byte(hash)); cost != bcrypt.MinCost {
		t.Fatalf("cost = %d", cost)
	}
	if !h.Matches(hash, "correct horse") {
		t.Fatalf("matching password rejected")
	}
	if h.Matches(hash, "wrong") || h.Matches("not-a-hash", "correct horse") {
		t.Fatalf("mismatch accepted")
	}
}

func TestPasswordHasherClampsCost(t *testing.T) {
	for _, c := range []int{0, -1, bcrypt.MaxCost + 1} {
		if got := NewPasswordHasher(c).Cost(); got != bcrypt.DefaultCost {
			t.Errorf("cost %d clamped to %d", c, got)
		}
	}
	var zero PasswordHasher
	if _, err := zero.Hash("x"); err != nil {
		t.Fatalf("zero hasher should still hash: %v", err)
	}
}
