package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/coauthor/internal/config"
)

func TestNewPasswordHasher(t *testing.T) {
	hasher := newPasswordHasher()
	bcryptHasher, ok := hasher.(*BcryptHasher)
	if !ok {
		t.Fatalf("expected *BcryptHasher, got %T", hasher)
	}
	if bcryptHasher.cost != bcrypt.DefaultCost {
		t.Fatalf("unexpected cost: %d", bcryptHasher.cost)
	}
}

func TestNewTokenSigner(t *testing.T) {
	signer := newTokenSigner(signerParams{Config: &config.Config{AuthSecret: "top-secret"}})
	hmacSigner, ok := signer.(*HMACSigner)
	if !ok {
		t.Fatalf("expected *HMACSigner, got %T", signer)
	}
	if string(hmacSigner.secret) != "top-secret" {
		t.Fatalf("unexpected secret: %q", string(hmacSigner.secret))
	}
	if hmacSigner.ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", hmacSigner.ttl)
	}
}
