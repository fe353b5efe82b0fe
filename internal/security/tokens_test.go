package security

import (
	"errors"
	"testing"
	"time"
)

func newTestReader() *TokenReader {
	return NewTokenReader([]byte("test-secret"), "devicetrail-auth", "devicetrail-api")
}

func TestIssueAndRead(t *testing.T) {
	r := newTestReader()

	token, err := r.Issue("user-1", "dom-1", "admin", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := r.Read(token)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.DomainID != "dom-1" {
		t.Errorf("DomainID = %q, want dom-1", claims.DomainID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}

func TestRead_WrongSecret(t *testing.T) {
	token, err := newTestReader().Issue("user-1", "dom-1", "member", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenReader([]byte("other-secret"), "devicetrail-auth", "devicetrail-api")
	if _, err := other.Read(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Read with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestRead_WrongIssuerOrAudience(t *testing.T) {
	token, err := NewTokenReader([]byte("test-secret"), "someone-else", "devicetrail-api").
		Issue("user-1", "dom-1", "member", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := newTestReader().Read(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Read with wrong issuer = %v, want ErrInvalidToken", err)
	}
}

func TestRead_Expired(t *testing.T) {
	r := newTestReader()
	token, err := r.Issue("user-1", "dom-1", "member", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := r.Read(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Read of expired token = %v, want ErrInvalidToken", err)
	}
}

func TestRead_Garbage(t *testing.T) {
	if _, err := newTestReader().Read("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Read of garbage = %v, want ErrInvalidToken", err)
	}
}
