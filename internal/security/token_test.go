package security

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(testAccessSecret, "u1", "a@x.com", "teacher", "active", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseAccessToken(token, testAccessSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@x.com" || claims.Role != "teacher" || claims.Status != "active" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testAccessSecret, "u1", "a@x.com", "admin", "active", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseAccessToken(token, "other-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	token, err := GenerateAccessToken(testAccessSecret, "u1", "a@x.com", "admin", "active", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseAccessToken(token, testAccessSecret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(testRefreshSecret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseRefreshToken(token, testRefreshSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected user id %q", claims.UserID)
	}
}

// Two tokens for the same user in the same instant must still differ, since
// the session registry keys rows by the token hash.
func TestRefreshTokensAreUnique(t *testing.T) {
	first, err := GenerateRefreshToken(testRefreshSecret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := GenerateRefreshToken(testRefreshSecret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == second {
		t.Fatal("refresh tokens for the same user are identical")
	}
}

// Access and refresh tokens are signed with different secrets; one must not
// validate as the other.
func TestSecretsAreNotInterchangeable(t *testing.T) {
	access, err := GenerateAccessToken(testAccessSecret, "u1", "a@x.com", "admin", "active", time.Minute)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	refresh, err := GenerateRefreshToken(testRefreshSecret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	if _, err := ParseRefreshToken(access, testRefreshSecret); err == nil {
		t.Fatal("access token parsed as refresh token")
	}
	if _, err := ParseAccessToken(refresh, testAccessSecret); err == nil {
		t.Fatal("refresh token parsed as access token")
	}
}

func TestParseMalformedToken(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := ParseAccessToken(token, testAccessSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestHashRefreshTokenStable(t *testing.T) {
	if !bytes.Equal(HashRefreshToken("tok"), HashRefreshToken("tok")) {
		t.Fatal("hash of the same token differs")
	}
	if bytes.Equal(HashRefreshToken("tok"), HashRefreshToken("other")) {
		t.Fatal("distinct tokens share a hash")
	}
}
