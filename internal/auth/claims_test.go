package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key-at-least-32-chars!!!"

func testUser() *User {
	return &User{
		ID:    "usr-test",
		Email: "user@example.com",
		Role:  RoleStudent,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(testUser(), testSecret, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.Subject != "usr-test" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "usr-test")
	}
	if claims.Role != RoleStudent {
		t.Errorf("Role = %q, want %q", claims.Role, RoleStudent)
	}

	wantExpiry := time.Now().Add(7 * 24 * time.Hour)
	if got := claims.ExpiresAt.Time; got.Before(wantExpiry.Add(-time.Minute)) || got.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", got, wantExpiry)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testUser(), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	_, err = ParseToken(token, "another-secret-key-at-least-32-chars")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := GenerateToken(testUser(), testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	_, err = ParseToken(token, testSecret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "definitely.not.valid"},
		{name: "random string", token: "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, testSecret)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
