package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
	}{
		{name: "valid", secret: testSecret, ttl: time.Hour},
		{name: "empty secret", secret: "", ttl: time.Hour, wantErr: true},
		{name: "zero ttl", secret: testSecret, ttl: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewJWTManager(tt.secret, tt.ttl)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if m == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := m.GenerateToken("user-1", "alex")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token %q is not a JWT", token)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q; want user-1", claims.Subject)
	}
	if claims.Username != "alex" {
		t.Errorf("Username = %q; want alex", claims.Username)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := m.GenerateToken("user-1", "alex")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	m.now = time.Now
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted an expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	m1, _ := NewJWTManager(testSecret, time.Hour)
	m2, _ := NewJWTManager("another_secret_that_is_long_enough_for_hs256", time.Hour)

	token, _ := m1.GenerateToken("user-1", "alex")
	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted a token signed with another secret")
	}
}

func TestValidateToken_RejectsNone(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	claims := &Claims{
		Username: "alex",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("ValidateToken() accepted an unsigned token")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	for _, tok := range []string{"", "abc", "a.b.c"} {
		if _, err := m.ValidateToken(tok); err == nil {
			t.Errorf("ValidateToken(%q) expected error", tok)
		}
	}
}
