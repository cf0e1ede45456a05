package apple

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/session"
)

const (
	testClientID = "com.example.myfinances"
	testSecret   = "test-secret"
)

func hmacVerifier() *Verifier {
	return &Verifier{
		ClientID: testClientID,
		Methods:  []string{jwt.SigningMethodHS256.Alg()},
		Keyfunc: func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		},
	}
}

func signHS256(t *testing.T, c claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() claims {
	return claims{
		Email: "ana@privaterelay.appleid.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   "001234.abcd",
			Audience:  jwt.ClaimStrings{testClientID},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerify(t *testing.T) {
	v := hmacVerifier()

	cred, err := v.Verify(signHS256(t, validClaims()), " Ana ")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := session.AppleCredential{User: "001234.abcd", Email: "ana@privaterelay.appleid.com", GivenName: "Ana"}
	if cred != want {
		t.Fatalf("credential = %+v, want %+v", cred, want)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*claims)
	}{
		{"wrong issuer", func(c *claims) { c.Issuer = "https://evil.example.com" }},
		{"wrong audience", func(c *claims) { c.Audience = jwt.ClaimStrings{"com.other.app"} }},
		{"expired", func(c *claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }},
		{"no expiry", func(c *claims) { c.ExpiresAt = nil }},
		{"no subject", func(c *claims) { c.Subject = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			tt.mutate(&c)
			_, err := hmacVerifier().Verify(signHS256(t, c), "")
			if !errors.Is(err, core.ErrAuthExchangeFailed) {
				t.Fatalf("got %v, want ErrAuthExchangeFailed", err)
			}
		})
	}

	t.Run("bad signature", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("other"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := hmacVerifier().Verify(tok, ""); !errors.Is(err, core.ErrAuthExchangeFailed) {
			t.Fatalf("got %v, want ErrAuthExchangeFailed", err)
		}
	})

	t.Run("algorithm not allowed", func(t *testing.T) {
		v := hmacVerifier()
		v.Methods = nil
		if _, err := v.Verify(signHS256(t, validClaims()), ""); !errors.Is(err, core.ErrAuthExchangeFailed) {
			t.Fatalf("got %v, want ErrAuthExchangeFailed", err)
		}
	})
}

func TestProvider(t *testing.T) {
	out, err := Provider{Verifier: hmacVerifier()}.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize(dismissed): %v", err)
	}
	if _, err := session.Normalize(out); !errors.Is(err, core.ErrAuthCancelled) {
		t.Fatalf("dismissed prompt = %v, want ErrAuthCancelled", err)
	}

	p := Provider{
		Verifier:   hmacVerifier(),
		Credential: Credential{IdentityToken: signHS256(t, validClaims()), GivenName: "Ana"},
	}
	out, err = p.Authorize(context.Background())
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	id, err := session.Normalize(out)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if id.ID != "001234.abcd" || id.Name != "Ana" || id.Photo != "" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	jwksSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-key",
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   "AQAB",
			}},
		})
	}))
	defer jwksSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	v, err := NewJWKSVerifier(ctx, testClientID, jwksSrv.URL, log.Discard())
	if err != nil {
		t.Fatalf("NewJWKSVerifier: %v", err)
	}
	defer v.Close()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	tok.Header["kid"] = "test-key"
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cred, err := v.Verify(signed, "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if cred.User != "001234.abcd" {
		t.Fatalf("user = %q", cred.User)
	}
}
