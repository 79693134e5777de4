package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func generateTestKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return privateKey, &privateKey.PublicKey
}

func createTestToken(privateKey *rsa.PrivateKey, role string, expired bool) string {
	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":  "guardian-123",
		"role": role,
		"exp":  exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tokenString, _ := token.SignedString(privateKey)
	return tokenString
}

func TestRequireRole_NoAuthHeader(t *testing.T) {
	_, publicKey := generateTestKeys(t)
	m := NewAuthMiddleware(publicKey)

	handler := m.RequireRole([]string{RoleGuardian}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/guardian-links/req-1/approve", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole_ExpiredToken(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	m := NewAuthMiddleware(publicKey)

	handler := m.RequireRole([]string{RoleGuardian}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/guardian-links/req-1/approve", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, RoleGuardian, true))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole_WrongRole(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	m := NewAuthMiddleware(publicKey)

	handler := m.RequireRole([]string{RoleAdmin, RoleTeacher}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/payment-requests", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, RoleGuardian, false))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRole_ValidTokenExposesActor(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	m := NewAuthMiddleware(publicKey)

	var actor string
	handler := m.RequireRole([]string{RoleGuardian}, func(w http.ResponseWriter, r *http.Request) {
		actor = ActorID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/guardian-links/req-1/approve", nil)
	req.Header.Set("Authorization", "Bearer "+createTestToken(privateKey, RoleGuardian, false))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if actor != "guardian-123" {
		t.Errorf("actor = %q, want guardian-123", actor)
	}
}
