package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(userID string) Claims {
	return Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifier_FromPEMFile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "public_key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := NewVerifier(path)
	require.NoError(t, err)

	claims, err := v.Verify(sign(t, key, jwt.SigningMethodRS256, validClaims("u1")))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestNewVerifier_MissingFile(t *testing.T) {
	_, err := NewVerifier(filepath.Join(t.TempDir(), "nope.pem"))
	assert.Error(t, err)
}

func TestVerifier_Rejects(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewVerifierFromKey(&key.PublicKey)

	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	noExpiry := validClaims("u1")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong key", sign(t, other, jwt.SigningMethodRS256, validClaims("u1"))},
		{"expired", sign(t, key, jwt.SigningMethodRS256, expired)},
		{"no expiry", sign(t, key, jwt.SigningMethodRS256, noExpiry)},
		{"no user", sign(t, key, jwt.SigningMethodRS256, validClaims(""))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestVerifier_RejectsHMAC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("u1")).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewVerifierFromKey(&key.PublicKey).Verify(hs)
	assert.Error(t, err)
}
