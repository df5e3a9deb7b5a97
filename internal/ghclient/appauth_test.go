package ghclient

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

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

// writeTestKey generates an RSA key and writes it in PKCS#1 PEM form, the
// format GitHub App keys are downloaded in.
func writeTestKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	path := filepath.Join(t.TempDir(), "app.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path, key
}

func TestAppJWTClaims(t *testing.T) {
	path, key := writeTestKey(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	signed, err := appJWT(123456, path, now)
	require.NoError(t, err)

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, "123456", claims.Issuer)
	assert.Equal(t, now.Add(-60*time.Second), claims.IssuedAt.Time.UTC())
	assert.Equal(t, now.Add(9*time.Minute), claims.ExpiresAt.Time.UTC())
}

func TestAppJWTMissingKeyFile(t *testing.T) {
	_, err := appJWT(1, filepath.Join(t.TempDir(), "missing.pem"), time.Now())
	assert.ErrorContains(t, err, "reading app private key")
}

func TestAppJWTMalformedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := appJWT(1, path, time.Now())
	assert.ErrorContains(t, err, "parsing app private key")
}

func TestInstallationTokenRequiresCompleteCredentials(t *testing.T) {
	_, err := installationToken(t.Context(), config.GitHubConfig{AppID: 1})
	assert.ErrorContains(t, err, "complete app credentials")
}
