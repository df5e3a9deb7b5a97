// File: internal/ghclient/appauth.go
package ghclient

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v58/github"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

// appJWT signs a short-lived RS256 token identifying the GitHub App.
// GitHub caps the lifetime at ten minutes; the backdated IssuedAt absorbs
// clock skew.
func appJWT(appID int64, privateKeyPath string, now time.Time) (string, error) {
	keyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return "", fmt.Errorf("reading app private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyData)
	if err != nil {
		return "", fmt.Errorf("parsing app private key: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(appID, 10),
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing app JWT: %w", err)
	}
	return signed, nil
}

// installationToken exchanges App credentials for an installation access
// token scoped to the configured installation.
func installationToken(ctx context.Context, cfg config.GitHubConfig) (string, error) {
	if cfg.AppID == 0 || cfg.InstallationID == 0 || cfg.PrivateKeyPath == "" {
		return "", fmt.Errorf("github auth requires a token or complete app credentials (app_id, installation_id, private_key_path)")
	}

	signed, err := appJWT(cfg.AppID, cfg.PrivateKeyPath, time.Now())
	if err != nil {
		return "", err
	}

	appClient := github.NewClient(nil).WithAuthToken(signed)
	token, _, err := appClient.Apps.CreateInstallationToken(ctx, cfg.InstallationID, nil)
	if err != nil {
		return "", fmt.Errorf("creating installation token: %w", err)
	}
	return token.GetToken(), nil
}
