package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// APITokenPath returns the token location under the state directory.
func APITokenPath(stateDir string) string {
	return filepath.Join(stateDir, APITokenFileName)
}

// EnsureAPIToken loads the HTTP API bearer token, generating a random
// 32-byte base64url token with 0600 permissions on first run.
func EnsureAPIToken(stateDir string) (string, error) {
	tokenPath := APITokenPath(stateDir)

	if data, err := os.ReadFile(tokenPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, nil
		}
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate api token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(tokenPath, []byte(token), 0600); err != nil {
		return "", fmt.Errorf("write api token: %w", err)
	}

	slog.Info("API token generated", "path", tokenPath)
	return token, nil
}
