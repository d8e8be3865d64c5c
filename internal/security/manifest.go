package security

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// PolicyVerification is the outcome of re-checking the policy document
// against its signed manifest.
type PolicyVerification int

const (
	// PolicyVerified - document content matches the recorded integrity tag.
	PolicyVerified PolicyVerification = iota
	// PolicyTamperDetected - document exists but its content no longer
	// matches the tag.
	PolicyTamperDetected
	// PolicyMissing - the workspace has no policy document.
	PolicyMissing
	// PolicyUnsigned - the document exists but no manifest has been recorded.
	PolicyUnsigned
)

func (v PolicyVerification) String() string {
	switch v {
	case PolicyVerified:
		return "verified"
	case PolicyTamperDetected:
		return "tamper_detected"
	case PolicyMissing:
		return "missing"
	case PolicyUnsigned:
		return "unsigned"
	default:
		return "unknown"
	}
}

// Manifest binds the policy document's content to an HMAC tag. It lives under
// the state directory, outside the document itself.
type Manifest struct {
	PolicyPath string    `json:"policy_path"`
	HMAC       string    `json:"hmac"`
	SignedAt   time.Time `json:"signed_at"`
}

func ManifestPath(stateDir string) string {
	return filepath.Join(stateDir, ManifestFileName)
}

func DeviceKeyPath(stateDir string) string {
	return filepath.Join(stateDir, DeviceKeyFileName)
}

// EnsureDeviceKey loads the device key, generating a random 32-byte key with
// 0600 permissions on first use.
func EnsureDeviceKey(stateDir string) ([]byte, error) {
	keyPath := DeviceKeyPath(stateDir)
	if key, err := os.ReadFile(keyPath); err == nil && len(key) > 0 {
		return key, nil
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	if err := atomic.WriteFile(keyPath, bytes.NewReader(key)); err != nil {
		return nil, fmt.Errorf("write device key: %w", err)
	}
	if err := os.Chmod(keyPath, 0600); err != nil {
		return nil, fmt.Errorf("restrict device key permissions: %w", err)
	}

	slog.Info("Device key generated", "path", keyPath)
	return key, nil
}

// SignPolicy records the current integrity tag of the workspace policy
// document. This is the explicit administrative action; the agent itself can
// never reach it through a tool.
func SignPolicy(workspacePath, stateDir string) error {
	policyPath := filepath.Join(workspacePath, PolicyFileName)
	content, err := os.ReadFile(policyPath)
	if err != nil {
		return fmt.Errorf("read policy document: %w", err)
	}

	key, err := EnsureDeviceKey(stateDir)
	if err != nil {
		return err
	}

	manifest := Manifest{
		PolicyPath: policyPath,
		HMAC:       computeTag(key, content),
		SignedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := atomic.WriteFile(ManifestPath(stateDir), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := AppendAuditEntry(stateDir, ActionPolicySigned, "admin", policyPath); err != nil {
		slog.Warn("Failed to audit policy signing", "error", err)
	}

	slog.Info("Policy signed", "policy", policyPath)
	return nil
}

// LoadAndVerifyPolicy recomputes the integrity tag of the on-disk policy
// document and compares it with the last known-good tag.
func LoadAndVerifyPolicy(workspacePath, stateDir string) PolicyVerification {
	policyPath := filepath.Join(workspacePath, PolicyFileName)
	content, err := os.ReadFile(policyPath)
	if err != nil {
		return PolicyMissing
	}

	data, err := os.ReadFile(ManifestPath(stateDir))
	if err != nil {
		return PolicyUnsigned
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		slog.Warn("Malformed policy manifest", "path", ManifestPath(stateDir), "error", err)
		return PolicyTamperDetected
	}

	key, err := EnsureDeviceKey(stateDir)
	if err != nil {
		slog.Error("Cannot load device key for policy verification", "error", err)
		return PolicyTamperDetected
	}

	if hmac.Equal([]byte(computeTag(key, content)), []byte(manifest.HMAC)) {
		return PolicyVerified
	}
	return PolicyTamperDetected
}

func computeTag(key, content []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(content)
	return hex.EncodeToString(mac.Sum(nil))
}
