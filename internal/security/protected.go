// Package security tracks protected files, maintains the append-only audit
// trail, and verifies the signed policy manifest to detect tampering.
package security

import (
	"strings"

	"github.com/google/shlex"
)

// PolicyFileName is the workspace-resident instructions/guardrails document
// whose integrity is bound to the signed manifest.
const PolicyFileName = "WARDEN.md"

const (
	DeviceKeyFileName = ".device_key"
	AuditLogFileName  = ".security_audit.jsonl"
	ManifestFileName  = ".warden_manifest.json"
	APITokenFileName  = ".api_token"
)

// protectedFiles is the compiled-in set of filenames no tool may create,
// overwrite, or edit, independent of any filter configuration. The set can be
// extended, never shrunk.
var protectedFiles = map[string]struct{}{
	DeviceKeyFileName: {},
	AuditLogFileName:  {},
	ManifestFileName:  {},
	APITokenFileName:  {},
	PolicyFileName:    {},
}

// IsWorkspaceFileProtected reports exact membership in the protected set.
func IsWorkspaceFileProtected(name string) bool {
	_, ok := protectedFiles[name]
	return ok
}

// ProtectedFileNames returns the protected set in no particular order.
func ProtectedFileNames() []string {
	names := make([]string, 0, len(protectedFiles))
	for name := range protectedFiles {
		names = append(names, name)
	}
	return names
}

// CheckBashCommand scans a shell command string for references to protected
// files or the policy document. Bash is opaque, so this is a best-effort
// textual heuristic, not an enforcement point: the caller audits matches and
// decides per its policy mode.
func CheckBashCommand(command string) []string {
	tokens, err := shlex.Split(command)
	if err != nil {
		// Unbalanced quotes and the like; fall back to whitespace fields.
		tokens = strings.Fields(command)
	}

	seen := make(map[string]struct{})
	var refs []string
	for _, token := range tokens {
		lower := strings.ToLower(token)
		for name := range protectedFiles {
			if strings.Contains(lower, strings.ToLower(name)) {
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					refs = append(refs, name)
				}
			}
		}
	}
	return refs
}
