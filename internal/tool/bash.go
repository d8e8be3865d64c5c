package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/security"
)

// bash child processes get this long to die after the deadline fires before
// Wait gives up on their I/O pipes.
const bashKillGracePeriod = 5 * time.Second

// BashTool spawns bash -c under a deadline with a filtered environment.
type BashTool struct {
	defaultTimeoutMS int64
	stateDir         string
	filter           *filter.CompiledToolFilter
	strictPolicy     bool
	workspacePath    string
	envDenyPatterns  []string
}

func NewBashTool(defaultTimeoutMS int64, stateDir string, f *filter.CompiledToolFilter, strictPolicy bool, workspacePath string, envDenyPatterns []string) *BashTool {
	return &BashTool{
		defaultTimeoutMS: defaultTimeoutMS,
		stateDir:         stateDir,
		filter:           f,
		strictPolicy:     strictPolicy,
		workspacePath:    workspacePath,
		envDenyPatterns:  envDenyPatterns,
	}
}

func (t *BashTool) Name() string {
	return "bash"
}

func (t *BashTool) Description() string {
	return "Execute a bash command and return the output"
}

func (t *BashTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The bash command to execute",
			},
			"timeout_ms": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Optional timeout in milliseconds (default: %d)", t.defaultTimeoutMS),
			},
		},
		"required": []string{"command"},
	}
}

func (t *BashTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		Command   string `json:"command"`
		TimeoutMS int64  `json:"timeout_ms"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Command) == "" {
		return "", fmt.Errorf("missing command: %w", wardenErrors.ErrInvalidArguments)
	}
	command := args.Command

	// Filter on the raw command string (hardcoded + user-configured).
	if err := t.filter.Check(command, "bash", "command"); err != nil {
		return "", err
	}

	timeoutMS := args.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = t.defaultTimeoutMS
	}

	// Best-effort protected file check; bash is opaque to path resolution.
	warning := ""
	if suspicious := security.CheckBashCommand(command); len(suspicious) > 0 {
		detail := fmt.Sprintf("Bash command references protected files: %v (cmd: %s)",
			suspicious, truncate(command, 200))
		if err := security.AppendAuditEntryWithDetail(t.stateDir, security.ActionWriteBlocked, "agent", "tool:bash", detail); err != nil {
			slog.Warn("Failed to append audit entry", "error", err)
		}

		if t.strictPolicy {
			return "", fmt.Errorf("bash command references protected files %v: %w",
				suspicious, wardenErrors.ErrProtectedFile)
		}
		slog.Warn("Bash command may modify protected files", "files", suspicious)
		warning = fmt.Sprintf("\n\n[WARNING: command references protected files: %v]", suspicious)
	}

	slog.Debug("Executing bash command", "timeout_ms", timeoutMS, "command", truncate(command, 120))

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	// On deadline expiry CommandContext kills the child; WaitDelay bounds how
	// long Wait blocks on inherited pipes so the process is always reaped.
	cmd.WaitDelay = bashKillGracePeriod

	if len(t.envDenyPatterns) > 0 {
		cmd.Env = filteredEnviron(os.Environ(), t.envDenyPatterns)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %dms: %w", timeoutMS, wardenErrors.ErrCommandTimeout)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return "", fmt.Errorf("run command: %w", runErr)
		}
		// Nonzero exit is a result, not an error.
	}

	result := assembleOutput(stdout.String(), stderr.String(), cmd.ProcessState.ExitCode())

	// Post-exec integrity: re-verify the signed policy if the command could
	// plausibly have touched the workspace or the policy document.
	if t.referencesWorkspace(command) {
		switch security.LoadAndVerifyPolicy(t.workspacePath, t.stateDir) {
		case security.PolicyTamperDetected:
			if err := security.AppendAuditEntry(t.stateDir, security.ActionTamperDetected, "agent", "post_exec_check"); err != nil {
				slog.Warn("Failed to append audit entry", "error", err)
			}
			if t.strictPolicy {
				return "", fmt.Errorf("policy tamper detected after bash execution, the command may have modified %s: %w",
					security.PolicyFileName, wardenErrors.ErrTamperDetected)
			}
			result += "\n\n[WARNING: Security policy tamper detected after execution]"
		}
	}

	return result + warning, nil
}

func (t *BashTool) referencesWorkspace(command string) bool {
	if t.workspacePath != "" && strings.Contains(command, t.workspacePath) {
		return true
	}
	return strings.Contains(strings.ToLower(command), strings.ToLower(security.PolicyFileName))
}

func assembleOutput(stdout, stderr string, exitCode int) string {
	var result string
	if stdout != "" {
		result = stdout
	}
	if stderr != "" {
		if result != "" {
			result += "\n\nSTDERR:\n"
		}
		result += stderr
	}
	if result == "" {
		result = fmt.Sprintf("Command completed with exit code: %d", exitCode)
	}
	return result
}

// EnvVarDenied reports whether an environment variable name matches any deny
// glob. Patterns use four shapes, matched case-insensitively: *SUFFIX,
// PREFIX*, *CONTAINS*, and exact.
func EnvVarDenied(name string, patterns []string) bool {
	nameUpper := strings.ToUpper(name)
	for _, pattern := range patterns {
		p := strings.ToUpper(pattern)
		switch {
		case strings.HasPrefix(p, "*") && strings.HasSuffix(p, "*") && len(p) > 1:
			if strings.Contains(nameUpper, strings.Trim(p, "*")) {
				return true
			}
		case strings.HasPrefix(p, "*"):
			if strings.HasSuffix(nameUpper, strings.TrimPrefix(p, "*")) {
				return true
			}
		case strings.HasSuffix(p, "*"):
			if strings.HasPrefix(nameUpper, strings.TrimSuffix(p, "*")) {
				return true
			}
		default:
			if nameUpper == p {
				return true
			}
		}
	}
	return false
}

func filteredEnviron(environ, denyPatterns []string) []string {
	kept := make([]string, 0, len(environ))
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if !EnvVarDenied(name, denyPatterns) {
			kept = append(kept, kv)
		}
	}
	return kept
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
