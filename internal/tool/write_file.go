package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/pathutil"
	"github.com/wardenhq/warden/internal/security"
)

// WriteFileTool creates or overwrites a file within the allowed directory
// set. Protected filenames are rejected unconditionally, before disk is
// touched, and the denial is audited.
type WriteFileTool struct {
	stateDir           string
	filter             *filter.CompiledToolFilter
	allowedDirectories []string
}

func NewWriteFileTool(stateDir string, f *filter.CompiledToolFilter, allowedDirectories []string) *WriteFileTool {
	return &WriteFileTool{stateDir: stateDir, filter: f, allowedDirectories: allowedDirectories}
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Write content to a file (creates or overwrites)"
}

func (t *WriteFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to write",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "The content to write to the file",
			},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteFileTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	_ = ctx

	var args struct {
		Path    string  `json:"path"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Path) == "" {
		return "", fmt.Errorf("missing path: %w", wardenErrors.ErrInvalidArguments)
	}
	if args.Content == nil {
		return "", fmt.Errorf("missing content: %w", wardenErrors.ErrInvalidArguments)
	}
	content := *args.Content

	realPath, err := pathutil.ResolveRealPath(args.Path)
	if err != nil {
		return "", err
	}
	if err := pathutil.CheckPathAllowed(realPath, t.allowedDirectories); err != nil {
		return "", err
	}
	if err := t.filter.Check(realPath, "write_file", "path"); err != nil {
		return "", err
	}

	if err := denyProtectedTarget(t.stateDir, realPath, "write", "tool:write_file"); err != nil {
		return "", err
	}

	slog.Debug("Writing file", "path", realPath)

	if parent := filepath.Dir(realPath); parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return "", fmt.Errorf("create parent directories: %w", err)
		}
	}
	if err := os.WriteFile(realPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), realPath), nil
}

// denyProtectedTarget rejects writes and edits against the compiled-in
// protected file set, independent of filters and scoping.
func denyProtectedTarget(stateDir, realPath, verb, target string) error {
	name := filepath.Base(realPath)
	if !security.IsWorkspaceFileProtected(name) {
		return nil
	}

	detail := fmt.Sprintf("Agent attempted %s to %s", verb, realPath)
	if err := security.AppendAuditEntryWithDetail(stateDir, security.ActionWriteBlocked, "agent", target, detail); err != nil {
		slog.Warn("Failed to append audit entry", "error", err)
	}

	return fmt.Errorf("cannot %s protected file %s, it is managed by the security system (use `warden security sign` to update the policy): %w",
		verb, realPath, wardenErrors.ErrProtectedFile)
}
