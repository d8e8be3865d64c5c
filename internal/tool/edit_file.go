package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/pathutil"
)

// EditFileTool replaces old_string with new_string in a file.
type EditFileTool struct {
	stateDir           string
	filter             *filter.CompiledToolFilter
	allowedDirectories []string
}

func NewEditFileTool(stateDir string, f *filter.CompiledToolFilter, allowedDirectories []string) *EditFileTool {
	return &EditFileTool{stateDir: stateDir, filter: f, allowedDirectories: allowedDirectories}
}

func (t *EditFileTool) Name() string {
	return "edit_file"
}

func (t *EditFileTool) Description() string {
	return "Edit a file by replacing old_string with new_string"
}

func (t *EditFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to edit",
			},
			"old_string": map[string]interface{}{
				"type":        "string",
				"description": "The text to replace",
			},
			"new_string": map[string]interface{}{
				"type":        "string",
				"description": "The replacement text",
			},
			"replace_all": map[string]interface{}{
				"type":        "boolean",
				"description": "Replace all occurrences (default: false)",
			},
		},
		"required": []string{"path", "old_string", "new_string"},
	}
}

func (t *EditFileTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	_ = ctx

	var args struct {
		Path       string  `json:"path"`
		OldString  *string `json:"old_string"`
		NewString  *string `json:"new_string"`
		ReplaceAll bool    `json:"replace_all"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Path) == "" {
		return "", fmt.Errorf("missing path: %w", wardenErrors.ErrInvalidArguments)
	}
	if args.OldString == nil {
		return "", fmt.Errorf("missing old_string: %w", wardenErrors.ErrInvalidArguments)
	}
	if args.NewString == nil {
		return "", fmt.Errorf("missing new_string: %w", wardenErrors.ErrInvalidArguments)
	}
	oldString, newString := *args.OldString, *args.NewString

	realPath, err := pathutil.ResolveRealPath(args.Path)
	if err != nil {
		return "", err
	}
	if err := pathutil.CheckPathAllowed(realPath, t.allowedDirectories); err != nil {
		return "", err
	}
	if err := t.filter.Check(realPath, "edit_file", "path"); err != nil {
		return "", err
	}

	if err := denyProtectedTarget(t.stateDir, realPath, "edit", "tool:edit_file"); err != nil {
		return "", err
	}

	slog.Debug("Editing file", "path", realPath)

	data, err := os.ReadFile(realPath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	content := string(data)

	var newContent string
	var count int
	switch {
	case args.ReplaceAll:
		count = strings.Count(content, oldString)
		newContent = strings.ReplaceAll(content, oldString, newString)
	case strings.Contains(content, oldString):
		count = 1
		newContent = strings.Replace(content, oldString, newString, 1)
	default:
		return "", wardenErrors.ErrOldStringNotFound
	}

	if err := os.WriteFile(realPath, []byte(newContent), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return fmt.Sprintf("Replaced %d occurrence(s) in %s", count, realPath), nil
}
