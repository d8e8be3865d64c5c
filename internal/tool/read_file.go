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

// ReadFileTool reads a file within the allowed directory set.
type ReadFileTool struct {
	filter             *filter.CompiledToolFilter
	allowedDirectories []string
}

func NewReadFileTool(f *filter.CompiledToolFilter, allowedDirectories []string) *ReadFileTool {
	return &ReadFileTool{filter: f, allowedDirectories: allowedDirectories}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file"
}

func (t *ReadFileTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "The path to the file to read",
			},
			"offset": map[string]interface{}{
				"type":        "integer",
				"description": "Line number to start reading from (0-indexed)",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of lines to read",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	_ = ctx

	var args struct {
		Path   string `json:"path"`
		Offset int    `json:"offset"`
		Limit  *int   `json:"limit"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Path) == "" {
		return "", fmt.Errorf("missing path: %w", wardenErrors.ErrInvalidArguments)
	}

	// Resolve symlinks before any checks; the resolved path is what gets
	// scoped, filtered, and read.
	realPath, err := pathutil.ResolveRealPath(args.Path)
	if err != nil {
		return "", err
	}
	if err := pathutil.CheckPathAllowed(realPath, t.allowedDirectories); err != nil {
		return "", err
	}
	if err := t.filter.Check(realPath, "read_file", "path"); err != nil {
		return "", err
	}

	slog.Debug("Reading file", "path", realPath)

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	totalLines := len(lines)

	start := args.Offset
	if start < 0 {
		start = 0
	}
	if start > totalLines {
		start = totalLines
	}
	// A zero or negative limit is treated as absent, not as an empty window.
	end := totalLines
	if args.Limit != nil && *args.Limit > 0 && start+*args.Limit < totalLines {
		end = start + *args.Limit
	}

	selected := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected = append(selected, fmt.Sprintf("%4d\t%s", i+1, lines[i]))
	}
	return strings.Join(selected, "\n"), nil
}
