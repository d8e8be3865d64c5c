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
	"github.com/wardenhq/warden/internal/pathutil"
)

// MemoryGetTool fetches a line-range snippet from workspace notes. Meant to
// follow memory_search so only the needed lines enter the context window.
type MemoryGetTool struct {
	workspace string
}

func NewMemoryGetTool(workspace string) *MemoryGetTool {
	return &MemoryGetTool{workspace: workspace}
}

func (t *MemoryGetTool) Name() string {
	return "memory_get"
}

func (t *MemoryGetTool) Description() string {
	return "Safe snippet read from MEMORY.md or memory/*.md with optional line range; use after memory_search to pull only the needed lines and keep context small."
}

func (t *MemoryGetTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path to the file (e.g., 'MEMORY.md' or 'memory/2026-01-15.md')",
			},
			"from": map[string]interface{}{
				"type":        "integer",
				"description": "Starting line number (1-indexed, default: 1)",
			},
			"lines": map[string]interface{}{
				"type":        "integer",
				"description": "Number of lines to read (default: 50)",
			},
		},
		"required": []string{"path"},
	}
}

func (t *MemoryGetTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	_ = ctx

	var args struct {
		Path  string `json:"path"`
		From  int    `json:"from"`
		Lines int    `json:"lines"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Path) == "" {
		return "", fmt.Errorf("missing path: %w", wardenErrors.ErrInvalidArguments)
	}

	from := args.From
	if from < 1 {
		from = 1
	}
	linesCount := args.Lines
	if linesCount <= 0 {
		linesCount = 50
	}

	resolved := t.resolvePath(args.Path)

	slog.Debug("Memory get", "path", resolved, "from", from, "lines", linesCount)

	if _, err := os.Stat(resolved); err != nil {
		return fmt.Sprintf("File not found: %s", args.Path), nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	totalLines := len(lines)

	start := from - 1
	if start >= totalLines {
		return fmt.Sprintf("Line %d is past end of file (%d lines)", from, totalLines), nil
	}
	end := start + linesCount
	if end > totalLines {
		end = totalLines
	}

	selected := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		selected = append(selected, fmt.Sprintf("%4d\t%s", i+1, lines[i]))
	}

	header := fmt.Sprintf("# %s (lines %d-%d of %d)\n", args.Path, start+1, end, totalLines)
	return header + strings.Join(selected, "\n"), nil
}

func (t *MemoryGetTool) resolvePath(path string) string {
	if strings.HasPrefix(path, "memory/") || path == "MEMORY.md" || path == "HEARTBEAT.md" {
		return filepath.Join(t.workspace, path)
	}
	expanded, err := pathutil.Expand(path)
	if err != nil || expanded == "" {
		return path
	}
	return expanded
}
