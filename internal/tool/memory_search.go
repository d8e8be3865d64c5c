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
	"github.com/wardenhq/warden/internal/memory"
)

const defaultSearchLimit = 5

// MemorySearchTool is the fallback memory search: a plain case-insensitive
// scan over MEMORY.md and memory/*.md in the workspace. Used when no memory
// index is wired.
type MemorySearchTool struct {
	workspace string
}

func NewMemorySearchTool(workspace string) *MemorySearchTool {
	return &MemorySearchTool{workspace: workspace}
}

func (t *MemorySearchTool) Name() string {
	return "memory_search"
}

func (t *MemorySearchTool) Description() string {
	return "Search the memory index for relevant information"
}

func (t *MemorySearchTool) Parameters() map[string]interface{} {
	return memorySearchParameters()
}

func (t *MemorySearchTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	_ = ctx

	query, limit, err := parseMemorySearchArgs(input)
	if err != nil {
		return "", err
	}

	slog.Debug("Memory search (scan)", "query", query, "limit", limit)

	var results []string
	needle := strings.ToLower(query)

	memoryFile := filepath.Join(t.workspace, "MEMORY.md")
	if content, err := os.ReadFile(memoryFile); err == nil {
		for i, line := range strings.Split(string(content), "\n") {
			if strings.Contains(strings.ToLower(line), needle) {
				results = append(results, fmt.Sprintf("MEMORY.md:%d: %s", i+1, line))
				if len(results) >= limit {
					break
				}
			}
		}
	}

	memoryDir := filepath.Join(t.workspace, "memory")
	entries, _ := os.ReadDir(memoryDir)
	for _, entry := range entries {
		if len(results) >= limit {
			break
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(memoryDir, entry.Name()))
		if err != nil {
			continue
		}
		for i, line := range strings.Split(string(content), "\n") {
			if strings.Contains(strings.ToLower(line), needle) {
				results = append(results, fmt.Sprintf("memory/%s:%d: %s", entry.Name(), i+1, line))
				if len(results) >= limit {
					break
				}
			}
		}
	}

	if len(results) == 0 {
		return "No results found", nil
	}
	return strings.Join(results, "\n"), nil
}

// IndexedMemorySearchTool answers memory_search from the vector index.
type IndexedMemorySearchTool struct {
	memory *memory.Manager
}

func NewIndexedMemorySearchTool(m *memory.Manager) *IndexedMemorySearchTool {
	return &IndexedMemorySearchTool{memory: m}
}

func (t *IndexedMemorySearchTool) Name() string {
	return "memory_search"
}

func (t *IndexedMemorySearchTool) Description() string {
	return "Search the memory index using semantic search for relevant information"
}

func (t *IndexedMemorySearchTool) Parameters() map[string]interface{} {
	return memorySearchParameters()
}

func (t *IndexedMemorySearchTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	query, limit, err := parseMemorySearchArgs(input)
	if err != nil {
		return "", err
	}

	slog.Debug("Memory search (indexed)", "query", query, "limit", limit)

	chunks, err := t.memory.Search(ctx, query, limit)
	if err != nil {
		return "", fmt.Errorf("search memory index: %w", err)
	}
	if len(chunks) == 0 {
		return "No results found", nil
	}

	formatted := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		preview := strings.ReplaceAll(chunk.Content, "\n", " ")
		suffix := ""
		if len(preview) > 200 {
			preview = preview[:200]
			suffix = "..."
		}
		formatted = append(formatted, fmt.Sprintf("%d. %s (lines %d-%d, score: %.3f)\n   %s%s",
			i+1, chunk.File, chunk.LineStart, chunk.LineEnd, chunk.Score, preview, suffix))
	}
	return strings.Join(formatted, "\n\n"), nil
}

func memorySearchParameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum number of results (default: %d)", defaultSearchLimit),
			},
		},
		"required": []string{"query"},
	}
}

func parseMemorySearchArgs(input json.RawMessage) (string, int, error) {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", 0, fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", 0, fmt.Errorf("missing query: %w", wardenErrors.ErrInvalidArguments)
	}
	limit := args.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return args.Query, limit, nil
}
