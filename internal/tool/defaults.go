package tool

import (
	"fmt"
	"path/filepath"

	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/memory"
)

// NewDefaultTools builds the fixed tool set from configuration. Filters are
// compiled once here; a bad pattern is a startup error. When mem is nil,
// memory_search falls back to the workspace scan.
func NewDefaultTools(cfg *config.Config, mem *memory.Manager) ([]Tool, error) {
	workspace := cfg.WorkspacePath()
	stateDir := cfg.StateDir()
	filters := cfg.Tools.Filters

	bashFilter, err := compileWithBaseline(filters, "bash", filter.BashDenySubstrings, filter.BashDenyPatterns)
	if err != nil {
		return nil, err
	}
	webFetchFilter, err := compileWithBaseline(filters, "web_fetch", filter.WebFetchDenySubstrings, filter.WebFetchDenyPatterns)
	if err != nil {
		return nil, err
	}
	readFilter, err := filter.CompileFor(filters, "read_file")
	if err != nil {
		return nil, err
	}
	writeFilter, err := filter.CompileFor(filters, "write_file")
	if err != nil {
		return nil, err
	}
	editFilter, err := filter.CompileFor(filters, "edit_file")
	if err != nil {
		return nil, err
	}

	allowedDirectories := canonicalizeAllowedDirectories(cfg.Security.AllowedDirectories)

	var memorySearch Tool
	if mem != nil {
		memorySearch = NewIndexedMemorySearchTool(mem)
	} else {
		memorySearch = NewMemorySearchTool(workspace)
	}

	return []Tool{
		NewBashTool(
			cfg.Tools.BashTimeoutMS,
			stateDir,
			bashFilter,
			cfg.Security.StrictPolicy,
			workspace,
			cfg.Security.EnvDenyPatterns,
		),
		NewReadFileTool(readFilter, allowedDirectories),
		NewWriteFileTool(stateDir, writeFilter, allowedDirectories),
		NewEditFileTool(stateDir, editFilter, allowedDirectories),
		memorySearch,
		NewMemoryGetTool(workspace),
		NewWebFetchTool(cfg.Tools.WebFetchMaxBytes, webFetchFilter),
	}, nil
}

func compileWithBaseline(filters map[string]filter.ToolFilter, toolName string, substrings, patterns []string) (*filter.CompiledToolFilter, error) {
	compiled, err := filter.CompileFor(filters, toolName)
	if err != nil {
		return nil, fmt.Errorf("compile %s filter: %w", toolName, err)
	}
	merged, err := compiled.MergeHardcoded(substrings, patterns)
	if err != nil {
		return nil, fmt.Errorf("merge %s baseline: %w", toolName, err)
	}
	return merged, nil
}

// canonicalizeAllowedDirectories resolves each configured directory to its
// real location so containment checks compare like with like. Directories
// that cannot be resolved are dropped rather than left as raw strings.
func canonicalizeAllowedDirectories(dirs []string) []string {
	canonical := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			continue
		}
		canonical = append(canonical, real)
	}
	return canonical
}
