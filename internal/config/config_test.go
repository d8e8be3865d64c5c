package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerLogLevel, cfg.Server.LogLevel)
	assert.Equal(t, int64(DefaultBashTimeoutMS), cfg.Tools.BashTimeoutMS)
	assert.Equal(t, DefaultWebFetchMaxBytes, cfg.Tools.WebFetchMaxBytes)
	assert.Empty(t, cfg.Security.AllowedDirectories)
	assert.False(t, cfg.Security.StrictPolicy)
	assert.Equal(t, DefaultEnvDenyPatterns, cfg.Security.EnvDenyPatterns)
}

func TestLoad_ConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(home, "config.yaml")
	yamlBody := `
workspace:
  path: ~/agent-workspace
tools:
  bash_timeout_ms: 5000
  filters:
    bash:
      deny_substrings: ["docker"]
      deny_patterns: ["\\bkubectl\\b"]
security:
  strict_policy: true
  allowed_directories:
    - ~/agent-workspace
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlBody), 0644))

	cmd := &cobra.Command{}
	cmd.Flags().String("config", configPath, "")

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, int64(5000), cfg.Tools.BashTimeoutMS)
	assert.True(t, cfg.Security.StrictPolicy)

	bash, ok := cfg.Tools.Filters["bash"]
	require.True(t, ok)
	assert.Equal(t, []string{"docker"}, bash.DenySubstrings)
	assert.Equal(t, []string{`\bkubectl\b`}, bash.DenyPatterns)

	// Tilde paths are expanded.
	want := filepath.Join(home, "agent-workspace")
	assert.Equal(t, want, cfg.Workspace.Path)
	require.Len(t, cfg.Security.AllowedDirectories, 1)
	assert.Equal(t, want, cfg.Security.AllowedDirectories[0])
}

func TestStateDir_IsWorkspaceParent(t *testing.T) {
	cfg := &Config{Workspace: WorkspaceConfig{Path: "/home/agent/.warden/workspace"}}
	assert.Equal(t, "/home/agent/.warden", cfg.StateDir())
}
