package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	Tools     ToolsConfig     `koanf:"tools"`
	Security  SecurityConfig  `koanf:"security"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type WorkspaceConfig struct {
	Path string `koanf:"path"`
}

type ToolsConfig struct {
	Filters          map[string]filter.ToolFilter `koanf:"filters"`
	BashTimeoutMS    int64                        `koanf:"bash_timeout_ms"`
	WebFetchMaxBytes int                          `koanf:"web_fetch_max_bytes"`
}

type SecurityConfig struct {
	AllowedDirectories []string `koanf:"allowed_directories"`
	StrictPolicy       bool     `koanf:"strict_policy"`
	EnvDenyPatterns    []string `koanf:"env_deny_patterns"`
}

const (
	DefaultServerLogLevel   = "info"
	DefaultBashTimeoutMS    = 60_000
	DefaultWebFetchMaxBytes = 100_000
)

// DefaultEnvDenyPatterns keeps obviously sensitive environment variables out
// of bash children. Glob shapes: *SUFFIX, PREFIX*, *CONTAINS*, exact.
var DefaultEnvDenyPatterns = []string{
	"*_KEY",
	"*_TOKEN",
	"*_SECRET",
	"*PASSWORD*",
	"AWS_*",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.log_level":             DefaultServerLogLevel,
		"workspace.path":               filepath.Join(os.Getenv("HOME"), ".warden", "workspace"),
		"tools.bash_timeout_ms":        DefaultBashTimeoutMS,
		"tools.web_fetch_max_bytes":    DefaultWebFetchMaxBytes,
		"security.allowed_directories": []string{},
		"security.strict_policy":       false,
		"security.env_deny_patterns":   DefaultEnvDenyPatterns,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".warden", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("WARDEN_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WARDEN_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WorkspacePath returns the expanded workspace directory.
func (c *Config) WorkspacePath() string {
	return c.Workspace.Path
}

// StateDir is the per-installation directory holding secrets, tokens, and the
// audit log. It sits outside the workspace: the workspace's parent, falling
// back to ~/.warden.
func (c *Config) StateDir() string {
	parent := filepath.Dir(c.Workspace.Path)
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Join(os.Getenv("HOME"), ".warden")
	}
	return parent
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	workspacePath, err := expandConfiguredPath(cfg.Workspace.Path)
	if err != nil {
		return err
	}
	if workspacePath != "" {
		cfg.Workspace.Path = workspacePath
	}

	for i, dir := range cfg.Security.AllowedDirectories {
		expanded, err := expandConfiguredPath(dir)
		if err != nil {
			return err
		}
		if expanded != "" {
			cfg.Security.AllowedDirectories[i] = expanded
		}
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
