package filter

import (
	"fmt"
	"regexp"
	"strings"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
)

// ToolFilter is the user-configured deny rule set for a single tool.
type ToolFilter struct {
	DenySubstrings []string `koanf:"deny_substrings"`
	DenyPatterns   []string `koanf:"deny_patterns"`
}

// CompiledToolFilter is an immutable matcher built once at startup. The
// hardcoded baseline merged into it can never be removed by configuration.
type CompiledToolFilter struct {
	substrings []string
	patterns   []*regexp.Regexp
	sources    []string
}

// Permissive returns the distinguished filter with no rules; Check always passes.
func Permissive() *CompiledToolFilter {
	return &CompiledToolFilter{}
}

// Compile builds a matcher from user configuration. A pattern that does not
// compile is a startup error, not a runtime surprise.
func Compile(cfg *ToolFilter) (*CompiledToolFilter, error) {
	if cfg == nil {
		return Permissive(), nil
	}

	f := &CompiledToolFilter{
		substrings: make([]string, 0, len(cfg.DenySubstrings)),
		patterns:   make([]*regexp.Regexp, 0, len(cfg.DenyPatterns)),
		sources:    make([]string, 0, len(cfg.DenyPatterns)),
	}
	for _, s := range cfg.DenySubstrings {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			f.substrings = append(f.substrings, strings.ToLower(trimmed))
		}
	}
	for _, p := range cfg.DenyPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile deny pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
		f.sources = append(f.sources, p)
	}
	return f, nil
}

// MergeHardcoded returns a filter enforcing the union of f and the compiled-in
// baseline. The baseline patterns are trusted constants; a failure to compile
// one is a programming error.
func (f *CompiledToolFilter) MergeHardcoded(substrings []string, patterns []string) (*CompiledToolFilter, error) {
	merged := &CompiledToolFilter{
		substrings: append([]string{}, f.substrings...),
		patterns:   append([]*regexp.Regexp{}, f.patterns...),
		sources:    append([]string{}, f.sources...),
	}
	for _, s := range substrings {
		merged.substrings = append(merged.substrings, strings.ToLower(s))
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile hardcoded pattern %q: %w", p, err)
		}
		merged.patterns = append(merged.patterns, re)
		merged.sources = append(merged.sources, p)
	}
	return merged, nil
}

// Check runs the deny rules against value. Substring containment is checked
// first (cheap, case-insensitive), then the compiled patterns. The returned
// error names the matched rule and the tool:field it applied to.
func (f *CompiledToolFilter) Check(value, toolName, fieldName string) error {
	lower := strings.ToLower(value)
	for _, s := range f.substrings {
		if strings.Contains(lower, s) {
			return fmt.Errorf("%s:%s contains denied substring %q: %w",
				toolName, fieldName, s, wardenErrors.ErrFilterDenied)
		}
	}
	for i, re := range f.patterns {
		if re.MatchString(value) {
			return fmt.Errorf("%s:%s matches denied pattern %q: %w",
				toolName, fieldName, f.sources[i], wardenErrors.ErrFilterDenied)
		}
	}
	return nil
}

// CompileFor looks up and compiles the filter for toolName, or returns the
// permissive filter when no rules are configured for it.
func CompileFor(filters map[string]ToolFilter, toolName string) (*CompiledToolFilter, error) {
	cfg, ok := filters[toolName]
	if !ok {
		return Permissive(), nil
	}
	return Compile(&cfg)
}
