// Package tool implements the per-tool execution pipelines that compose path
// resolution, directory scoping, input filtering, and the protected-file
// checks in a fixed order before performing any effect.
package tool

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// Tool represents an executable capability exposed to the agent loop.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Schema is the JSON-schema surface consumed by the LLM-facing layer.
type Schema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Result is the unit of information returned to the agent loop.
type Result struct {
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// Registry holds the closed set of tools, built once at startup.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	name := strings.TrimSpace(t.Name())
	if name == "" {
		panic("tool: empty tool name")
	}
	r.tools[name] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[strings.TrimSpace(name)]
	return t, ok
}

// Schemas returns every registered tool's schema, sorted by name.
func (r *Registry) Schemas() []Schema {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	schemas := make([]Schema, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		schemas = append(schemas, Schema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
