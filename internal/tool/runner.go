package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/secrets"
)

// Runner executes tools by name and post-processes their output. Secret
// redaction runs on every textual result before it reaches the agent loop.
type Runner struct {
	registry *Registry
}

func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// Run executes one tool call. Errors surface verbatim; the agent loop decides
// whether to retry with adjusted arguments.
func (r *Runner) Run(ctx context.Context, callID, name string, arguments json.RawMessage) (Result, error) {
	t, ok := r.registry.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%q: %w", name, wardenErrors.ErrToolNotFound)
	}

	if callID == "" {
		callID = ulid.Make().String()
	}
	ctx = logger.WithCallID(ctx, callID)

	output, err := t.Execute(ctx, arguments)
	if err != nil {
		return Result{}, err
	}

	redacted, matches := secrets.Redact(output)
	if len(matches) > 0 {
		slog.Warn("Redacted secrets from tool output",
			"tool", name, "call_id", callID, "count", len(matches))
	}

	return Result{CallID: callID, Output: redacted}, nil
}
