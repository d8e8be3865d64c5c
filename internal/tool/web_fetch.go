package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
)

const webFetchHardCap = 8 << 20

// WebFetchTool issues an HTTP GET and truncates the response to a byte cap.
// The filter's deny rules are defense in depth; authoritative SSRF checks
// live with the HTTP collaborator.
type WebFetchTool struct {
	client   *http.Client
	maxBytes int
	filter   *filter.CompiledToolFilter
}

func NewWebFetchTool(maxBytes int, f *filter.CompiledToolFilter) *WebFetchTool {
	return &WebFetchTool{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
		filter:   f,
	}
}

func (t *WebFetchTool) Name() string {
	return "web_fetch"
}

func (t *WebFetchTool) Description() string {
	return "Fetch content from a URL"
}

func (t *WebFetchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "The URL to fetch",
			},
		},
		"required": []string{"url"},
	}
}

func (t *WebFetchTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", fmt.Errorf("parse arguments: %v: %w", err, wardenErrors.ErrInvalidArguments)
	}
	if strings.TrimSpace(args.URL) == "" {
		return "", fmt.Errorf("missing url: %w", wardenErrors.ErrInvalidArguments)
	}

	if err := t.filter.Check(args.URL, "web_fetch", "url"); err != nil {
		return "", err
	}

	slog.Debug("Fetching URL", "url", args.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "warden/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webFetchHardCap))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	text := string(body)
	if len(text) > t.maxBytes {
		text = fmt.Sprintf("%s...\n\n[Truncated, %d bytes total]", text[:t.maxBytes], len(body))
	}

	return fmt.Sprintf("Status: %s\n\n%s", resp.Status, text), nil
}
