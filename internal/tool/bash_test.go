package tool

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/security"
)

func bashBaselineFilter(t *testing.T) *filter.CompiledToolFilter {
	t.Helper()
	f, err := filter.Permissive().MergeHardcoded(filter.BashDenySubstrings, filter.BashDenyPatterns)
	require.NoError(t, err)
	return f
}

func TestBashTool_FilterDeniesBeforeSpawn(t *testing.T) {
	tool := NewBashTool(5000, t.TempDir(), bashBaselineFilter(t), false, "", nil)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"sudo rm -rf /"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrFilterDenied)
}

func TestBashTool_MissingCommand(t *testing.T) {
	tool := NewBashTool(5000, t.TempDir(), filter.Permissive(), false, "", nil)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, wardenErrors.ErrInvalidArguments)

	_, err = tool.Execute(context.Background(), json.RawMessage(`not json`))
	assert.ErrorIs(t, err, wardenErrors.ErrInvalidArguments)
}

func TestBashTool_RunsCommand(t *testing.T) {
	tool := NewBashTool(5000, t.TempDir(), filter.Permissive(), false, "", nil)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"echo hello"}`))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestBashTool_StderrAndExitCode(t *testing.T) {
	tool := NewBashTool(5000, t.TempDir(), filter.Permissive(), false, "", nil)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"echo oops >&2"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "STDERR:\noops")

	out, err = tool.Execute(context.Background(), json.RawMessage(`{"command":"exit 3"}`))
	require.NoError(t, err)
	assert.Equal(t, "Command completed with exit code: 3", out)
}

func TestBashTool_Timeout(t *testing.T) {
	tool := NewBashTool(100, t.TempDir(), filter.Permissive(), false, "", nil)

	started := time.Now()
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"sleep 5"}`))
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrCommandTimeout)
	assert.Less(t, elapsed, 3*time.Second, "timeout must fire near the 100ms deadline")
}

func TestBashTool_EnvFiltering(t *testing.T) {
	t.Setenv("WARDEN_TEST_API_KEY", "supersecret")
	t.Setenv("WARDEN_TEST_PLAIN", "visible")

	tool := NewBashTool(5000, t.TempDir(), filter.Permissive(), false, "", []string{"*_KEY"})

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"env"}`))
	require.NoError(t, err)
	assert.NotContains(t, out, "WARDEN_TEST_API_KEY")
	assert.Contains(t, out, "WARDEN_TEST_PLAIN=visible")
}

func TestBashTool_ProtectedReferenceLenient(t *testing.T) {
	stateDir := t.TempDir()
	tool := NewBashTool(5000, stateDir, filter.Permissive(), false, "", nil)

	out, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"echo .api_token"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "[WARNING: command references protected files")

	entries, err := security.ReadAuditLog(stateDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, security.ActionWriteBlocked, entries[0].Action)
	assert.Equal(t, "tool:bash", entries[0].Target)
}

func TestBashTool_ProtectedReferenceStrict(t *testing.T) {
	stateDir := t.TempDir()
	tool := NewBashTool(5000, stateDir, filter.Permissive(), true, "", nil)

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"command":"echo .api_token"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrProtectedFile)

	entries, err := security.ReadAuditLog(stateDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnvVarDenied(t *testing.T) {
	assert.True(t, EnvVarDenied("API_KEY", []string{"*_KEY"}))
	assert.False(t, EnvVarDenied("API_KEYSTORE", []string{"*_KEY"}))

	assert.True(t, EnvVarDenied("SECRET_TOKEN", []string{"SECRET_*"}))
	assert.False(t, EnvVarDenied("MY_SECRET", []string{"SECRET_*"}))

	assert.True(t, EnvVarDenied("MY_SECRET_VALUE", []string{"*SECRET*"}))
	assert.True(t, EnvVarDenied("PASSWORD", []string{"password"}))
	assert.False(t, EnvVarDenied("PASSWORDS", []string{"password"}))
}

func TestAssembleOutput(t *testing.T) {
	assert.Equal(t, "out", assembleOutput("out", "", 0))
	assert.Equal(t, "out\n\nSTDERR:\nerr", assembleOutput("out", "err", 0))
	assert.Equal(t, "err", assembleOutput("", "err", 1))
	assert.Equal(t, "Command completed with exit code: 7", assembleOutput("", "", 7))
}
