package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
	"github.com/wardenhq/warden/internal/filter"
	"github.com/wardenhq/warden/internal/security"
)

func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestReadFileTool_ReadsWithLineNumbers(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma\n"), 0644))

	tool := NewReadFileTool(filter.Permissive(), nil)
	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{"path": path}))
	require.NoError(t, err)
	assert.Equal(t, "   1\talpha\n   2\tbeta\n   3\tgamma", out)
}

func TestReadFileTool_OffsetAndLimit(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0644))

	tool := NewReadFileTool(filter.Permissive(), nil)
	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "offset": 1, "limit": 2,
	}))
	require.NoError(t, err)
	assert.Equal(t, "   2\tb\n   3\tc", out)
}

func TestReadFileTool_NonPositiveLimitIgnored(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0644))

	tool := NewReadFileTool(filter.Permissive(), nil)

	for _, limit := range []int{-1, 0} {
		out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
			"path": path, "limit": limit,
		}))
		require.NoError(t, err, "limit %d must read the whole file", limit)
		assert.Equal(t, "   1\ta\n   2\tb\n   3\tc", out)
	}

	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "offset": 2, "limit": -5,
	}))
	require.NoError(t, err)
	assert.Equal(t, "   3\tc", out)
}

func TestReadFileTool_OutsideAllowedDirectories(t *testing.T) {
	allowed := realTempDir(t)
	outside := realTempDir(t)
	path := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("hidden"), 0644))

	tool := NewReadFileTool(filter.Permissive(), []string{allowed})
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{"path": path}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)
}

func TestReadFileTool_SymlinkEscapeDenied(t *testing.T) {
	allowed := realTempDir(t)
	outside := realTempDir(t)
	target := filepath.Join(outside, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("outside"), 0644))

	link := filepath.Join(allowed, "innocent.txt")
	require.NoError(t, os.Symlink(target, link))

	tool := NewReadFileTool(filter.Permissive(), []string{allowed})
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{"path": link}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)
}

func TestWriteFileTool_WritesAndCreatesParents(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "sub", "deep", "out.txt")

	tool := NewWriteFileTool(t.TempDir(), filter.Permissive(), nil)
	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "content": "hello",
	}))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Successfully wrote 5 bytes to %s", path), out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWriteFileTool_OutsideAllowedLeavesDiskUnchanged(t *testing.T) {
	allowed := realTempDir(t)
	outside := realTempDir(t)
	path := filepath.Join(outside, "passwd")

	tool := NewWriteFileTool(t.TempDir(), filter.Permissive(), []string{allowed})
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "content": "pwned",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "denied write must not touch disk")
}

func TestWriteFileTool_ProtectedFileAudited(t *testing.T) {
	dir := realTempDir(t)
	stateDir := t.TempDir()
	path := filepath.Join(dir, security.DeviceKeyFileName)

	tool := NewWriteFileTool(stateDir, filter.Permissive(), nil)
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "content": "evil",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrProtectedFile)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := security.ReadAuditLog(stateDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, security.ActionWriteBlocked, entries[0].Action)
	assert.Equal(t, "agent", entries[0].Actor)
	assert.Equal(t, "tool:write_file", entries[0].Target)
	assert.Contains(t, entries[0].Detail, "attempted write")
}

func TestWriteFileTool_MissingContent(t *testing.T) {
	tool := NewWriteFileTool(t.TempDir(), filter.Permissive(), nil)
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "x.txt"),
	}))
	assert.ErrorIs(t, err, wardenErrors.ErrInvalidArguments)
}

func TestEditFileTool_ReplaceSingle(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(path, []byte("mode=dev\nmode=dev\n"), 0644))

	tool := NewEditFileTool(t.TempDir(), filter.Permissive(), nil)
	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "old_string": "mode=dev", "new_string": "mode=prod",
	}))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Replaced 1 occurrence(s) in %s", path), out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mode=prod\nmode=dev\n", string(data))
}

func TestEditFileTool_ReplaceAll(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(path, []byte("x y x y x\n"), 0644))

	tool := NewEditFileTool(t.TempDir(), filter.Permissive(), nil)
	out, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "old_string": "x", "new_string": "z", "replace_all": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Replaced 3 occurrence(s) in %s", path), out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "z y z y z\n", string(data))
}

func TestEditFileTool_OldStringNotFound(t *testing.T) {
	dir := realTempDir(t)
	path := filepath.Join(dir, "config.txt")
	original := "unchanged content\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	tool := NewEditFileTool(t.TempDir(), filter.Permissive(), nil)
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "old_string": "absent", "new_string": "whatever",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrOldStringNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data), "failed edit must leave the file unchanged")
}

func TestEditFileTool_ProtectedFileDenied(t *testing.T) {
	dir := realTempDir(t)
	stateDir := t.TempDir()
	path := filepath.Join(dir, security.ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	tool := NewEditFileTool(stateDir, filter.Permissive(), nil)
	_, err := tool.Execute(context.Background(), rawArgs(t, map[string]interface{}{
		"path": path, "old_string": "{}", "new_string": "tampered",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrProtectedFile)

	entries, err := security.ReadAuditLog(stateDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func rawArgs(t *testing.T, args map[string]interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return data
}
