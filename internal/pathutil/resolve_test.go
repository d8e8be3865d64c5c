package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wardenErrors "github.com/wardenhq/warden/internal/errors"
)

func TestResolveRealPath_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	got, err := ResolveRealPath(file)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(file)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveRealPath_NewFileResolvesParent(t *testing.T) {
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	require.NoError(t, os.Mkdir(realDir, 0755))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, link))

	got, err := ResolveRealPath(filepath.Join(link, "new.txt"))
	require.NoError(t, err)

	resolvedDir, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedDir, "new.txt"), got)
}

func TestResolveRealPath_SymlinkedFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	link := filepath.Join(dir, "alias.txt")
	require.NoError(t, os.Symlink(target, link))

	got, err := ResolveRealPath(link)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveRealPath_FallbackWhenNothingExists(t *testing.T) {
	got, err := ResolveRealPath("/nonexistent-root-dir/sub/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "/nonexistent-root-dir/sub/file.txt", got)
}

func TestCheckPathAllowed_EmptyListIsUnrestricted(t *testing.T) {
	assert.NoError(t, CheckPathAllowed("/etc/passwd", nil))
	assert.NoError(t, CheckPathAllowed("/anything/at/all", []string{}))
}

func TestCheckPathAllowed_InsideAndOutside(t *testing.T) {
	allowed := []string{"/workspace"}

	assert.NoError(t, CheckPathAllowed("/workspace", allowed))
	assert.NoError(t, CheckPathAllowed("/workspace/sub/file.txt", allowed))

	err := CheckPathAllowed("/etc/passwd", allowed)
	require.Error(t, err)
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)
}

func TestCheckPathAllowed_SiblingNameExtension(t *testing.T) {
	// /ws must not admit /workspace2 even though it is a string prefix.
	err := CheckPathAllowed("/workspace2/file.txt", []string{"/workspace"})
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)

	err = CheckPathAllowed("/ws2/file.txt", []string{"/ws"})
	assert.ErrorIs(t, err, wardenErrors.ErrPathDenied)
}

func TestCheckPathAllowed_MultipleDirs(t *testing.T) {
	allowed := []string{"/workspace", "/tmp/scratch"}
	assert.NoError(t, CheckPathAllowed("/tmp/scratch/a", allowed))
	assert.ErrorIs(t, CheckPathAllowed("/tmp/other", allowed), wardenErrors.ErrPathDenied)
}
