// uploads_test.go

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is t.Chdir for Go versions before 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestRemoveUploadsBestEffort(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, os.MkdirAll(uploadDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadDir, "a.jpg"), []byte("x"), 0o644))

	// Present files go, missing ones and empty refs are silently skipped,
	// and path prefixes are stripped down to the base name.
	warnings := removeUploads([]string{"uploads/a.jpg", "gone.jpg", ""})
	assert.Empty(t, warnings)
	_, err := os.Stat(filepath.Join(uploadDir, "a.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveUploadsCollectsFailures(t *testing.T) {
	chdir(t, t.TempDir())
	// A non-empty directory cannot be removed with os.Remove, which stands in
	// for any filesystem failure here.
	blocked := filepath.Join(uploadDir, "blocked")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "inner"), []byte("x"), 0o644))

	warnings := removeUploads([]string{"blocked"})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "blocked")
}
