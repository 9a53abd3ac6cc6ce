package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "receipt.eml")
	require.NoError(t, os.WriteFile(existing, []byte("hello"), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "empty", path: "", wantErr: "cannot be empty"},
		{name: "shell metacharacter", path: "receipt.eml; rm -rf /", wantErr: "forbidden character"},
		{name: "command substitution", path: "$(whoami).eml", wantErr: "forbidden character"},
		{name: "existing file", path: existing},
		{name: "missing file", path: filepath.Join(dir, "missing.eml")},
		{name: "dot segments", path: filepath.Join(dir, "sub", "..", "receipt.eml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFilePath(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
			assert.NotContains(t, got, "..")
		})
	}
}

func TestValidateFilePath_Relative(t *testing.T) {
	got, err := ValidateFilePath("receipt.eml")
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, cwd))
}

func TestSafeReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.eml")
	require.NoError(t, os.WriteFile(path, []byte("Your Netflix plan renews soon"), 0o600))

	t.Run("reads within limit", func(t *testing.T) {
		data, err := SafeReadFile(path, MaxEmailFileBytes)
		require.NoError(t, err)
		assert.Equal(t, "Your Netflix plan renews soon", string(data))
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		_, err := SafeReadFile(path, 4)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("rejects directory", func(t *testing.T) {
		_, err := SafeReadFile(dir, MaxEmailFileBytes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := SafeReadFile(filepath.Join(dir, "missing.eml"), MaxEmailFileBytes)
		assert.True(t, os.IsNotExist(err))
	})
}
