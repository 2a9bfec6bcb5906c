package plux

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryDir(t *testing.T) {
	tests := []struct {
		goos   string
		goarch string
		want   string
	}{
		{"linux", "amd64", "Linux64"},
		{"darwin", "arm64", "M1"},
		{"darwin", "amd64", filepath.Join("MacOS", "Intel")},
		{"windows", "amd64", "Win64"},
		{"windows", "386", "Win32"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := LibraryDir(tt.goos, tt.goarch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLibraryDir_Unsupported(t *testing.T) {
	for _, pair := range [][2]string{
		{"linux", "arm64"},
		{"freebsd", "amd64"},
		{"windows", "arm64"},
		{"js", "wasm"},
	} {
		_, err := LibraryDir(pair[0], pair[1])
		assert.Error(t, err, "%s/%s", pair[0], pair[1])
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	libDir := filepath.Join(base, sdkRoot, "Linux64")
	require.NoError(t, os.MkdirAll(libDir, 0o755))

	got, err := resolve(base, "linux", "amd64")
	require.NoError(t, err)
	assert.Equal(t, libDir, got)
}

func TestResolve_Missing(t *testing.T) {
	// Bundle root exists but the platform directory does not.
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, sdkRoot), 0o755))

	_, err := resolve(base, "linux", "amd64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor SDK not found")
}

func TestResolve_UnsupportedPlatform(t *testing.T) {
	_, err := resolve(t.TempDir(), "plan9", "amd64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no vendor SDK build")
}
