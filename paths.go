package fusioncache

import (
	"fmt"
	"path/filepath"

	gap "github.com/muesli/go-app-paths"
)

// DefaultDiskCacheDirName is the fixed subdirectory appended to the
// user's standard cache directory when no disk directory is configured.
const DefaultDiskCacheDirName = "FusionCache"

// DefaultDiskCacheDir resolves the default disk cache directory: the
// user-scope cache directory for fusioncache plus
// DefaultDiskCacheDirName.
func DefaultDiskCacheDir() (string, error) {
	scope := gap.NewScope(gap.User, "fusioncache")
	dir, err := scope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache directory: %w", err)
	}
	return filepath.Join(dir, DefaultDiskCacheDirName), nil
}
