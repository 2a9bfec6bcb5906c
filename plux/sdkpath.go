package plux

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// sdkRoot is the top-level directory name of the vendor SDK bundle.
// The bundle ships one native library directory per platform:
//
//	PLUX-API/
//	    Linux64/
//	    M1/
//	    MacOS/Intel/
//	    Win32/
//	    Win64/
const sdkRoot = "PLUX-API"

// LibraryDir returns the SDK subdirectory holding the native
// acquisition library for an OS/architecture pair. Pairs the vendor
// does not ship a library for are an error, not a guess.
func LibraryDir(goos, goarch string) (string, error) {
	switch goos {
	case "linux":
		if goarch == "amd64" {
			return "Linux64", nil
		}
	case "darwin":
		switch goarch {
		case "arm64":
			return "M1", nil
		case "amd64":
			return filepath.Join("MacOS", "Intel"), nil
		}
	case "windows":
		switch goarch {
		case "amd64":
			return "Win64", nil
		case "386":
			return "Win32", nil
		}
	}
	return "", fmt.Errorf("no vendor SDK build for %s/%s", goos, goarch)
}

// Resolve locates the platform library directory under base and checks
// it exists. An empty base means the current directory, matching how
// the vendor bundle ships alongside the binary.
func Resolve(base string) (string, error) {
	return resolve(base, runtime.GOOS, runtime.GOARCH)
}

func resolve(base, goos, goarch string) (string, error) {
	dir, err := LibraryDir(goos, goarch)
	if err != nil {
		return "", err
	}
	if base == "" {
		base = "."
	}
	full := filepath.Join(base, sdkRoot, dir)
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("vendor SDK not found at %s: %w", full, err)
	}
	return full, nil
}
