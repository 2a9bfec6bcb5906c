package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Limits applied to config files and environment input.
const (
	maxConfigSize = 10 << 20 // config file or document size
	maxJSONDepth  = 100      // JSON nesting depth
	maxEnvVarLen  = 10000    // environment variable value length
	maxPathLen    = 4096     // file path length
)

// validateConfigPath checks a config path before any filesystem access:
// length, extension, and traversal outside the working directory.
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("empty config path")
	}
	if len(path) > maxPathLen {
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}

	switch ext := filepath.Ext(path); ext {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("only JSON or YAML config files allowed: %s", path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}

	if filepath.IsAbs(path) {
		// An absolute path must not keep parent references after cleaning
		if strings.Contains(filepath.ToSlash(absPath), "..") {
			return fmt.Errorf("path traversal not allowed: %s", path)
		}
		return nil
	}

	// A relative path must stay inside the working directory once resolved
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot get working directory: %w", err)
	}
	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return fmt.Errorf("path traversal not allowed: %s resolves outside working directory", path)
	}

	return nil
}

// safeReadFile reads a config file after validating its path, size, and
// that it is a regular file.
func safeReadFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes > %d", info.Size(), maxConfigSize)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}
	return data, nil
}

// safeWriteFile writes a config file owner-only after the same path and
// size checks reads get.
func safeWriteFile(path string, data []byte) error {
	if err := validateConfigPath(path); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("config data too large: %d bytes > %d", len(data), maxConfigSize)
	}
	return os.WriteFile(path, data, 0600)
}

// validateEnvVar bounds an environment override's length and rejects
// null bytes. Empty values pass; they mean "unset".
func validateEnvVar(key, value string) error {
	if value == "" {
		return nil
	}
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("null byte in environment variable %s", key)
	}
	return nil
}

// validateJSONDepth scans raw JSON for nesting depth and bracket balance
// without decoding it. Brackets inside string literals do not count.
func validateJSONDepth(data []byte) error {
	var depth int
	var inString, escaped bool

	for _, b := range data {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case b == '\\' && inString:
			escaped = true
			continue
		case b == '"':
			inString = !inString
			continue
		case inString:
			continue
		}

		switch b {
		case '{', '[':
			depth++
			if depth > maxJSONDepth {
				return fmt.Errorf("JSON nesting too deep: %d > %d", depth, maxJSONDepth)
			}
		case '}', ']':
			depth--
			if depth < 0 {
				return errors.New("malformed JSON: unbalanced brackets")
			}
		}
	}

	if depth != 0 {
		return fmt.Errorf("malformed JSON: unclosed brackets (depth=%d)", depth)
	}
	return nil
}
