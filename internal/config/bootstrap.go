package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// DefaultConfigName is the base name of the config file looked up in the working directory.
	DefaultConfigName = "config"
	// DefaultConfigFile is the config file created on first run.
	DefaultConfigFile = DefaultConfigName + ".toml"
	// DistSuffix marks the shipped template of a config file.
	DistSuffix = ".dist"
)

// EnsureConfigFile copies <dir>/config.toml.dist to <dir>/config.toml when
// the latter does not exist yet. It reports whether a file was created.
// A missing template is not an error.
func EnsureConfigFile(dir string) (bool, error) {
	target := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	}

	src, err := os.Open(target + DistSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open config template: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", DefaultConfigFile, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(target)
		return false, fmt.Errorf("failed to copy config template: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(target)
		return false, fmt.Errorf("failed to write %s: %w", DefaultConfigFile, err)
	}

	slog.Info("Created config file from template", "path", target)
	return true, nil
}
