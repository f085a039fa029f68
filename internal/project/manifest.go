// Package project resolves workspace-level configuration: the xcsc.toml
// manifest with generator and server settings, and the downstream error-code
// suppressions from the nearest project file.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// SourceExt is the extension of transformable sources; derived files use
// HostExt and live under GeneratedDir.
const (
	SourceExt    = ".xcs"
	HostExt      = ".cs"
	GeneratedDir = "Generated"
)

// ErrNoManifest is returned when no xcsc.toml exists up the parent chain.
var ErrNoManifest = errors.New("no xcsc.toml found")

// Manifest is the decoded xcsc.toml.
type Manifest struct {
	Generator GeneratorConfig `toml:"generator"`
	Server    ServerConfig    `toml:"server"`
}

// GeneratorConfig names the factory call the generator emits.
type GeneratorConfig struct {
	Factory string `toml:"factory"`
	Method  string `toml:"method"`
}

// ServerConfig tunes the change pipeline.
type ServerConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Default returns the manifest used when no xcsc.toml exists.
func Default() Manifest {
	return Manifest{
		Generator: GeneratorConfig{Factory: "Document", Method: "CreateElement"},
		Server:    ServerConfig{DebounceMS: 200},
	}
}

// Debounce returns the configured debounce interval.
func (m Manifest) Debounce() time.Duration {
	return time.Duration(m.Server.DebounceMS) * time.Millisecond
}

// findManifest walks up from dir looking for xcsc.toml.
func findManifest(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "xcsc.toml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifest
		}
		dir = parent
	}
}

// LoadManifest decodes the nearest xcsc.toml at or above dir, filling unset
// fields with defaults. A missing manifest is not an error; defaults apply.
func LoadManifest(dir string) (Manifest, error) {
	cfg := Default()
	path, err := findManifest(dir)
	if errors.Is(err, ErrNoManifest) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Generator.Factory == "" {
		cfg.Generator.Factory = "Document"
	}
	if cfg.Generator.Method == "" {
		cfg.Generator.Method = "CreateElement"
	}
	if cfg.Server.DebounceMS <= 0 {
		cfg.Server.DebounceMS = 200
	}
	return cfg, nil
}

// ValidateRoot checks that the workspace path exists and is a directory.
func ValidateRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %s: not a directory", path)
	}
	return abs, nil
}
