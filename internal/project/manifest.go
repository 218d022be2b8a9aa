// Package project locates and loads the ctrl.toml manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// ManifestName is the file every ctrl project is rooted at.
const ManifestName = "ctrl.toml"

// Config mirrors the TOML layout of ctrl.toml.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
}

// PackageConfig names the project.
type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildConfig points at the program to compile and where artifacts land.
type BuildConfig struct {
	Main string `toml:"main"`
	Out  string `toml:"out"`
}

// Manifest is a loaded ctrl.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Find walks up from startDir to locate ctrl.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: missing [package].name", path)
	}
	if meta.IsDefined("package", "version") {
		if _, err := semver.NewVersion(cfg.Package.Version); err != nil {
			return nil, fmt.Errorf("%s: invalid [package].version %q: %w", path, cfg.Package.Version, err)
		}
	}
	if !meta.IsDefined("build") {
		return nil, fmt.Errorf("%s: missing [build]", path)
	}
	if !meta.IsDefined("build", "main") || strings.TrimSpace(cfg.Build.Main) == "" {
		return nil, fmt.Errorf("%s: missing [build].main", path)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// FindAndLoad resolves the nearest manifest above startDir.
func FindAndLoad(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// MainPath returns the absolute path of the program named by [build].main.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.Main))
}

// OutDir returns the artifact directory, defaulting to the project root.
func (m *Manifest) OutDir() string {
	if strings.TrimSpace(m.Config.Build.Out) == "" {
		return m.Root
	}
	out := filepath.FromSlash(m.Config.Build.Out)
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(m.Root, out)
}
