package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zenthial/ctrl/internal/project"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "tester"
version = "0.2.1"

[build]
main = "src/main.ctrlast"
out = "out"
`)
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Config.Package.Name != "tester" {
		t.Errorf("expected package name tester, got %q", m.Config.Package.Name)
	}
	if m.Root != dir {
		t.Errorf("expected root %q, got %q", dir, m.Root)
	}
	if got, want := m.MainPath(), filepath.Join(dir, "src", "main.ctrlast"); got != want {
		t.Errorf("expected main path %q, got %q", want, got)
	}
	if got, want := m.OutDir(), filepath.Join(dir, "out"); got != want {
		t.Errorf("expected out dir %q, got %q", want, got)
	}
}

func TestOutDirDefaultsToRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "[package]\nname = \"tester\"\n\n[build]\nmain = \"main.ctrlast\"\n")
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.OutDir() != dir {
		t.Errorf("expected out dir to default to root %q, got %q", dir, m.OutDir())
	}
}

func TestLoadRejectsIncompleteManifests(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"no_package", "[build]\nmain = \"m.ctrlast\"\n", "missing [package]"},
		{"no_name", "[package]\n\n[build]\nmain = \"m.ctrlast\"\n", "missing [package].name"},
		{"no_build", "[package]\nname = \"x\"\n", "missing [build]"},
		{"no_main", "[package]\nname = \"x\"\n\n[build]\n", "missing [build].main"},
		{"bad_version", "[package]\nname = \"x\"\nversion = \"not-semver\"\n\n[build]\nmain = \"m.ctrlast\"\n", "invalid [package].version"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tc.content)
			if _, err := project.Load(path); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"x\"\n\n[build]\nmain = \"m.ctrlast\"\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := project.Find(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !ok {
		t.Fatal("expected the manifest to be found from a nested directory")
	}
	if path != filepath.Join(root, project.ManifestName) {
		t.Errorf("expected %q, got %q", filepath.Join(root, project.ManifestName), path)
	}

	m, ok, err := project.FindAndLoad(nested)
	if err != nil || !ok {
		t.Fatalf("find and load: ok=%v err=%v", ok, err)
	}
	if m.Root != root {
		t.Errorf("expected root %q, got %q", root, m.Root)
	}
}

func TestFindReportsAbsence(t *testing.T) {
	_, ok, err := project.Find(t.TempDir())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok {
		t.Fatal("expected no manifest in an empty directory")
	}
}
