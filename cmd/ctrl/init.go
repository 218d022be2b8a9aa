package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new ctrl project",
	Long: `Initialize a new ctrl project by creating a project manifest (ctrl.toml)
and a starter program (main.ctrlast). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else if filepath.IsAbs(args[0]) {
		target = args[0]
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = filepath.Join(wd, args[0])
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "ctrl-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	mainPath := filepath.Join(target, "main.ctrlast")
	createdMain := false
	if _, err := os.Stat(mainPath); errors.Is(err, os.ErrNotExist) {
		if err := writeStarterProgram(mainPath, name); err != nil {
			return fmt.Errorf("failed to write main.ctrlast: %w", err)
		}
		createdMain = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, relErr := filepath.Rel(wd, target); relErr == nil {
			rel = r
		}
	}
	_, _ = fmt.Fprintf(os.Stdout, "Initialized ctrl project in %s\n", rel)
	_, _ = fmt.Fprintf(os.Stdout, "  - %s\n", project.ManifestName)
	if createdMain {
		_, _ = fmt.Fprintf(os.Stdout, "  - main.ctrlast\n")
	} else {
		_, _ = fmt.Fprintf(os.Stdout, "  - main.ctrlast (existing)\n")
	}
	return nil
}

// defaultManifest returns a minimal TOML manifest for a ctrl project
// using the provided package name.
func defaultManifest(name string) string {
	return fmt.Sprintf(`# ctrl project manifest
[package]
name = "%s"
version = "0.1.0"

[build]
main = "main.ctrlast"
out = "build"
`, name)
}

// writeStarterProgram encodes the placeholder program
// main() -> Int { x = 37 + 5; return x } at path. There is no textual
// syntax for ctrl programs; the frontend ships them pre-typed, so the
// starter is emitted straight through the interchange codec.
func writeStarterProgram(path, name string) error {
	prog := &ast.Program{
		Name: name,
		Items: []*ast.Expr{
			ast.FuncDecl("main", nil, ast.PrimType(ast.PrimInt),
				ast.Assign("x", ast.Binary(ast.OpAdd, ast.IntLit(37), ast.IntLit(5))),
				ast.Ret(ast.Ident("x")),
			),
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ast.EncodeProgram(f, prog); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
