// Package lower translates checked ctrl syntax trees into SSA and feeds
// the result to a backend module. It trusts the checker: malformed input
// surfaces as ErrInvariant, while backend troubles keep their own errors.
package lower

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/ir"
)

// LowerFunc translates one function declaration into SSA form.
func LowerFunc(e *ast.Expr) (*ir.Func, error) {
	if e == nil || e.Kind != ast.ExprFunction {
		return nil, invariantf("expected a function declaration, got %s", exprKind(e))
	}
	data, ok := e.Data.(ast.FuncData)
	if !ok {
		return nil, invariantf("function expression carries %T payload", e.Data)
	}
	fn, err := lowerFunc(data)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", data.Name, err)
	}
	return fn, nil
}

// Compile lowers every top-level item of prog into m. Anything but a
// function declaration at the top level breaks the frontend contract.
func Compile(prog *ast.Program, m backend.Module) error {
	for _, item := range prog.Items {
		if item == nil || item.Kind != ast.ExprFunction {
			return invariantf("top level must be a function, got %s", exprKind(item))
		}
		fn, err := LowerFunc(item)
		if err != nil {
			return err
		}
		id, err := m.DeclareFunc(fn.Name, fn.Linkage, fn.Sig)
		if err != nil {
			return fmt.Errorf("lower: declare %s: %w", fn.Name, err)
		}
		if err := m.DefineFunc(id, fn); err != nil {
			return fmt.Errorf("lower: define %s: %w", fn.Name, err)
		}
	}
	return nil
}

// EmitObject lowers prog into m and returns the rendered artifact.
func EmitObject(prog *ast.Program, m backend.Module) ([]byte, error) {
	if err := Compile(prog, m); err != nil {
		return nil, err
	}
	raw, err := m.Emit()
	if err != nil {
		return nil, fmt.Errorf("lower: emit %s: %w", prog.Name, err)
	}
	return raw, nil
}

// WriteObject lowers prog into m and writes the artifact into dir under
// the program's name with the backend's extension, returning the path.
func WriteObject(prog *ast.Program, m backend.Module, dir string) (string, error) {
	raw, err := EmitObject(prog, m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, prog.Name+m.FileExt())
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("lower: write object: %w", err)
	}
	return path, nil
}

func exprKind(e *ast.Expr) string {
	if e == nil {
		return "nothing"
	}
	return e.Kind.String()
}
