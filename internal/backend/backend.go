// Package backend defines the interface every ctrl code generator
// implements and the target taxonomy shared between them. The concrete
// generators live in the native, qbe and llvm subpackages.
package backend

import (
	"errors"

	"github.com/Zenthial/ctrl/internal/ir"
)

// ErrUnsupportedTarget marks a target no backend can generate code for.
// Callers match it with errors.Is.
var ErrUnsupportedTarget = errors.New("backend: unsupported target")

// Module collects function definitions and renders one artifact. Every
// function is declared before it is defined, and Emit runs after the last
// definition.
type Module interface {
	// Target reports what the module generates code for.
	Target() Target

	// DeclareFunc registers a function symbol and returns its handle.
	DeclareFunc(name string, linkage ir.Linkage, sig ir.Signature) (ir.FuncID, error)

	// DefineFunc attaches a lowered body to a declared function. The
	// body is verified before it is accepted.
	DefineFunc(id ir.FuncID, fn *ir.Func) error

	// Emit renders the artifact from everything defined so far.
	Emit() ([]byte, error)

	// FileExt is the artifact's file extension, dot included.
	FileExt() string
}
