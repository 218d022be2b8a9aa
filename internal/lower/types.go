package lower

import (
	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/ir"
)

// LowerType maps a frontend type onto its machine representation. Unit
// carries no value and maps to TypeNone. Strings, arrays, records and
// function values are passed by pointer. Unresolved types must not survive
// the checker, so hitting one is an invariant violation.
func LowerType(t ast.Type) (ir.Type, error) {
	switch t.Kind {
	case ast.TypeUnit:
		return ir.TypeNone, nil
	case ast.TypePrimitive:
		switch t.Prim {
		case ast.PrimInt:
			return ir.TypeI32, nil
		case ast.PrimFloat:
			return ir.TypeF64, nil
		case ast.PrimString, ast.PrimArray:
			return ir.TypeI64, nil
		case ast.PrimChar, ast.PrimBool:
			return ir.TypeI8, nil
		default:
			return ir.TypeNone, invariantf("unknown primitive %s", t.Prim)
		}
	case ast.TypeRecord, ast.TypeFunction:
		return ir.TypeI64, nil
	case ast.TypeUnresolved:
		return ir.TypeNone, invariantf("cannot lower an unresolved type")
	default:
		return ir.TypeNone, invariantf("unknown type kind %d", t.Kind)
	}
}
