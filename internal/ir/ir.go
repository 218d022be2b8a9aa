// Package ir defines the SSA form the ctrl backends consume. Frontend
// packages build functions through a Builder, which resolves mutable
// variables into block-local SSA values.
package ir

import (
	"fmt"
	"strings"
)

// Type is the machine-level type of an SSA value.
type Type uint8

const (
	// TypeNone marks the absence of a value. Unit results lower to it.
	TypeNone Type = iota
	// TypeI8 is an 8-bit integer. Bool and char values lower to it.
	TypeI8
	// TypeI32 is a 32-bit integer.
	TypeI32
	// TypeI64 is a 64-bit integer, wide enough to hold a pointer.
	TypeI64
	// TypeF64 is a 64-bit IEEE 754 float.
	TypeF64
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeI8:
		return "i8"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF64:
		return "f64"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Bits reports the width of t, or 0 for TypeNone.
func (t Type) Bits() int {
	switch t {
	case TypeI8:
		return 8
	case TypeI32:
		return 32
	case TypeI64, TypeF64:
		return 64
	default:
		return 0
	}
}

// IsInt reports whether t is one of the integer types.
func (t Type) IsInt() bool {
	return t == TypeI8 || t == TypeI32 || t == TypeI64
}

// ValueID identifies an SSA value within one function.
type ValueID int32

// NoValueID marks the absence of a value, used where an operation
// produces nothing.
const NoValueID ValueID = -1

// VarID identifies a mutable frontend variable within one function.
// Callers allocate VarIDs themselves; the Builder only resolves them.
type VarID int32

// NoVarID marks the absence of a variable.
const NoVarID VarID = -1

// BlockID identifies a basic block within one function.
type BlockID int32

// NoBlockID marks the absence of a block.
const NoBlockID BlockID = -1

// FuncID identifies a function within one backend module.
type FuncID int32

// NoFuncID marks the absence of a function.
const NoFuncID FuncID = -1

// Linkage controls symbol visibility in the emitted object.
type Linkage uint8

const (
	// LinkageLocal keeps the symbol private to its object.
	LinkageLocal Linkage = iota
	// LinkageExport makes the symbol visible to the linker.
	LinkageExport
)

func (l Linkage) String() string {
	switch l {
	case LinkageLocal:
		return "local"
	case LinkageExport:
		return "export"
	default:
		return fmt.Sprintf("linkage(%d)", uint8(l))
	}
}

// BinOp is a two-operand integer operation.
type BinOp uint8

const (
	// BinIadd is wrapping integer addition.
	BinIadd BinOp = iota
	// BinIsub is wrapping integer subtraction.
	BinIsub
	// BinImul is wrapping integer multiplication.
	BinImul
	// BinSdiv is signed integer division, truncating toward zero.
	BinSdiv
)

func (op BinOp) String() string {
	switch op {
	case BinIadd:
		return "iadd"
	case BinIsub:
		return "isub"
	case BinImul:
		return "imul"
	case BinSdiv:
		return "sdiv"
	default:
		return fmt.Sprintf("binop(%d)", uint8(op))
	}
}

// Signature describes the machine-level interface of a function.
// A unit result is TypeNone.
type Signature struct {
	Params []Type
	Ret    Type
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> ")
	b.WriteString(s.Ret.String())
	return b.String()
}
