package ast

import "strings"

// TypeKind enumerates source type variants.
type TypeKind uint8

const (
	// TypeUnresolved marks a hole the upstream checker failed to fill.
	// It must never reach lowering.
	TypeUnresolved TypeKind = iota
	// TypeUnit is the unit type; values of it carry no machine representation.
	TypeUnit
	// TypePrimitive covers the builtin scalar and reference primitives.
	TypePrimitive
	// TypeRecord is a record with ordered named fields.
	TypeRecord
	// TypeFunction is a function type.
	TypeFunction
)

// Primitive enumerates the builtin primitive types.
type Primitive uint8

const (
	// PrimInt is a signed integer.
	PrimInt Primitive = iota
	// PrimFloat is a floating-point number.
	PrimFloat
	// PrimString is an opaque string reference.
	PrimString
	// PrimArray is an opaque array reference.
	PrimArray
	// PrimChar is a character.
	PrimChar
	// PrimBool is a boolean.
	PrimBool
)

// String returns a human-readable name for the primitive.
func (p Primitive) String() string {
	switch p {
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimString:
		return "string"
	case PrimArray:
		return "array"
	case PrimChar:
		return "char"
	case PrimBool:
		return "bool"
	default:
		return "unknown"
	}
}

// RecordField is one named field of a record type.
type RecordField struct {
	Name string
	Type Type
}

// Type is a source-level type as assigned by the upstream checker.
// Types are immutable once constructed.
type Type struct {
	Kind   TypeKind
	Prim   Primitive     // TypePrimitive
	Fields []RecordField // TypeRecord
	Params []Type        // TypeFunction
	Result *Type         // TypeFunction
}

// UnresolvedType returns the unresolved placeholder type.
func UnresolvedType() Type { return Type{Kind: TypeUnresolved} }

// UnitType returns the unit type.
func UnitType() Type { return Type{Kind: TypeUnit} }

// PrimType returns the primitive type for p.
func PrimType(p Primitive) Type { return Type{Kind: TypePrimitive, Prim: p} }

// RecordType returns a record type over the given fields.
func RecordType(fields ...RecordField) Type {
	return Type{Kind: TypeRecord, Fields: fields}
}

// FuncType returns a function type.
func FuncType(params []Type, result Type) Type {
	return Type{Kind: TypeFunction, Params: params, Result: &result}
}

// String returns a human-readable form of the type.
func (t Type) String() string {
	switch t.Kind {
	case TypeUnresolved:
		return "?"
	case TypeUnit:
		return "unit"
	case TypePrimitive:
		return t.Prim.String()
	case TypeRecord:
		var b strings.Builder
		b.WriteString("record{")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(f.Type.String())
		}
		b.WriteString("}")
		return b.String()
	case TypeFunction:
		var b strings.Builder
		b.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteString(")")
		if t.Result != nil {
			b.WriteString(" -> ")
			b.WriteString(t.Result.String())
		}
		return b.String()
	default:
		return "unknown"
	}
}
