package ast

// TypeOf derives the type of e under env, which maps bound names to their
// declared types. Unknown identifiers and unsupported kinds yield the
// unresolved type. A nil env behaves as an empty environment.
func TypeOf(e *Expr, env map[string]Type) Type {
	if e == nil {
		return UnresolvedType()
	}
	switch e.Kind {
	case ExprLiteral:
		data, ok := e.Data.(LiteralData)
		if !ok {
			return UnresolvedType()
		}
		if data.Kind == LitBool {
			return PrimType(PrimBool)
		}
		return PrimType(PrimInt)
	case ExprIdentifier:
		data, ok := e.Data.(IdentifierData)
		if !ok {
			return UnresolvedType()
		}
		if t, ok := env[data.Name]; ok {
			return t
		}
		return UnresolvedType()
	case ExprAssign:
		data, ok := e.Data.(AssignData)
		if !ok {
			return UnresolvedType()
		}
		return TypeOf(data.Value, env)
	case ExprBinary:
		data, ok := e.Data.(BinaryData)
		if !ok {
			return UnresolvedType()
		}
		// The checker guarantees both sides agree; the left side is
		// authoritative here.
		return TypeOf(data.Left, env)
	case ExprReturn:
		data, ok := e.Data.(ReturnData)
		if !ok {
			return UnresolvedType()
		}
		return TypeOf(data.Value, env)
	case ExprBlock:
		return UnitType()
	case ExprFunction:
		data, ok := e.Data.(FuncData)
		if !ok {
			return UnresolvedType()
		}
		params := make([]Type, len(data.Params))
		for i, p := range data.Params {
			params[i] = p.Type
		}
		return FuncType(params, data.Result)
	default:
		return UnresolvedType()
	}
}
