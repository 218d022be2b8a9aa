package lower

import (
	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/ir"
)

// funcLowerer walks one function body, translating expressions into SSA
// instructions through the builder.
type funcLowerer struct {
	b   *ir.Builder
	env *env
}

// lowerExpr translates e and returns the value it yields. Assignments and
// blocks yield nothing and return NoValueID.
func (fl *funcLowerer) lowerExpr(e *ast.Expr) (ir.ValueID, error) {
	if e == nil {
		return ir.NoValueID, invariantf("nil expression")
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return fl.lowerLiteral(e)
	case ast.ExprIdentifier:
		return fl.lowerIdentifier(e)
	case ast.ExprAssign:
		return fl.lowerAssign(e)
	case ast.ExprBinary:
		return fl.lowerBinary(e)
	case ast.ExprReturn:
		return fl.lowerReturn(e)
	case ast.ExprBlock:
		return fl.lowerBlock(e)
	default:
		return ir.NoValueID, invariantf("cannot lower %s expression", e.Kind)
	}
}

func (fl *funcLowerer) lowerLiteral(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.LiteralData)
	if !ok {
		return ir.NoValueID, invariantf("literal expression carries %T payload", e.Data)
	}
	switch data.Kind {
	case ast.LitInt:
		v, err := fl.b.IConst(ir.TypeI32, data.IntValue)
		if err != nil {
			return ir.NoValueID, invariantf("literal: %v", err)
		}
		return v, nil
	case ast.LitBool:
		var bit int64
		if data.BoolValue {
			bit = 1
		}
		v, err := fl.b.IConst(ir.TypeI8, bit)
		if err != nil {
			return ir.NoValueID, invariantf("literal: %v", err)
		}
		return v, nil
	default:
		return ir.NoValueID, invariantf("unknown literal kind %d", data.Kind)
	}
}

func (fl *funcLowerer) lowerIdentifier(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.IdentifierData)
	if !ok {
		return ir.NoValueID, invariantf("identifier expression carries %T payload", e.Data)
	}
	slot, ok := fl.env.lookup(data.Name)
	if !ok {
		return ir.NoValueID, invariantf("undefined identifier %q", data.Name)
	}
	val, err := fl.b.UseVar(slot)
	if err != nil {
		return ir.NoValueID, invariantf("identifier %q: %v", data.Name, err)
	}
	return val, nil
}

func (fl *funcLowerer) lowerAssign(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.AssignData)
	if !ok {
		return ir.NoValueID, invariantf("assignment expression carries %T payload", e.Data)
	}
	val, err := fl.lowerExpr(data.Value)
	if err != nil {
		return ir.NoValueID, err
	}
	// The slot type is derived from the value expression alone; enclosing
	// bindings are not consulted.
	ty, err := LowerType(ast.TypeOf(data.Value, nil))
	if err != nil {
		return ir.NoValueID, err
	}
	if ty == ir.TypeNone {
		return ir.NoValueID, invariantf("assignment to %q binds a unit value", data.Name)
	}
	slot := fl.env.declare(data.Name, fl.b, ty)
	if err := fl.b.DefVar(slot, val); err != nil {
		return ir.NoValueID, invariantf("assignment to %q: %v", data.Name, err)
	}
	return ir.NoValueID, nil
}

func (fl *funcLowerer) lowerBinary(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.BinaryData)
	if !ok {
		return ir.NoValueID, invariantf("binary expression carries %T payload", e.Data)
	}
	lhs, err := fl.lowerExpr(data.Left)
	if err != nil {
		return ir.NoValueID, err
	}
	rhs, err := fl.lowerExpr(data.Right)
	if err != nil {
		return ir.NoValueID, err
	}

	var op ir.BinOp
	switch data.Op {
	case ast.OpAdd:
		op = ir.BinIadd
	case ast.OpSub:
		op = ir.BinIsub
	case ast.OpMul:
		op = ir.BinImul
	case ast.OpDiv:
		op = ir.BinSdiv
	default:
		return ir.NoValueID, invariantf("cannot lower %s operator", data.Op)
	}

	ty := fl.b.ValueType(lhs)
	if !ty.IsInt() {
		return ir.NoValueID, invariantf("%s operand yields %s, arithmetic needs an integer", data.Op, ty)
	}
	val, err := fl.b.Bin(op, ty, lhs, rhs)
	if err != nil {
		return ir.NoValueID, invariantf("%s: %v", data.Op, err)
	}
	return val, nil
}

func (fl *funcLowerer) lowerReturn(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.ReturnData)
	if !ok {
		return ir.NoValueID, invariantf("return expression carries %T payload", e.Data)
	}
	val := ir.NoValueID
	if data.Value != nil {
		v, err := fl.lowerExpr(data.Value)
		if err != nil {
			return ir.NoValueID, err
		}
		val = v
	}
	// A unit-valued operand leaves val at NoValueID and the return bare.
	if err := fl.b.Return(val); err != nil {
		return ir.NoValueID, invariantf("return: %v", err)
	}
	return val, nil
}

func (fl *funcLowerer) lowerBlock(e *ast.Expr) (ir.ValueID, error) {
	data, ok := e.Data.(ast.BlockData)
	if !ok {
		return ir.NoValueID, invariantf("block expression carries %T payload", e.Data)
	}
	for _, stmt := range data.Stmts {
		if _, err := fl.lowerExpr(stmt); err != nil {
			return ir.NoValueID, err
		}
	}
	return ir.NoValueID, nil
}
