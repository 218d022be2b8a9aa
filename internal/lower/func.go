package lower

import (
	"fmt"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/ir"
)

// machineParam is a parameter that survived type lowering. Unit parameters
// carry no value, so they are dropped before the signature is built and
// never get a slot.
type machineParam struct {
	name string
	ty   ir.Type
}

func lowerParams(params []ast.Param) ([]machineParam, error) {
	out := make([]machineParam, 0, len(params))
	for _, p := range params {
		ty, err := LowerType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		if ty == ir.TypeNone {
			continue
		}
		out = append(out, machineParam{name: p.Name, ty: ty})
	}
	return out, nil
}

func lowerFunc(data ast.FuncData) (*ir.Func, error) {
	params, err := lowerParams(data.Params)
	if err != nil {
		return nil, err
	}
	ret, err := LowerType(data.Result)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	sig := ir.Signature{Ret: ret}
	for _, p := range params {
		sig.Params = append(sig.Params, p.ty)
	}

	b := ir.NewBuilder(data.Name, ir.LinkageExport, sig)
	entry := b.NewBlock()
	vals, err := b.AppendFuncParams(entry)
	if err != nil {
		return nil, invariantf("entry block: %v", err)
	}
	if err := b.SwitchTo(entry); err != nil {
		return nil, invariantf("entry block: %v", err)
	}

	// Bind each surviving parameter to a slot so the body can read and
	// shadow it. The binding is positional over the filtered list, which
	// keeps names and values aligned when a unit parameter was dropped.
	env := newEnv()
	for i, p := range params {
		slot := env.declare(p.name, b, p.ty)
		if err := b.DefVar(slot, vals[i]); err != nil {
			return nil, invariantf("parameter %q: %v", p.name, err)
		}
	}

	fl := &funcLowerer{b: b, env: env}
	for _, stmt := range data.Body {
		if _, err := fl.lowerExpr(stmt); err != nil {
			return nil, err
		}
	}
	fn, err := b.Finalize()
	if err != nil {
		return nil, invariantf("%v", err)
	}
	return fn, nil
}
