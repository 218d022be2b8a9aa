package lower

import "github.com/Zenthial/ctrl/internal/ir"

// env tracks the variable slots of one function. Slots are handed out
// monotonically and never reused; redeclaring a name points it at a fresh
// slot, which is how rebinding shadows an earlier value.
type env struct {
	vars map[string]ir.VarID
	next int32
}

func newEnv() *env {
	return &env{vars: make(map[string]ir.VarID)}
}

func (e *env) declare(name string, b *ir.Builder, t ir.Type) ir.VarID {
	v := ir.VarID(e.next)
	e.next++
	b.DeclareVar(v, t)
	e.vars[name] = v
	return v
}

func (e *env) lookup(name string) (ir.VarID, bool) {
	v, ok := e.vars[name]
	return v, ok
}
