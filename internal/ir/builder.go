package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Builder constructs a Func one block at a time. Mutable frontend
// variables are declared and bound through it and resolved to SSA values
// on use, so the lowering never tracks data flow itself.
type Builder struct {
	fn  *Func
	cur BlockID

	varTypes map[VarID]Type
	varDefs  map[VarID]ValueID
}

// NewBuilder starts an empty function with the given name, linkage and
// signature.
func NewBuilder(name string, linkage Linkage, sig Signature) *Builder {
	return &Builder{
		fn: &Func{
			ID:      NoFuncID,
			Name:    name,
			Linkage: linkage,
			Sig:     sig,
			Entry:   NoBlockID,
		},
		cur:      NoBlockID,
		varTypes: make(map[VarID]Type),
		varDefs:  make(map[VarID]ValueID),
	}
}

// NewBlock appends an empty block and returns its ID. The first block
// created becomes the entry block.
func (b *Builder) NewBlock() BlockID {
	n, err := safecast.Conv[int32](len(b.fn.Blocks))
	if err != nil {
		panic(fmt.Errorf("ir: block count overflow: %w", err))
	}
	id := BlockID(n)
	b.fn.Blocks = append(b.fn.Blocks, &Block{ID: id})
	if id == 0 {
		b.fn.Entry = id
	}
	return id
}

// SwitchTo makes id the block that receives subsequent instructions.
func (b *Builder) SwitchTo(id BlockID) error {
	if b.fn.Block(id) == nil {
		return fmt.Errorf("ir: unknown block b%d", id)
	}
	b.cur = id
	return nil
}

// AppendFuncParams appends one parameter per signature entry to blk and
// returns the fresh values in declaration order.
func (b *Builder) AppendFuncParams(id BlockID) ([]ValueID, error) {
	blk := b.fn.Block(id)
	if blk == nil {
		return nil, fmt.Errorf("ir: unknown block b%d", id)
	}
	vals := make([]ValueID, 0, len(b.fn.Sig.Params))
	for _, t := range b.fn.Sig.Params {
		v := b.newValue(t)
		blk.Params = append(blk.Params, v)
		vals = append(vals, v)
	}
	return vals, nil
}

// DeclareVar records the type of a frontend variable. Redeclaring v
// replaces the previous type and leaves any existing binding in place
// until the next DefVar.
func (b *Builder) DeclareVar(v VarID, t Type) {
	b.varTypes[v] = t
}

// DefVar binds v to an SSA value. Rebinding replaces the previous value.
func (b *Builder) DefVar(v VarID, val ValueID) error {
	want, ok := b.varTypes[v]
	if !ok {
		return fmt.Errorf("ir: def of undeclared variable var%d", v)
	}
	if got := b.fn.ValueType(val); got != want {
		return fmt.Errorf("ir: var%d holds %s values, got %s", v, want, got)
	}
	b.varDefs[v] = val
	return nil
}

// ValueType reports the type of v in the function under construction.
func (b *Builder) ValueType(v ValueID) Type {
	return b.fn.ValueType(v)
}

// UseVar reads the value currently bound to v.
func (b *Builder) UseVar(v VarID) (ValueID, error) {
	val, ok := b.varDefs[v]
	if !ok {
		return NoValueID, fmt.Errorf("ir: use of unbound variable var%d", v)
	}
	return val, nil
}

// IConst emits an integer constant into the current block.
func (b *Builder) IConst(t Type, v int64) (ValueID, error) {
	if !t.IsInt() {
		return NoValueID, fmt.Errorf("ir: iconst needs an integer type, got %s", t)
	}
	blk, err := b.current()
	if err != nil {
		return NoValueID, err
	}
	res := b.newValue(t)
	blk.Instrs = append(blk.Instrs, Instr{Kind: InstrIConst, Type: t, Result: res, Const: v})
	return res, nil
}

// Bin emits a two-operand integer operation into the current block. Both
// operands must already carry type t.
func (b *Builder) Bin(op BinOp, t Type, x, y ValueID) (ValueID, error) {
	if !t.IsInt() {
		return NoValueID, fmt.Errorf("ir: %s needs an integer type, got %s", op, t)
	}
	for _, arg := range [2]ValueID{x, y} {
		if got := b.fn.ValueType(arg); got != t {
			return NoValueID, fmt.Errorf("ir: %s operand v%d has type %s, want %s", op, arg, got, t)
		}
	}
	blk, err := b.current()
	if err != nil {
		return NoValueID, err
	}
	res := b.newValue(t)
	blk.Instrs = append(blk.Instrs, Instr{Kind: InstrBin, Type: t, Result: res, Op: op, Args: [2]ValueID{x, y}})
	return res, nil
}

// Return terminates the current block. Pass NoValueID for a bare return.
func (b *Builder) Return(v ValueID) error {
	blk, err := b.current()
	if err != nil {
		return err
	}
	if v == NoValueID {
		blk.Term = Terminator{Kind: TermReturn}
		return nil
	}
	if got, want := b.fn.ValueType(v), b.fn.Sig.Ret; got != want {
		return fmt.Errorf("ir: return of %s value, function yields %s", got, want)
	}
	blk.Term = Terminator{Kind: TermReturn, HasValue: true, Value: v}
	return nil
}

// Terminated reports whether the current block already has a terminator.
func (b *Builder) Terminated() bool {
	blk := b.fn.Block(b.cur)
	return blk != nil && blk.Term.Kind != TermNone
}

// Finalize returns the finished function. When the function yields none
// and the current block is still open, an implicit bare return closes it;
// any other open block is left for Verify to reject.
func (b *Builder) Finalize() (*Func, error) {
	if len(b.fn.Blocks) == 0 {
		return nil, fmt.Errorf("ir: function %s has no blocks", b.fn.Name)
	}
	if blk := b.fn.Block(b.cur); blk != nil && blk.Term.Kind == TermNone && b.fn.Sig.Ret == TypeNone {
		blk.Term = Terminator{Kind: TermReturn}
	}
	return b.fn, nil
}

func (b *Builder) newValue(t Type) ValueID {
	n, err := safecast.Conv[int32](len(b.fn.values))
	if err != nil {
		panic(fmt.Errorf("ir: value count overflow: %w", err))
	}
	b.fn.values = append(b.fn.values, t)
	return ValueID(n)
}

func (b *Builder) current() (*Block, error) {
	blk := b.fn.Block(b.cur)
	if blk == nil {
		return nil, fmt.Errorf("ir: no current block")
	}
	if blk.Term.Kind != TermNone {
		return nil, fmt.Errorf("ir: block b%d is already terminated", blk.ID)
	}
	return blk, nil
}
