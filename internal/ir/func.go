package ir

// InstrKind discriminates the instruction payload.
type InstrKind uint8

const (
	// InstrIConst materializes an integer constant.
	InstrIConst InstrKind = iota
	// InstrBin applies a two-operand integer operation.
	InstrBin
)

// Instr is one SSA instruction. Kind selects which payload fields apply.
type Instr struct {
	Kind   InstrKind
	Type   Type
	Result ValueID

	// InstrIConst payload.
	Const int64

	// InstrBin payload.
	Op   BinOp
	Args [2]ValueID
}

// TermKind discriminates block terminators.
type TermKind uint8

const (
	// TermNone marks a block that has not been terminated yet. Verify
	// rejects it.
	TermNone TermKind = iota
	// TermReturn leaves the function, optionally carrying a value.
	TermReturn
)

// Terminator ends a basic block.
type Terminator struct {
	Kind     TermKind
	HasValue bool
	Value    ValueID
}

// Block is a basic block: parameters, a straight-line instruction list
// and one terminator.
type Block struct {
	ID     BlockID
	Params []ValueID
	Instrs []Instr
	Term   Terminator
}

// Func is one function in SSA form.
type Func struct {
	ID      FuncID
	Name    string
	Linkage Linkage
	Sig     Signature
	Entry   BlockID
	Blocks  []*Block

	values []Type
}

// NumValues reports how many SSA values f defines.
func (f *Func) NumValues() int { return len(f.values) }

// ValueType reports the type of v, or TypeNone when v is out of range.
func (f *Func) ValueType(v ValueID) Type {
	if v < 0 || int(v) >= len(f.values) {
		return TypeNone
	}
	return f.values[v]
}

// Block returns the block with the given ID, or nil.
func (f *Func) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}
