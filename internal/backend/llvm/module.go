// Package llvm renders ctrl SSA as textual LLVM IR. The output feeds llc
// or clang; nothing here links against LLVM itself.
package llvm

import (
	"errors"
	"fmt"
	"slices"

	llir "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/ir"
)

// Module implements backend.Module by building an llir module on demand.
type Module struct {
	target backend.Target
	triple string
	funcs  []*entry
	byName map[string]ir.FuncID
}

type entry struct {
	name    string
	linkage ir.Linkage
	sig     ir.Signature
	fn      *ir.Func
}

// New returns a module rendering IR for target, or ErrUnsupportedTarget
// when no triple matches it.
func New(target backend.Target) (*Module, error) {
	triple, err := tripleFor(target)
	if err != nil {
		return nil, err
	}
	return &Module{target: target, triple: triple, byName: make(map[string]ir.FuncID)}, nil
}

func tripleFor(t backend.Target) (string, error) {
	var arch string
	switch t.Arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "riscv64":
		arch = "riscv64"
	default:
		return "", fmt.Errorf("%w: no LLVM triple for %s", backend.ErrUnsupportedTarget, t)
	}
	switch t.OS {
	case "linux":
		return arch + "-unknown-linux-gnu", nil
	case "darwin":
		return arch + "-apple-macosx", nil
	case "freebsd":
		return arch + "-unknown-freebsd", nil
	default:
		return "", fmt.Errorf("%w: no LLVM triple for %s", backend.ErrUnsupportedTarget, t)
	}
}

func (m *Module) Target() backend.Target { return m.target }

func (m *Module) FileExt() string { return ".ll" }

func (m *Module) DeclareFunc(name string, linkage ir.Linkage, sig ir.Signature) (ir.FuncID, error) {
	if name == "" {
		return ir.NoFuncID, errors.New("llvm: function needs a name")
	}
	if id, ok := m.byName[name]; ok {
		e := m.funcs[id]
		if e.sig.Ret != sig.Ret || !slices.Equal(e.sig.Params, sig.Params) {
			return ir.NoFuncID, fmt.Errorf("llvm: %s redeclared as %s, have %s", name, sig, e.sig)
		}
		return id, nil
	}
	id := ir.FuncID(len(m.funcs))
	m.funcs = append(m.funcs, &entry{name: name, linkage: linkage, sig: sig})
	m.byName[name] = id
	return id, nil
}

func (m *Module) DefineFunc(id ir.FuncID, fn *ir.Func) error {
	if int(id) < 0 || int(id) >= len(m.funcs) {
		return fmt.Errorf("llvm: define of undeclared function %d", id)
	}
	e := m.funcs[id]
	if e.fn != nil {
		return fmt.Errorf("llvm: %s is already defined", e.name)
	}
	if fn == nil {
		return fmt.Errorf("llvm: %s: nil body", e.name)
	}
	if err := ir.Verify(fn); err != nil {
		return fmt.Errorf("llvm: %s: %w", e.name, err)
	}
	e.fn = fn
	return nil
}

// Emit builds the llir module and renders its text.
func (m *Module) Emit() ([]byte, error) {
	mod := llir.NewModule()
	mod.TargetTriple = m.triple
	for _, e := range m.funcs {
		if e.fn == nil {
			return nil, fmt.Errorf("llvm: %s was declared but never defined", e.name)
		}
		if err := defineFunc(mod, e); err != nil {
			return nil, err
		}
	}
	return []byte(mod.String()), nil
}

func defineFunc(mod *llir.Module, e *entry) error {
	fn := e.fn
	vals := make(map[ir.ValueID]value.Value, fn.NumValues())

	var params []*llir.Param
	for _, p := range fn.Block(fn.Entry).Params {
		param := llir.NewParam(fmt.Sprintf("v%d", p), llType(fn.ValueType(p)))
		params = append(params, param)
		vals[p] = param
	}
	f := mod.NewFunc(e.name, llRetType(fn.Sig.Ret), params...)
	if e.linkage == ir.LinkageLocal {
		f.Linkage = enum.LinkageInternal
	}

	for _, blk := range fn.Blocks {
		if blk.ID != fn.Entry && len(blk.Params) > 0 {
			return fmt.Errorf("llvm: %s: block b%d carries parameters", fn.Name, blk.ID)
		}
		b := f.NewBlock(fmt.Sprintf("b%d", blk.ID))
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case ir.InstrIConst:
				vals[ins.Result] = constant.NewInt(llIntType(ins.Type), wrapConst(ins.Type, ins.Const))
			case ir.InstrBin:
				x, y := vals[ins.Args[0]], vals[ins.Args[1]]
				var v value.Named
				switch ins.Op {
				case ir.BinIadd:
					v = b.NewAdd(x, y)
				case ir.BinIsub:
					v = b.NewSub(x, y)
				case ir.BinImul:
					v = b.NewMul(x, y)
				case ir.BinSdiv:
					v = b.NewSDiv(x, y)
				}
				v.SetName(fmt.Sprintf("v%d", ins.Result))
				vals[ins.Result] = v
			default:
				return fmt.Errorf("llvm: %s: cannot render instruction kind %d", fn.Name, ins.Kind)
			}
		}
		if blk.Term.HasValue {
			b.NewRet(vals[blk.Term.Value])
		} else {
			b.NewRet(nil)
		}
	}
	return nil
}

func llRetType(t ir.Type) lltypes.Type {
	if t == ir.TypeNone {
		return lltypes.Void
	}
	return llType(t)
}

func llType(t ir.Type) lltypes.Type {
	switch t {
	case ir.TypeI8:
		return lltypes.I8
	case ir.TypeI64:
		return lltypes.I64
	case ir.TypeF64:
		return lltypes.Double
	default:
		return lltypes.I32
	}
}

func llIntType(t ir.Type) *lltypes.IntType {
	switch t {
	case ir.TypeI8:
		return lltypes.I8
	case ir.TypeI64:
		return lltypes.I64
	default:
		return lltypes.I32
	}
}

func wrapConst(t ir.Type, v int64) int64 {
	switch t {
	case ir.TypeI8:
		return int64(int8(v))
	case ir.TypeI32:
		return int64(int32(v))
	default:
		return v
	}
}
