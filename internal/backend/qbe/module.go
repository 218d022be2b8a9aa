// Package qbe renders ctrl SSA as QBE intermediate language and runs the
// embedded QBE compiler over it, producing target assembly.
package qbe

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"modernc.org/libqbe"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/ir"
)

// Module implements backend.Module on top of libqbe.
type Module struct {
	target    backend.Target
	qbeTarget string
	funcs     []*entry
	byName    map[string]ir.FuncID
}

type entry struct {
	name    string
	linkage ir.Linkage
	sig     ir.Signature
	fn      *ir.Func
}

// New returns a module rendering for target, or ErrUnsupportedTarget when
// QBE has no matching backend.
func New(target backend.Target) (*Module, error) {
	qt, err := qbeTargetFor(target)
	if err != nil {
		return nil, err
	}
	return &Module{target: target, qbeTarget: qt, byName: make(map[string]ir.FuncID)}, nil
}

func qbeTargetFor(t backend.Target) (string, error) {
	switch t.OS {
	case "linux", "freebsd":
		switch t.Arch {
		case "amd64":
			return "amd64_sysv", nil
		case "arm64":
			return "arm64", nil
		case "riscv64":
			return "rv64", nil
		}
	case "darwin":
		switch t.Arch {
		case "amd64":
			return "amd64_apple", nil
		case "arm64":
			return "arm64_apple", nil
		}
	}
	return "", fmt.Errorf("%w: QBE has no backend for %s", backend.ErrUnsupportedTarget, t)
}

func (m *Module) Target() backend.Target { return m.target }

func (m *Module) FileExt() string { return ".s" }

func (m *Module) DeclareFunc(name string, linkage ir.Linkage, sig ir.Signature) (ir.FuncID, error) {
	if name == "" {
		return ir.NoFuncID, errors.New("qbe: function needs a name")
	}
	if id, ok := m.byName[name]; ok {
		e := m.funcs[id]
		if e.sig.Ret != sig.Ret || !slices.Equal(e.sig.Params, sig.Params) {
			return ir.NoFuncID, fmt.Errorf("qbe: %s redeclared as %s, have %s", name, sig, e.sig)
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
		return fmt.Errorf("qbe: define of undeclared function %d", id)
	}
	e := m.funcs[id]
	if e.fn != nil {
		return fmt.Errorf("qbe: %s is already defined", e.name)
	}
	if fn == nil {
		return fmt.Errorf("qbe: %s: nil body", e.name)
	}
	if err := ir.Verify(fn); err != nil {
		return fmt.Errorf("qbe: %s: %w", e.name, err)
	}
	e.fn = fn
	return nil
}

// Text renders everything defined so far as QBE intermediate language.
func (m *Module) Text() (string, error) {
	var b strings.Builder
	for i, e := range m.funcs {
		if e.fn == nil {
			return "", fmt.Errorf("qbe: %s was declared but never defined", e.name)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		if err := writeFunc(&b, e); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Emit renders the IL and compiles it to assembly with libqbe.
func (m *Module) Emit() ([]byte, error) {
	text, err := m.Text()
	if err != nil {
		return nil, err
	}
	var asm bytes.Buffer
	if err := libqbe.Main(m.qbeTarget, "input.ssa", strings.NewReader(text), &asm, nil); err != nil {
		return nil, fmt.Errorf("qbe: %w", err)
	}
	return asm.Bytes(), nil
}

func writeFunc(b *strings.Builder, e *entry) error {
	fn := e.fn
	if e.linkage == ir.LinkageExport {
		b.WriteString("export ")
	}
	b.WriteString("function ")
	if fn.Sig.Ret != ir.TypeNone {
		b.WriteString(qbeType(fn.Sig.Ret))
		b.WriteByte(' ')
	}
	fmt.Fprintf(b, "$%s(", e.name)
	for i, p := range fn.Block(fn.Entry).Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s %%v%d", qbeType(fn.ValueType(p)), p)
	}
	b.WriteString(") {\n")

	for _, blk := range fn.Blocks {
		if blk.ID != fn.Entry && len(blk.Params) > 0 {
			return fmt.Errorf("qbe: %s: block b%d carries parameters", fn.Name, blk.ID)
		}
		fmt.Fprintf(b, "@b%d\n", blk.ID)
		for _, ins := range blk.Instrs {
			switch ins.Kind {
			case ir.InstrIConst:
				fmt.Fprintf(b, "\t%%v%d =%s copy %d\n", ins.Result, qbeType(ins.Type), ins.Const)
			case ir.InstrBin:
				fmt.Fprintf(b, "\t%%v%d =%s %s %%v%d, %%v%d\n",
					ins.Result, qbeType(ins.Type), qbeOp(ins.Op), ins.Args[0], ins.Args[1])
			default:
				return fmt.Errorf("qbe: %s: cannot render instruction kind %d", fn.Name, ins.Kind)
			}
		}
		if blk.Term.HasValue {
			fmt.Fprintf(b, "\tret %%v%d\n", blk.Term.Value)
		} else {
			b.WriteString("\tret\n")
		}
	}
	b.WriteString("}\n")
	return nil
}

// qbeType picks the base type carrying an ir type. QBE has no 8-bit base
// type, so i8 values travel as words.
func qbeType(t ir.Type) string {
	switch t {
	case ir.TypeI64:
		return "l"
	case ir.TypeF64:
		return "d"
	default:
		return "w"
	}
}

func qbeOp(op ir.BinOp) string {
	switch op {
	case ir.BinIadd:
		return "add"
	case ir.BinIsub:
		return "sub"
	case ir.BinImul:
		return "mul"
	default:
		return "div"
	}
}
