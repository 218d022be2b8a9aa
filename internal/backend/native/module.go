// Package native assembles ctrl SSA straight to machine code and packs it
// into relocatable ELF objects. Generation is unoptimizing: every value
// lives in a frame slot, which keeps the encoders small and the output
// easy to step through with a disassembler.
package native

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/ir"
)

// Module implements backend.Module for linux on amd64 and arm64.
type Module struct {
	target backend.Target
	funcs  []*entry
	byName map[string]ir.FuncID
}

type entry struct {
	name    string
	linkage ir.Linkage
	sig     ir.Signature
	fn      *ir.Func
}

// New returns a module generating code for target, or ErrUnsupportedTarget
// when no encoder covers it.
func New(target backend.Target) (*Module, error) {
	if target.OS != "linux" || (target.Arch != "amd64" && target.Arch != "arm64") {
		return nil, fmt.Errorf("%w: no native code generator for %s", backend.ErrUnsupportedTarget, target)
	}
	return &Module{target: target, byName: make(map[string]ir.FuncID)}, nil
}

func (m *Module) Target() backend.Target { return m.target }

func (m *Module) FileExt() string { return ".o" }

// DeclareFunc registers name. Redeclaring with the same signature returns
// the existing handle.
func (m *Module) DeclareFunc(name string, linkage ir.Linkage, sig ir.Signature) (ir.FuncID, error) {
	if name == "" {
		return ir.NoFuncID, errors.New("native: function needs a name")
	}
	if id, ok := m.byName[name]; ok {
		e := m.funcs[id]
		if !sigEqual(e.sig, sig) {
			return ir.NoFuncID, fmt.Errorf("native: %s redeclared as %s, have %s", name, sig, e.sig)
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
		return fmt.Errorf("native: define of undeclared function %d", id)
	}
	e := m.funcs[id]
	if e.fn != nil {
		return fmt.Errorf("native: %s is already defined", e.name)
	}
	if fn == nil {
		return fmt.Errorf("native: %s: nil body", e.name)
	}
	if err := ir.Verify(fn); err != nil {
		return fmt.Errorf("native: %s: %w", e.name, err)
	}
	if !sigEqual(fn.Sig, e.sig) {
		return fmt.Errorf("native: %s defined as %s, declared %s", e.name, fn.Sig, e.sig)
	}
	e.fn = fn
	return nil
}

// Emit assembles every defined function and returns the relocatable
// object. Functions start on 16-byte boundaries.
func (m *Module) Emit() ([]byte, error) {
	var text []byte
	syms := make([]symbol, 0, len(m.funcs))
	for _, e := range m.funcs {
		if e.fn == nil {
			return nil, fmt.Errorf("native: %s was declared but never defined", e.name)
		}
		var code []byte
		var err error
		switch m.target.Arch {
		case "amd64":
			code, err = encodeAMD64(e.fn)
		case "arm64":
			code, err = encodeARM64(e.fn)
		}
		if err != nil {
			return nil, err
		}
		text = m.padText(text)
		syms = append(syms, symbol{
			name:   e.name,
			offset: uint64(len(text)),
			size:   uint64(len(code)),
			global: e.linkage == ir.LinkageExport,
		})
		text = append(text, code...)
	}
	machine := uint16(elfMachineX86_64)
	if m.target.Arch == "arm64" {
		machine = elfMachineAArch64
	}
	return writeELF(machine, text, syms)
}

// padText aligns the next function start to 16 bytes using the
// architecture's nop filler.
func (m *Module) padText(text []byte) []byte {
	if m.target.Arch == "arm64" {
		for len(text)%16 != 0 {
			text = append(text, 0x1F, 0x20, 0x03, 0xD5) // nop
		}
		return text
	}
	for len(text)%16 != 0 {
		text = append(text, 0x90) // nop
	}
	return text
}

func sigEqual(a, b ir.Signature) bool {
	return a.Ret == b.Ret && slices.Equal(a.Params, b.Params)
}
