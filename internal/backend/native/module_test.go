package native_test

import (
	"bytes"
	"debug/elf"
	"errors"
	"testing"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/backend/native"
	"github.com/Zenthial/ctrl/internal/ir"
)

var (
	linuxAMD64 = backend.Target{OS: "linux", Arch: "amd64"}
	linuxARM64 = backend.Target{OS: "linux", Arch: "arm64"}
)

func buildBinFunc(t *testing.T, name string, op ir.BinOp, ty ir.Type) *ir.Func {
	t.Helper()
	b := ir.NewBuilder(name, ir.LinkageExport, ir.Signature{
		Params: []ir.Type{ty, ty},
		Ret:    ty,
	})
	entry := b.NewBlock()
	params, err := b.AppendFuncParams(entry)
	if err != nil {
		t.Fatalf("append params: %v", err)
	}
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	res, err := b.Bin(op, ty, params[0], params[1])
	if err != nil {
		t.Fatalf("bin: %v", err)
	}
	if err := b.Return(res); err != nil {
		t.Fatalf("return: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return fn
}

func buildAdd(t *testing.T, name string) *ir.Func {
	return buildBinFunc(t, name, ir.BinIadd, ir.TypeI32)
}

func buildConst(t *testing.T, name string, v int64) *ir.Func {
	t.Helper()
	b := ir.NewBuilder(name, ir.LinkageExport, ir.Signature{Ret: ir.TypeI32})
	entry := b.NewBlock()
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	val, err := b.IConst(ir.TypeI32, v)
	if err != nil {
		t.Fatalf("iconst: %v", err)
	}
	if err := b.Return(val); err != nil {
		t.Fatalf("return: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return fn
}

// buildWideArgPick builds a function with n i32 parameters returning
// params[i] - params[j], which exercises stack-passed arguments once n
// outgrows the register file.
func buildWideArgPick(t *testing.T, name string, n, i, j int) *ir.Func {
	t.Helper()
	sig := ir.Signature{Ret: ir.TypeI32}
	for k := 0; k < n; k++ {
		sig.Params = append(sig.Params, ir.TypeI32)
	}
	b := ir.NewBuilder(name, ir.LinkageExport, sig)
	entry := b.NewBlock()
	params, err := b.AppendFuncParams(entry)
	if err != nil {
		t.Fatalf("append params: %v", err)
	}
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	res, err := b.Bin(ir.BinIsub, ir.TypeI32, params[i], params[j])
	if err != nil {
		t.Fatalf("bin: %v", err)
	}
	if err := b.Return(res); err != nil {
		t.Fatalf("return: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return fn
}

func emitOne(t *testing.T, target backend.Target, fn *ir.Func) []byte {
	t.Helper()
	m, err := native.New(target)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	id, err := m.DeclareFunc(fn.Name, fn.Linkage, fn.Sig)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := m.DefineFunc(id, fn); err != nil {
		t.Fatalf("define: %v", err)
	}
	raw, err := m.Emit()
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return raw
}

func openObject(t *testing.T, raw []byte) *elf.File {
	t.Helper()
	f, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("parse object: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func textSection(t *testing.T, f *elf.File) []byte {
	t.Helper()
	sec := f.Section(".text")
	if sec == nil {
		t.Fatal("object has no .text section")
	}
	data, err := sec.Data()
	if err != nil {
		t.Fatalf("read .text: %v", err)
	}
	return data
}

func findSymbol(t *testing.T, f *elf.File, name string) elf.Symbol {
	t.Helper()
	syms, err := f.Symbols()
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	for _, s := range syms {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %s not found", name)
	return elf.Symbol{}
}

func TestEmitRelocatableObject(t *testing.T) {
	tests := []struct {
		target  backend.Target
		machine elf.Machine
	}{
		{linuxAMD64, elf.EM_X86_64},
		{linuxARM64, elf.EM_AARCH64},
	}
	for _, tt := range tests {
		t.Run(tt.target.Arch, func(t *testing.T) {
			raw := emitOne(t, tt.target, buildAdd(t, "add"))
			f := openObject(t, raw)
			if f.Type != elf.ET_REL {
				t.Errorf("expected ET_REL, got %v", f.Type)
			}
			if f.Machine != tt.machine {
				t.Errorf("expected %v, got %v", tt.machine, f.Machine)
			}
			text := textSection(t, f)
			if len(text) == 0 {
				t.Fatal("empty .text section")
			}
			sym := findSymbol(t, f, "add")
			if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
				t.Errorf("expected STT_FUNC, got %v", elf.ST_TYPE(sym.Info))
			}
			if elf.ST_BIND(sym.Info) != elf.STB_GLOBAL {
				t.Errorf("expected STB_GLOBAL, got %v", elf.ST_BIND(sym.Info))
			}
			if sym.Value != 0 || sym.Size != uint64(len(text)) {
				t.Errorf("unexpected symbol extent %d+%d in %d bytes of text", sym.Value, sym.Size, len(text))
			}
		})
	}
}

func TestAMD64AddEncoding(t *testing.T) {
	raw := emitOne(t, linuxAMD64, buildAdd(t, "add"))
	text := textSection(t, openObject(t, raw))
	want := []byte{
		0x55,                                     // push rbp
		0x48, 0x89, 0xE5,                         // mov rbp, rsp
		0x48, 0x81, 0xEC, 0x20, 0x00, 0x00, 0x00, // sub rsp, 32
		0x48, 0x89, 0xBD, 0xF8, 0xFF, 0xFF, 0xFF, // mov [rbp-8], rdi
		0x48, 0x89, 0xB5, 0xF0, 0xFF, 0xFF, 0xFF, // mov [rbp-16], rsi
		0x48, 0x8B, 0x85, 0xF8, 0xFF, 0xFF, 0xFF, // mov rax, [rbp-8]
		0x48, 0x8B, 0x8D, 0xF0, 0xFF, 0xFF, 0xFF, // mov rcx, [rbp-16]
		0x01, 0xC8,                               // add eax, ecx
		0x48, 0x89, 0x85, 0xE8, 0xFF, 0xFF, 0xFF, // mov [rbp-24], rax
		0x48, 0x8B, 0x85, 0xE8, 0xFF, 0xFF, 0xFF, // mov rax, [rbp-24]
		0xC9, 0xC3, // leave; ret
	}
	if !bytes.Equal(text, want) {
		t.Errorf("encoding mismatch:\ngot  %x\nwant %x", text, want)
	}
}

func TestARM64AddEncoding(t *testing.T) {
	raw := emitOne(t, linuxARM64, buildAdd(t, "add"))
	text := textSection(t, openObject(t, raw))
	words := []uint32{
		0xA9BF7BFD, // stp x29, x30, [sp, #-16]!
		0x910003FD, // mov x29, sp
		0xD10083FF, // sub sp, sp, #32
		0xF90003E0, // str x0, [sp]
		0xF90007E1, // str x1, [sp, #8]
		0xF94003E9, // ldr x9, [sp]
		0xF94007EA, // ldr x10, [sp, #8]
		0x0B0A0129, // add w9, w9, w10
		0xF9000BE9, // str x9, [sp, #16]
		0xF9400BE0, // ldr x0, [sp, #16]
		0x910083FF, // add sp, sp, #32
		0xA8C17BFD, // ldp x29, x30, [sp], #16
		0xD65F03C0, // ret
	}
	var want []byte
	for _, w := range words {
		want = append(want, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	if !bytes.Equal(text, want) {
		t.Errorf("encoding mismatch:\ngot  %x\nwant %x", text, want)
	}
}

func TestTwoFunctionsAreAligned(t *testing.T) {
	m, err := native.New(linuxAMD64)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	for _, name := range []string{"first", "second"} {
		fn := buildAdd(t, name)
		id, err := m.DeclareFunc(name, fn.Linkage, fn.Sig)
		if err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
		if err := m.DefineFunc(id, fn); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	raw, err := m.Emit()
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	f := openObject(t, raw)
	second := findSymbol(t, f, "second")
	if second.Value%16 != 0 || second.Value == 0 {
		t.Errorf("expected 16-byte aligned nonzero offset, got %d", second.Value)
	}
}

func TestLocalLinkageStaysLocal(t *testing.T) {
	fn := buildAdd(t, "helper")
	fn.Linkage = ir.LinkageLocal
	raw := emitOne(t, linuxAMD64, fn)
	sym := findSymbol(t, openObject(t, raw), "helper")
	if elf.ST_BIND(sym.Info) != elf.STB_LOCAL {
		t.Errorf("expected STB_LOCAL, got %v", elf.ST_BIND(sym.Info))
	}
}

func TestEmptyModuleEmitsValidObject(t *testing.T) {
	m, err := native.New(linuxARM64)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	raw, err := m.Emit()
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	f := openObject(t, raw)
	if text := textSection(t, f); len(text) != 0 {
		t.Errorf("expected empty .text, got %d bytes", len(text))
	}
}

func TestUnsupportedTargets(t *testing.T) {
	for _, target := range []backend.Target{
		{OS: "darwin", Arch: "amd64"},
		{OS: "windows", Arch: "amd64"},
		{OS: "linux", Arch: "riscv64"},
	} {
		if _, err := native.New(target); !errors.Is(err, backend.ErrUnsupportedTarget) {
			t.Errorf("%s: expected ErrUnsupportedTarget, got %v", target, err)
		}
	}
}

func TestDeclareAndDefineContract(t *testing.T) {
	m, err := native.New(linuxAMD64)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	fn := buildAdd(t, "add")

	id, err := m.DeclareFunc("add", fn.Linkage, fn.Sig)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	again, err := m.DeclareFunc("add", fn.Linkage, fn.Sig)
	if err != nil {
		t.Fatalf("redeclare: %v", err)
	}
	if again != id {
		t.Errorf("expected the same handle, got %d and %d", id, again)
	}
	if _, err := m.DeclareFunc("add", fn.Linkage, ir.Signature{Ret: ir.TypeI64}); err == nil {
		t.Error("expected error for conflicting redeclaration")
	}

	// Emitting with a declared but undefined function must fail.
	if _, err := m.Emit(); err == nil {
		t.Error("expected emit error for undefined function")
	}

	if err := m.DefineFunc(id, fn); err != nil {
		t.Fatalf("define: %v", err)
	}
	if err := m.DefineFunc(id, fn); err == nil {
		t.Error("expected error for double definition")
	}
}

func TestDefineRunsVerifier(t *testing.T) {
	b := ir.NewBuilder("broken", ir.LinkageExport, ir.Signature{Ret: ir.TypeI32})
	entry := b.NewBlock()
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	m, err := native.New(linuxAMD64)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	id, err := m.DeclareFunc(fn.Name, fn.Linkage, fn.Sig)
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := m.DefineFunc(id, fn); err == nil {
		t.Error("expected verifier rejection for unterminated body")
	}
}
