package ir_test

import (
	"strings"
	"testing"

	"github.com/Zenthial/ctrl/internal/ir"
)

func buildAdd(t *testing.T) *ir.Func {
	t.Helper()
	b := ir.NewBuilder("add", ir.LinkageExport, ir.Signature{
		Params: []ir.Type{ir.TypeI32, ir.TypeI32},
		Ret:    ir.TypeI32,
	})
	entry := b.NewBlock()
	params, err := b.AppendFuncParams(entry)
	if err != nil {
		t.Fatalf("append params: %v", err)
	}
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	sum, err := b.Bin(ir.BinIadd, ir.TypeI32, params[0], params[1])
	if err != nil {
		t.Fatalf("bin: %v", err)
	}
	if err := b.Return(sum); err != nil {
		t.Fatalf("return: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return fn
}

func TestBuildAdd(t *testing.T) {
	fn := buildAdd(t)
	if err := ir.Verify(fn); err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := strings.Join([]string{
		"export function add(i32, i32) -> i32 {",
		"b0(v0: i32, v1: i32):",
		"    v2 = iadd.i32 v0, v1",
		"    return v2",
		"}",
		"",
	}, "\n")
	if got := ir.DumpString(fn); got != want {
		t.Errorf("dump mismatch:\ngot:\n%swant:\n%s", got, want)
	}
	got, err := ir.Eval(fn, 3, 5)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got != 8 {
		t.Errorf("expected 8, got %d", got)
	}
}

func TestVarRebinding(t *testing.T) {
	b := ir.NewBuilder("f", ir.LinkageExport, ir.Signature{Ret: ir.TypeI32})
	entry := b.NewBlock()
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}

	const x = ir.VarID(0)
	b.DeclareVar(x, ir.TypeI32)
	one, err := b.IConst(ir.TypeI32, 1)
	if err != nil {
		t.Fatalf("iconst: %v", err)
	}
	if err := b.DefVar(x, one); err != nil {
		t.Fatalf("def: %v", err)
	}
	two, err := b.IConst(ir.TypeI32, 2)
	if err != nil {
		t.Fatalf("iconst: %v", err)
	}
	if err := b.DefVar(x, two); err != nil {
		t.Fatalf("redef: %v", err)
	}

	got, err := b.UseVar(x)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if got != two {
		t.Errorf("expected v%d after rebinding, got v%d", two, got)
	}
	if err := b.Return(got); err != nil {
		t.Fatalf("return: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	res, err := ir.Eval(fn)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if res != 2 {
		t.Errorf("expected 2, got %d", res)
	}
}

func TestImplicitBareReturn(t *testing.T) {
	b := ir.NewBuilder("noop", ir.LinkageExport, ir.Signature{Ret: ir.TypeNone})
	entry := b.NewBlock()
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	fn, err := b.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := ir.Verify(fn); err != nil {
		t.Fatalf("verify: %v", err)
	}
	blk := fn.Block(fn.Entry)
	if blk.Term.Kind != ir.TermReturn || blk.Term.HasValue {
		t.Errorf("expected implicit bare return, got %+v", blk.Term)
	}
}

func TestBuilderRejectsMisuse(t *testing.T) {
	b := ir.NewBuilder("f", ir.LinkageLocal, ir.Signature{Ret: ir.TypeI32})

	// No current block yet.
	if _, err := b.IConst(ir.TypeI32, 1); err == nil {
		t.Error("expected error for iconst outside a block")
	}

	entry := b.NewBlock()
	if err := b.SwitchTo(entry); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if _, err := b.IConst(ir.TypeF64, 1); err == nil {
		t.Error("expected error for float iconst")
	}
	if _, err := b.UseVar(ir.VarID(7)); err == nil {
		t.Error("expected error for unbound variable")
	}
	v, err := b.IConst(ir.TypeI32, 1)
	if err != nil {
		t.Fatalf("iconst: %v", err)
	}
	if err := b.DefVar(ir.VarID(7), v); err == nil {
		t.Error("expected error for undeclared variable")
	}

	w, err := b.IConst(ir.TypeI64, 2)
	if err != nil {
		t.Fatalf("iconst: %v", err)
	}
	if _, err := b.Bin(ir.BinIadd, ir.TypeI32, v, w); err == nil {
		t.Error("expected error for mixed operand widths")
	}
	if err := b.Return(w); err == nil {
		t.Error("expected error for return type mismatch")
	}

	if err := b.Return(v); err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := b.IConst(ir.TypeI32, 3); err == nil {
		t.Error("expected error for emitting into a terminated block")
	}
}
