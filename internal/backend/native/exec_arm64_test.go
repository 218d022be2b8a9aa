//go:build linux && arm64

package native_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"

	"github.com/Zenthial/ctrl/internal/ir"
)

// loadSymbol maps the object's .text into executable memory and returns
// the address of name.
func loadSymbol(t *testing.T, raw []byte, name string) uintptr {
	t.Helper()
	f := openObject(t, raw)
	text := textSection(t, f)
	sym := findSymbol(t, f, name)

	mem, err := unix.Mmap(-1, 0, len(text), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		t.Fatalf("mmap: %v", err)
	}
	t.Cleanup(func() { _ = unix.Munmap(mem) })
	copy(mem, text)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		t.Fatalf("mprotect: %v", err)
	}
	return uintptr(unsafe.Pointer(&mem[0])) + uintptr(sym.Value)
}

func TestExecAdd(t *testing.T) {
	raw := emitOne(t, linuxARM64, buildAdd(t, "add"))
	fn := loadSymbol(t, raw, "add")
	tests := []struct{ a, b, want int32 }{
		{3, 5, 8},
		{-2, 2, 0},
		{2147483647, 1, -2147483648},
	}
	for _, tt := range tests {
		ret, _, _ := purego.SyscallN(fn, uintptr(uint32(tt.a)), uintptr(uint32(tt.b)))
		if got := int32(uint32(ret)); got != tt.want {
			t.Errorf("add(%d, %d): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestExecDivTruncatesTowardZero(t *testing.T) {
	raw := emitOne(t, linuxARM64, buildBinFunc(t, "div", ir.BinSdiv, ir.TypeI32))
	fn := loadSymbol(t, raw, "div")
	tests := []struct{ a, b, want int32 }{
		{10, 3, 3},
		{-10, 3, -3},
		{-7, 2, -3},
		{7, -2, -3},
	}
	for _, tt := range tests {
		ret, _, _ := purego.SyscallN(fn, uintptr(uint32(tt.a)), uintptr(uint32(tt.b)))
		if got := int32(uint32(ret)); got != tt.want {
			t.Errorf("div(%d, %d): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestExecWideMul(t *testing.T) {
	raw := emitOne(t, linuxARM64, buildBinFunc(t, "mul", ir.BinImul, ir.TypeI64))
	fn := loadSymbol(t, raw, "mul")
	ret, _, _ := purego.SyscallN(fn, uintptr(int64(1)<<40), 3)
	if got := int64(ret); got != 3<<40 {
		t.Errorf("expected %d, got %d", int64(3)<<40, got)
	}
}

func TestExecConst(t *testing.T) {
	raw := emitOne(t, linuxARM64, buildConst(t, "answer", -37))
	fn := loadSymbol(t, raw, "answer")
	ret, _, _ := purego.SyscallN(fn)
	if got := int32(uint32(ret)); got != -37 {
		t.Errorf("expected -37, got %d", got)
	}
}

func TestExecStackArgs(t *testing.T) {
	// Ten integer arguments: the last two arrive on the stack.
	raw := emitOne(t, linuxARM64, buildWideArgPick(t, "pick", 10, 8, 9))
	fn := loadSymbol(t, raw, "pick")
	ret, _, _ := purego.SyscallN(fn, 0, 0, 0, 0, 0, 0, 0, 0, 40, 2)
	if got := int32(uint32(ret)); got != 38 {
		t.Errorf("expected 38, got %d", got)
	}
}

func TestObjdumpCanDisassemble(t *testing.T) {
	objdump, err := exec.LookPath("objdump")
	if err != nil {
		t.Skipf("objdump not found: %v", err)
	}
	raw := emitOne(t, linuxARM64, buildAdd(t, "add"))
	path := filepath.Join(t.TempDir(), "add.o")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write object: %v", err)
	}
	out, err := exec.Command(objdump, "-d", path).CombinedOutput()
	if err != nil {
		t.Fatalf("objdump: %v\n%s", err, out)
	}
	listing := string(out)
	for _, want := range []string{"<add>:", "stp", "ret"} {
		if !strings.Contains(listing, want) {
			t.Errorf("expected %q in disassembly:\n%s", want, listing)
		}
	}
}
