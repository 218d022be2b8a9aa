package native

import (
	"fmt"

	"github.com/Zenthial/ctrl/internal/ir"
)

// SysV amd64 code generation. Every SSA value owns an 8-byte slot below
// rbp; rax and rcx are the scratch pair, so no register allocation is
// needed. Offsets from rbp always use the disp32 form.

const (
	regRAX = 0
	regRCX = 1
	regRDX = 2
	regRSI = 6
	regRDI = 7
	regR8  = 8
	regR9  = 9
)

var amd64IntArgRegs = []int{regRDI, regRSI, regRDX, regRCX, regR8, regR9}

func amd64SlotDisp(v ir.ValueID) int32 {
	return -8 * (int32(v) + 1)
}

func encodeAMD64(fn *ir.Func) ([]byte, error) {
	blk := fn.Block(fn.Entry)
	if blk == nil {
		return nil, fmt.Errorf("native: %s has no entry block", fn.Name)
	}

	c := &code{}
	c.bytes(0x55)             // push rbp
	c.bytes(0x48, 0x89, 0xE5) // mov rbp, rsp
	frame := frameSize(fn)
	if frame > 0 {
		c.bytes(0x48, 0x81, 0xEC) // sub rsp, imm32
		c.u32(uint32(frame))
	}

	// Spill incoming arguments into their slots. Later stack slots start
	// at rbp+16, past the saved rbp and the return address.
	intIdx, fpIdx, stackOff := 0, 0, int32(16)
	for _, p := range blk.Params {
		disp := amd64SlotDisp(p)
		switch {
		case fn.ValueType(p) == ir.TypeF64 && fpIdx < 8:
			c.amd64MovsdStore(fpIdx, disp)
			fpIdx++
		case fn.ValueType(p) != ir.TypeF64 && intIdx < len(amd64IntArgRegs):
			c.amd64Store(amd64IntArgRegs[intIdx], disp)
			intIdx++
		default:
			c.amd64Load(regRAX, stackOff)
			c.amd64Store(regRAX, disp)
			stackOff += 8
		}
	}

	for _, ins := range blk.Instrs {
		switch ins.Kind {
		case ir.InstrIConst:
			c.bytes(0x48, 0xB8) // movabs rax, imm64
			c.u64(uint64(wrapConst(ins.Type, ins.Const)))
			c.amd64Store(regRAX, amd64SlotDisp(ins.Result))
		case ir.InstrBin:
			c.amd64Load(regRAX, amd64SlotDisp(ins.Args[0]))
			c.amd64Load(regRCX, amd64SlotDisp(ins.Args[1]))
			c.amd64ALU(ins.Op, ins.Type)
			c.amd64Store(regRAX, amd64SlotDisp(ins.Result))
		default:
			return nil, fmt.Errorf("native: %s: cannot encode instruction kind %d", fn.Name, ins.Kind)
		}
	}

	if blk.Term.Kind != ir.TermReturn {
		return nil, fmt.Errorf("native: %s: entry block has no return", fn.Name)
	}
	if blk.Term.HasValue {
		disp := amd64SlotDisp(blk.Term.Value)
		if fn.ValueType(blk.Term.Value) == ir.TypeF64 {
			c.amd64MovsdLoad(0, disp)
		} else {
			c.amd64Load(regRAX, disp)
		}
	}
	c.bytes(0xC9, 0xC3) // leave; ret
	return c.buf, nil
}

// amd64ALU combines rax and rcx into rax. 8-bit results are sign extended
// back so slot contents stay canonical.
func (c *code) amd64ALU(op ir.BinOp, t ir.Type) {
	wide := t == ir.TypeI64
	rex := func() {
		if wide {
			c.bytes(0x48)
		}
	}
	switch op {
	case ir.BinIadd:
		rex()
		c.bytes(0x01, 0xC8) // add eax, ecx
	case ir.BinIsub:
		rex()
		c.bytes(0x29, 0xC8) // sub eax, ecx
	case ir.BinImul:
		rex()
		c.bytes(0x0F, 0xAF, 0xC1) // imul eax, ecx
	case ir.BinSdiv:
		rex()
		c.bytes(0x99) // cdq / cqo
		rex()
		c.bytes(0xF7, 0xF9) // idiv ecx
	}
	if t == ir.TypeI8 {
		c.bytes(0x0F, 0xBE, 0xC0) // movsx eax, al
	}
}

func (c *code) amd64Store(reg int, disp int32) {
	c.amd64MovRM(0x89, reg, disp)
}

func (c *code) amd64Load(reg int, disp int32) {
	c.amd64MovRM(0x8B, reg, disp)
}

// amd64MovRM emits a 64-bit mov between reg and [rbp+disp32].
func (c *code) amd64MovRM(opcode byte, reg int, disp int32) {
	rex := byte(0x48)
	if reg >= 8 {
		rex |= 0x04
	}
	c.bytes(rex, opcode, amd64ModRM(reg))
	c.u32(uint32(disp))
}

func (c *code) amd64MovsdStore(xmm int, disp int32) {
	c.bytes(0xF2, 0x0F, 0x11, amd64ModRM(xmm))
	c.u32(uint32(disp))
}

func (c *code) amd64MovsdLoad(xmm int, disp int32) {
	c.bytes(0xF2, 0x0F, 0x10, amd64ModRM(xmm))
	c.u32(uint32(disp))
}

// amd64ModRM addresses [rbp+disp32] with reg in the reg field.
func amd64ModRM(reg int) byte {
	return byte(0x85 | (reg&7)<<3)
}
