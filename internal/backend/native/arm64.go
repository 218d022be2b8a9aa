package native

import (
	"fmt"

	"github.com/Zenthial/ctrl/internal/ir"
)

// AAPCS64 code generation. The frame sits below the saved fp/lr pair and
// holds one 8-byte slot per SSA value, addressed off sp. x9 and x10 are
// the scratch pair.

func arm64SlotOff(v ir.ValueID) uint32 {
	return uint32(v) * 8
}

func encodeARM64(fn *ir.Func) ([]byte, error) {
	blk := fn.Block(fn.Entry)
	if blk == nil {
		return nil, fmt.Errorf("native: %s has no entry block", fn.Name)
	}
	frame := frameSize(fn)
	if frame > 4080 {
		return nil, fmt.Errorf("native: %s needs a %d byte frame, the arm64 encoder stops at 4080", fn.Name, frame)
	}

	c := &code{}
	c.u32(0xA9BF7BFD) // stp x29, x30, [sp, #-16]!
	c.u32(0x910003FD) // mov x29, sp
	if frame > 0 {
		c.u32(0xD10003FF | uint32(frame)<<10) // sub sp, sp, #frame
	}

	// Spill incoming arguments. Stack-passed ones sit above the saved
	// pair, from x29+16 upward.
	intIdx, fpIdx, stackOff := 0, 0, uint32(16)
	for _, p := range blk.Params {
		off := arm64SlotOff(p)
		switch {
		case fn.ValueType(p) == ir.TypeF64 && fpIdx < 8:
			c.u32(arm64StrD(uint32(fpIdx), 31, off))
			fpIdx++
		case fn.ValueType(p) != ir.TypeF64 && intIdx < 8:
			c.u32(arm64StrX(uint32(intIdx), 31, off))
			intIdx++
		default:
			c.u32(arm64LdrX(9, 29, stackOff))
			c.u32(arm64StrX(9, 31, off))
			stackOff += 8
		}
	}

	for _, ins := range blk.Instrs {
		switch ins.Kind {
		case ir.InstrIConst:
			c.arm64LoadImm(9, uint64(wrapConst(ins.Type, ins.Const)))
			c.u32(arm64StrX(9, 31, arm64SlotOff(ins.Result)))
		case ir.InstrBin:
			c.u32(arm64LdrX(9, 31, arm64SlotOff(ins.Args[0])))
			c.u32(arm64LdrX(10, 31, arm64SlotOff(ins.Args[1])))
			c.arm64ALU(ins.Op, ins.Type)
			c.u32(arm64StrX(9, 31, arm64SlotOff(ins.Result)))
		default:
			return nil, fmt.Errorf("native: %s: cannot encode instruction kind %d", fn.Name, ins.Kind)
		}
	}

	if blk.Term.Kind != ir.TermReturn {
		return nil, fmt.Errorf("native: %s: entry block has no return", fn.Name)
	}
	if blk.Term.HasValue {
		off := arm64SlotOff(blk.Term.Value)
		if fn.ValueType(blk.Term.Value) == ir.TypeF64 {
			c.u32(arm64LdrD(0, 31, off))
		} else {
			c.u32(arm64LdrX(0, 31, off))
		}
	}
	if frame > 0 {
		c.u32(0x910003FF | uint32(frame)<<10) // add sp, sp, #frame
	}
	c.u32(0xA8C17BFD) // ldp x29, x30, [sp], #16
	c.u32(0xD65F03C0) // ret
	return c.buf, nil
}

// arm64ALU combines x9 and x10 into x9. 32-bit ops use the w forms, which
// zero the upper half; 8-bit results are sign extended back.
func (c *code) arm64ALU(op ir.BinOp, t ir.Type) {
	wide := t == ir.TypeI64
	switch op {
	case ir.BinIadd:
		if wide {
			c.u32(0x8B0A0129) // add x9, x9, x10
		} else {
			c.u32(0x0B0A0129) // add w9, w9, w10
		}
	case ir.BinIsub:
		if wide {
			c.u32(0xCB0A0129) // sub x9, x9, x10
		} else {
			c.u32(0x4B0A0129) // sub w9, w9, w10
		}
	case ir.BinImul:
		if wide {
			c.u32(0x9B0A7D29) // mul x9, x9, x10
		} else {
			c.u32(0x1B0A7D29) // mul w9, w9, w10
		}
	case ir.BinSdiv:
		if wide {
			c.u32(0x9ACA0D29) // sdiv x9, x9, x10
		} else {
			c.u32(0x1ACA0D29) // sdiv w9, w9, w10
		}
	}
	if t == ir.TypeI8 {
		c.u32(0x13001D29) // sxtb w9, w9
	}
}

// arm64LoadImm materializes v into xrt with a movz/movk chain.
func (c *code) arm64LoadImm(rt uint32, v uint64) {
	c.u32(0xD2800000 | uint32(v&0xFFFF)<<5 | rt) // movz xrt, #h0
	for i, shift := range []uint32{0xF2A00000, 0xF2C00000, 0xF2E00000} {
		hw := uint32(v >> (16 * (i + 1)) & 0xFFFF)
		if hw != 0 {
			c.u32(shift | hw<<5 | rt) // movk xrt, #hw, lsl #16*(i+1)
		}
	}
}

func arm64StrX(rt, rn, off uint32) uint32 {
	return 0xF9000000 | off/8<<10 | rn<<5 | rt
}

func arm64LdrX(rt, rn, off uint32) uint32 {
	return 0xF9400000 | off/8<<10 | rn<<5 | rt
}

func arm64StrD(rt, rn, off uint32) uint32 {
	return 0xFD000000 | off/8<<10 | rn<<5 | rt
}

func arm64LdrD(rt, rn, off uint32) uint32 {
	return 0xFD400000 | off/8<<10 | rn<<5 | rt
}
