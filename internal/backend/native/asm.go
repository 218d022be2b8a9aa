package native

import (
	"encoding/binary"

	"github.com/Zenthial/ctrl/internal/ir"
)

// code accumulates little-endian machine code.
type code struct {
	buf []byte
}

func (c *code) bytes(bs ...byte) {
	c.buf = append(c.buf, bs...)
}

func (c *code) u32(v uint32) {
	c.buf = binary.LittleEndian.AppendUint32(c.buf, v)
}

func (c *code) u64(v uint64) {
	c.buf = binary.LittleEndian.AppendUint64(c.buf, v)
}

// wrapConst narrows v to the width of t so stored constants match the
// wrapping arithmetic of the instruction set.
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

// frameSize returns the 16-byte aligned frame holding one 8-byte slot per
// SSA value.
func frameSize(fn *ir.Func) int {
	return (8*fn.NumValues() + 15) &^ 15
}
