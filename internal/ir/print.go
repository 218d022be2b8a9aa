package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable listing of f to w.
func Dump(w io.Writer, f *Func) error {
	_, err := io.WriteString(w, DumpString(f))
	return err
}

// DumpString renders the listing of f as a string.
func DumpString(f *Func) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s function %s%s {\n", f.Linkage, f.Name, f.Sig)
	for _, blk := range f.Blocks {
		writeBlock(&b, f, blk)
	}
	b.WriteString("}\n")
	return b.String()
}

func writeBlock(b *strings.Builder, f *Func, blk *Block) {
	fmt.Fprintf(b, "b%d(", blk.ID)
	for i, p := range blk.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "v%d: %s", p, f.ValueType(p))
	}
	b.WriteString("):\n")
	for _, ins := range blk.Instrs {
		switch ins.Kind {
		case InstrIConst:
			fmt.Fprintf(b, "    v%d = iconst.%s %d\n", ins.Result, ins.Type, ins.Const)
		case InstrBin:
			fmt.Fprintf(b, "    v%d = %s.%s v%d, v%d\n", ins.Result, ins.Op, ins.Type, ins.Args[0], ins.Args[1])
		default:
			fmt.Fprintf(b, "    v%d = instr(%d)\n", ins.Result, uint8(ins.Kind))
		}
	}
	switch {
	case blk.Term.Kind == TermReturn && blk.Term.HasValue:
		fmt.Fprintf(b, "    return v%d\n", blk.Term.Value)
	case blk.Term.Kind == TermReturn:
		b.WriteString("    return\n")
	default:
		b.WriteString("    <unterminated>\n")
	}
}
