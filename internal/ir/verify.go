package ir

import (
	"errors"
	"fmt"
)

// Verify checks the structural invariants of f: a present entry block, one
// definition per value, operands of the right type and a terminator on
// every block. It returns all violations joined into one error.
func Verify(f *Func) error {
	var errs []error
	errs = append(errs, verifyShape(f)...)
	errs = append(errs, verifyDefs(f)...)
	errs = append(errs, verifyBlocks(f)...)
	return errors.Join(errs...)
}

func verifyShape(f *Func) []error {
	var errs []error
	if f.Name == "" {
		errs = append(errs, errors.New("ir: function has no name"))
	}
	for i, t := range f.Sig.Params {
		if t == TypeNone {
			errs = append(errs, fmt.Errorf("ir: %s: parameter %d has type none", f.Name, i))
		}
	}
	entry := f.Block(f.Entry)
	if entry == nil {
		errs = append(errs, fmt.Errorf("ir: %s: entry block b%d does not exist", f.Name, f.Entry))
		return errs
	}
	if len(entry.Params) != len(f.Sig.Params) {
		errs = append(errs, fmt.Errorf("ir: %s: entry block has %d parameters, signature has %d",
			f.Name, len(entry.Params), len(f.Sig.Params)))
		return errs
	}
	for i, p := range entry.Params {
		if got, want := f.ValueType(p), f.Sig.Params[i]; got != want {
			errs = append(errs, fmt.Errorf("ir: %s: entry parameter %d has type %s, want %s",
				f.Name, i, got, want))
		}
	}
	return errs
}

func verifyDefs(f *Func) []error {
	var errs []error
	seen := make([]bool, f.NumValues())
	define := func(blk BlockID, v ValueID) {
		if v < 0 || int(v) >= len(seen) {
			errs = append(errs, fmt.Errorf("ir: %s: b%d defines unknown value v%d", f.Name, blk, v))
			return
		}
		if seen[v] {
			errs = append(errs, fmt.Errorf("ir: %s: b%d redefines v%d", f.Name, blk, v))
			return
		}
		seen[v] = true
	}
	for _, blk := range f.Blocks {
		for _, p := range blk.Params {
			define(blk.ID, p)
		}
		for _, ins := range blk.Instrs {
			define(blk.ID, ins.Result)
		}
	}
	for v, ok := range seen {
		if !ok {
			errs = append(errs, fmt.Errorf("ir: %s: v%d is never defined", f.Name, v))
		}
	}
	return errs
}

func verifyBlocks(f *Func) []error {
	var errs []error
	for _, blk := range f.Blocks {
		for _, ins := range blk.Instrs {
			if ins.Kind != InstrBin {
				continue
			}
			for _, arg := range ins.Args {
				if got := f.ValueType(arg); got != ins.Type {
					errs = append(errs, fmt.Errorf("ir: %s: b%d: %s operand v%d has type %s, want %s",
						f.Name, blk.ID, ins.Op, arg, got, ins.Type))
				}
			}
		}
		switch blk.Term.Kind {
		case TermReturn:
			switch {
			case blk.Term.HasValue && f.Sig.Ret == TypeNone:
				errs = append(errs, fmt.Errorf("ir: %s: b%d returns a value from a none function", f.Name, blk.ID))
			case blk.Term.HasValue:
				if got := f.ValueType(blk.Term.Value); got != f.Sig.Ret {
					errs = append(errs, fmt.Errorf("ir: %s: b%d returns %s, function yields %s",
						f.Name, blk.ID, got, f.Sig.Ret))
				}
			case f.Sig.Ret != TypeNone:
				errs = append(errs, fmt.Errorf("ir: %s: b%d returns no value, function yields %s",
					f.Name, blk.ID, f.Sig.Ret))
			}
		default:
			errs = append(errs, fmt.Errorf("ir: %s: b%d has no terminator", f.Name, blk.ID))
		}
	}
	return errs
}
