package ir

import (
	"fmt"
	"math"
)

// Eval interprets f over the given integer arguments and returns the value
// of its return, or 0 for a bare return. Only integer signatures are
// supported; f must have passed Verify. The run command and the backend
// tests use it as the reference semantics.
func Eval(f *Func, args ...int64) (int64, error) {
	if f.Sig.Ret == TypeF64 {
		return 0, fmt.Errorf("ir: %s yields f64, which Eval does not support", f.Name)
	}
	for i, t := range f.Sig.Params {
		if !t.IsInt() {
			return 0, fmt.Errorf("ir: %s: parameter %d is %s, which Eval does not support", f.Name, i, t)
		}
	}
	if len(args) != len(f.Sig.Params) {
		return 0, fmt.Errorf("ir: %s takes %d arguments, got %d", f.Name, len(f.Sig.Params), len(args))
	}
	blk := f.Block(f.Entry)
	if blk == nil {
		return 0, fmt.Errorf("ir: %s has no entry block", f.Name)
	}

	vals := make([]int64, f.NumValues())
	for i, p := range blk.Params {
		vals[p] = wrap(f.ValueType(p), args[i])
	}
	for _, ins := range blk.Instrs {
		switch ins.Kind {
		case InstrIConst:
			vals[ins.Result] = wrap(ins.Type, ins.Const)
		case InstrBin:
			r, err := evalBin(f.Name, ins.Op, vals[ins.Args[0]], vals[ins.Args[1]])
			if err != nil {
				return 0, err
			}
			vals[ins.Result] = wrap(ins.Type, r)
		}
	}
	if blk.Term.Kind != TermReturn {
		return 0, fmt.Errorf("ir: %s: entry block does not return", f.Name)
	}
	if !blk.Term.HasValue {
		return 0, nil
	}
	return vals[blk.Term.Value], nil
}

func evalBin(fn string, op BinOp, x, y int64) (int64, error) {
	switch op {
	case BinIadd:
		return x + y, nil
	case BinIsub:
		return x - y, nil
	case BinImul:
		return x * y, nil
	case BinSdiv:
		if y == 0 {
			return 0, fmt.Errorf("ir: %s: division by zero", fn)
		}
		if x == math.MinInt64 && y == -1 {
			return math.MinInt64, nil
		}
		return x / y, nil
	default:
		return 0, fmt.Errorf("ir: %s: unknown operation %s", fn, op)
	}
}

func wrap(t Type, v int64) int64 {
	switch t {
	case TypeI8:
		return int64(int8(v))
	case TypeI32:
		return int64(int32(v))
	default:
		return v
	}
}
