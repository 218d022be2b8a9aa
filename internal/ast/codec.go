package ast

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// The .ctrlast wire format: a msgpack-encoded Program. Expressions encode
// as a kind tag followed by the payload fields in declaration order.

var (
	_ msgpack.CustomEncoder = (*Expr)(nil)
	_ msgpack.CustomDecoder = (*Expr)(nil)
)

// EncodeProgram writes p to w in the .ctrlast wire format.
func EncodeProgram(w io.Writer, p *Program) error {
	if p == nil {
		return fmt.Errorf("ast: encode nil program")
	}
	return msgpack.NewEncoder(w).Encode(p)
}

// DecodeProgram reads a program in the .ctrlast wire format.
func DecodeProgram(r io.Reader) (*Program, error) {
	var p Program
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	return &p, nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeUint8(uint8(e.Kind)); err != nil {
		return err
	}
	switch data := e.Data.(type) {
	case LiteralData:
		return enc.EncodeMulti(uint8(data.Kind), data.IntValue, data.BoolValue)
	case IdentifierData:
		return enc.EncodeString(data.Name)
	case AssignData:
		return enc.EncodeMulti(data.Name, data.Value)
	case BinaryData:
		return enc.EncodeMulti(uint8(data.Op), data.Left, data.Right)
	case ReturnData:
		return enc.Encode(data.Value)
	case BlockData:
		return enc.Encode(data.Stmts)
	case FuncData:
		return enc.EncodeMulti(data.Name, data.Params, data.Result, data.Body)
	case CallData:
		return enc.EncodeMulti(data.Callee, data.Args)
	case UnaryData:
		return enc.EncodeMulti(uint8(data.Op), data.Operand)
	default:
		return fmt.Errorf("ast: cannot encode %v payload %T", e.Kind, e.Data)
	}
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return err
	}
	e.Kind = ExprKind(kind)
	switch e.Kind {
	case ExprLiteral:
		var data LiteralData
		var lk uint8
		if err := dec.DecodeMulti(&lk, &data.IntValue, &data.BoolValue); err != nil {
			return err
		}
		data.Kind = LitKind(lk)
		e.Data = data
	case ExprIdentifier:
		var data IdentifierData
		if data.Name, err = dec.DecodeString(); err != nil {
			return err
		}
		e.Data = data
	case ExprAssign:
		var data AssignData
		if err := dec.DecodeMulti(&data.Name, &data.Value); err != nil {
			return err
		}
		e.Data = data
	case ExprBinary:
		var data BinaryData
		var op uint8
		if err := dec.DecodeMulti(&op, &data.Left, &data.Right); err != nil {
			return err
		}
		data.Op = BinOp(op)
		e.Data = data
	case ExprReturn:
		var data ReturnData
		if err := dec.Decode(&data.Value); err != nil {
			return err
		}
		e.Data = data
	case ExprBlock:
		var data BlockData
		if err := dec.Decode(&data.Stmts); err != nil {
			return err
		}
		e.Data = data
	case ExprFunction:
		var data FuncData
		if err := dec.DecodeMulti(&data.Name, &data.Params, &data.Result, &data.Body); err != nil {
			return err
		}
		e.Data = data
	case ExprCall:
		var data CallData
		if err := dec.DecodeMulti(&data.Callee, &data.Args); err != nil {
			return err
		}
		e.Data = data
	case ExprUnary:
		var data UnaryData
		var op uint8
		if err := dec.DecodeMulti(&op, &data.Operand); err != nil {
			return err
		}
		data.Op = UnOp(op)
		e.Data = data
	default:
		return fmt.Errorf("ast: unknown expression kind %d", kind)
	}
	return nil
}
