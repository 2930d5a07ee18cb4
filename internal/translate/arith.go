package translate

import (
	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

// arithmetic describes one binary arithmetic or bitwise opcode.
type arithmetic struct {
	low, high x86.ArithOp // ops applied to the low and high words
	float     bool        // has SSE and x87 forms
}

var arithmetics = map[il.Opcode]arithmetic{
	il.Add: {low: x86.OpAdd, high: x86.OpAdc, float: true},
	il.Sub: {low: x86.OpSub, high: x86.OpSbb, float: true},
	il.And: {low: x86.OpAnd, high: x86.OpAnd},
	il.Or:  {low: x86.OpOr, high: x86.OpOr},
	il.Xor: {low: x86.OpXor, high: x86.OpXor},
}

// arithHandler translates add, sub, and, or and xor in place: the right
// operand is consumed and the left slot receives the result.
type arithHandler struct {
	op    il.Opcode
	arith arithmetic
}

func newArith(op il.Opcode) Handler {
	return arithHandler{op: op, arith: arithmetics[op]}
}

func (arithHandler) Effect() StackEffect { return StackEffect{Pops: 2, Pushes: 1} }

func (h arithHandler) Translate(ctx *Context) error {
	class, err := binaryOperands(ctx)
	if err != nil {
		return err
	}
	if (class == classFloat4 || class == classFloat8) && !h.arith.float {
		return stackViolation("%s is not defined on floating point operands", h.op)
	}

	out := ctx.Out
	switch class {
	case classInt4:
		out.Pop(x86.EAX)
		out.Arith(h.arith.low, x86.Top, x86.EAX)
	case classInt8:
		out.Pop(x86.EAX)
		out.Pop(x86.EDX)
		out.Arith(h.arith.low, x86.Dword(x86.ESP, 0), x86.EAX)
		out.Arith(h.arith.high, x86.Dword(x86.ESP, 4), x86.EDX)
	case classFloat4:
		out.MovSS(x86.XMM0, x86.Top)
		out.Arith(x86.OpAdd, x86.ESP, x86.Imm(4))
		out.MovSS(x86.XMM1, x86.Top)
		out.ArithSS(h.arith.low, x86.XMM1, x86.XMM0)
		out.MovSS(x86.Top, x86.XMM1)
	case classFloat8:
		out.FLoad(x86.Qword(x86.ESP, 8))
		out.FArith(h.arith.low, x86.Qword(x86.ESP, 0))
		out.Arith(x86.OpAdd, x86.ESP, x86.Imm(8))
		out.FStorePop(x86.Qword(x86.ESP, 0))
	}
	return nil
}
