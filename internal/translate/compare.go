package translate

import (
	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

// widthClass is the operand layout a two-operand handler works on.
type widthClass int

const (
	classInt4 widthClass = iota
	classFloat4
	classInt8
	classFloat8
)

func (c widthClass) String() string {
	switch c {
	case classInt4:
		return "32-bit integer"
	case classFloat4:
		return "32-bit float"
	case classInt8:
		return "64-bit integer"
	default:
		return "64-bit float"
	}
}

// classify expects a slot already checked by Stack.Operands.
func classify(slot il.StackSlot) (widthClass, error) {
	switch {
	case slot.Kind == il.ValueStruct:
		return 0, stackViolation("value type %s is not a primitive operand", slot)
	case slot.Width > 4 && slot.IsFloat():
		return classFloat8, nil
	case slot.Width > 4:
		return classInt8, nil
	case slot.IsFloat():
		return classFloat4, nil
	default:
		return classInt4, nil
	}
}

// binaryOperands selects the layout of a two-operand instruction once, from
// the right (top) and left slots. Both operands must share a layout.
func binaryOperands(ctx *Context) (widthClass, error) {
	ops, err := ctx.Stack.Operands(2)
	if err != nil {
		return 0, err
	}
	right, left := ops[0], ops[1]
	rc, err := classify(right)
	if err != nil {
		return 0, err
	}
	lc, err := classify(left)
	if err != nil {
		return 0, err
	}
	if rc != lc {
		return 0, stackViolation("operands %s and %s do not share a layout (%s vs %s)", left, right, lc, rc)
	}
	return rc, nil
}

// comparison describes one relational opcode for every layout.
type comparison struct {
	// integer condition of left against right; also decides 64-bit high words
	intCond x86.Cond
	// 64-bit integers: with earlyTrue, high words satisfying intCond decide
	// true; high words satisfying hiFalse decide false; otherwise lowTrue on
	// the unsigned low words decides
	earlyTrue bool
	hiFalse   x86.Cond
	lowTrue   x86.Cond
	// 32-bit floats: cmpss dst, src, pred with right in xmm0 and left in xmm1
	ssDst, ssSrc x86.Reg
	ssPred       x86.FloatPredicate
	// 64-bit floats: fcomi st0 (right), st1 (left) then cmov on fpCond;
	// unordered selects the result for NaN operands
	fpCond    x86.Cond
	unordered bool
}

var comparisons = map[il.Opcode]comparison{
	il.Ceq: {
		intCond: x86.CondEqual, hiFalse: x86.CondNotEqual, lowTrue: x86.CondEqual,
		ssDst: x86.XMM1, ssSrc: x86.XMM0, ssPred: x86.PredEqual,
		fpCond: x86.CondEqual,
	},
	il.Cgt: {
		intCond: x86.CondGreater, earlyTrue: true, hiFalse: x86.CondLess, lowTrue: x86.CondAbove,
		ssDst: x86.XMM0, ssSrc: x86.XMM1, ssPred: x86.PredLess,
		fpCond: x86.CondBelow,
	},
	il.CgtUn: {
		intCond: x86.CondAbove, earlyTrue: true, hiFalse: x86.CondBelow, lowTrue: x86.CondAbove,
		ssDst: x86.XMM1, ssSrc: x86.XMM0, ssPred: x86.PredNotLessOrEqual,
		fpCond: x86.CondBelow, unordered: true,
	},
	il.Clt: {
		intCond: x86.CondLess, earlyTrue: true, hiFalse: x86.CondGreater, lowTrue: x86.CondBelow,
		ssDst: x86.XMM1, ssSrc: x86.XMM0, ssPred: x86.PredLess,
		fpCond: x86.CondAbove,
	},
	il.CltUn: {
		intCond: x86.CondBelow, earlyTrue: true, hiFalse: x86.CondAbove, lowTrue: x86.CondBelow,
		ssDst: x86.XMM0, ssSrc: x86.XMM1, ssPred: x86.PredNotLessOrEqual,
		fpCond: x86.CondAbove, unordered: true,
	},
}

// compareHandler translates ceq, cgt, cgt.un, clt and clt.un. The two
// operands are replaced by a 4-byte 0 or 1.
type compareHandler struct {
	cmp comparison
}

func newCompare(op il.Opcode) Handler {
	return compareHandler{cmp: comparisons[op]}
}

func (compareHandler) Effect() StackEffect { return StackEffect{Pops: 2, Pushes: 1} }

func (h compareHandler) Translate(ctx *Context) error {
	class, err := binaryOperands(ctx)
	if err != nil {
		return err
	}
	switch class {
	case classInt4:
		h.int4(ctx)
	case classFloat4:
		h.float4(ctx)
	case classInt8:
		h.int8(ctx)
	case classFloat8:
		h.float8(ctx)
	}
	return nil
}

func (h compareHandler) int4(ctx *Context) {
	out := ctx.Out
	isTrue := ctx.Labels.Child("True")

	out.Pop(x86.EAX)
	out.Cmp(x86.Top, x86.EAX)
	out.JumpIf(h.cmp.intCond, isTrue)
	out.Mov(x86.Top, x86.Imm(0))
	out.Jump(ctx.Labels.Next())
	out.Label(isTrue)
	out.Mov(x86.Top, x86.Imm(1))
}

func (h compareHandler) float4(ctx *Context) {
	out := ctx.Out
	out.MovSS(x86.XMM0, x86.Top)
	out.Arith(x86.OpAdd, x86.ESP, x86.Imm(4))
	out.MovSS(x86.XMM1, x86.Top)
	out.CmpSS(h.cmp.ssDst, h.cmp.ssSrc, h.cmp.ssPred)
	out.MovD(x86.EBX, h.cmp.ssDst)
	out.Arith(x86.OpAnd, x86.EBX, x86.Imm(1))
	out.Mov(x86.Top, x86.EBX)
}

// int8 compares edx:eax (right) with ecx:ebx (left), high words first.
func (h compareHandler) int8(ctx *Context) {
	out := ctx.Out
	isTrue := ctx.Labels.Child("True")
	isFalse := ctx.Labels.Child("False")

	out.Pop(x86.EAX)
	out.Pop(x86.EDX)
	out.Pop(x86.EBX)
	out.Pop(x86.ECX)
	out.Cmp(x86.ECX, x86.EDX)
	if h.cmp.earlyTrue {
		out.JumpIf(h.cmp.intCond, isTrue)
	}
	out.JumpIf(h.cmp.hiFalse, isFalse)
	out.Cmp(x86.EBX, x86.EAX)
	out.JumpIf(h.cmp.lowTrue, isTrue)
	out.Label(isFalse)
	out.Push(x86.Imm(0))
	out.Jump(ctx.Labels.Next())
	out.Label(isTrue)
	out.Push(x86.Imm(1))
}

// float8 leaves the x87 stack as it found it on every path.
func (h compareHandler) float8(ctx *Context) {
	out := ctx.Out
	out.Mov(x86.ESI, x86.Imm(1))
	out.Arith(x86.OpXor, x86.EDI, x86.EDI)
	out.Arith(x86.OpXor, x86.ECX, x86.ECX)
	out.FLoad(x86.Qword(x86.ESP, 8))
	out.FLoad(x86.Qword(x86.ESP, 0))
	out.FCompare(x86.ST1)
	out.CMov(h.cmp.fpCond, x86.EDI, x86.ESI)
	if h.cmp.unordered {
		out.CMov(x86.CondParity, x86.EDI, x86.ESI)
	} else {
		out.CMov(x86.CondParity, x86.EDI, x86.ECX)
	}
	out.FStorePop(x86.ST0)
	out.FStorePop(x86.ST0)
	out.Arith(x86.OpAdd, x86.ESP, x86.Imm(16))
	out.Push(x86.EDI)
}
