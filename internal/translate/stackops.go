package translate

import (
	"math"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

func newNop(il.Opcode) Handler {
	return HandlerFunc{Fn: func(*Context) error { return nil }}
}

// slotWords returns how many dwords a single slot occupies on the native
// stack.
func slotWords(ctx *Context) (int, error) {
	ops, err := ctx.Stack.Operands(1)
	if err != nil {
		return 0, err
	}
	return ops[0].StackSize() / 4, nil
}

func newPop(il.Opcode) Handler {
	return HandlerFunc{Pops: 1, Fn: func(ctx *Context) error {
		words, err := slotWords(ctx)
		if err != nil {
			return err
		}
		ctx.Out.Arith(x86.OpAdd, x86.ESP, x86.Imm(4*words))
		return nil
	}}
}

func newDup(il.Opcode) Handler {
	return HandlerFunc{Pops: 1, Pushes: 2, Fn: func(ctx *Context) error {
		words, err := slotWords(ctx)
		if err != nil {
			return err
		}
		// each push shifts the slot down by one dword, so the same
		// displacement walks the source from its high word to its low word
		disp := int32(4 * (words - 1))
		for n := 0; n < words; n++ {
			ctx.Out.Push(x86.Dword(x86.ESP, disp))
		}
		return nil
	}}
}

// loadConst pushes a constant. 64-bit constants are pushed high word first
// so that the low word ends up on top.
type loadConst struct{}

func newLoadConst(il.Opcode) Handler { return loadConst{} }

func (loadConst) Effect() StackEffect { return StackEffect{Pushes: 1} }

func (loadConst) Translate(ctx *Context) error {
	ins := ctx.Instr
	out := ctx.Out
	switch op := ins.Opcode; op {
	case il.LdcI4M1:
		out.Push(x86.Imm(-1))
	case il.LdcI40, il.LdcI41, il.LdcI42, il.LdcI43, il.LdcI44,
		il.LdcI45, il.LdcI46, il.LdcI47, il.LdcI48:
		out.Push(x86.Imm(int64(op - il.LdcI40)))
	case il.LdcI4S:
		out.Push(x86.Imm(int8(ins.Operand)))
	case il.LdcI4:
		out.Push(x86.Imm(int32(ins.Operand)))
	case il.LdcR4:
		out.Push(x86.Imm(int32(uint32(ins.Operand))))
	case il.LdcI8, il.LdcR8:
		v := uint64(ins.Operand)
		out.Push(x86.Imm(int32(uint32(v >> 32))))
		out.Push(x86.Imm(int32(uint32(v))))
	default:
		return &Error{Kind: UnsupportedOpcode, Message: "not a constant load"}
	}
	return nil
}

// Float32Operand encodes f as the inline operand of ldc.r4.
func Float32Operand(f float32) int64 {
	return int64(math.Float32bits(f))
}

// Float64Operand encodes f as the inline operand of ldc.r8.
func Float64Operand(f float64) int64 {
	return int64(math.Float64bits(f))
}
