package translate

import (
	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

// StackEffect is the declared arity of an opcode: it pops Pops slots and
// pushes Pushes slots.
type StackEffect struct {
	Pops   int
	Pushes int
}

// Net is the change in stack depth.
func (e StackEffect) Net() int {
	return e.Pushes - e.Pops
}

// Handler translates one opcode. Translate emits native instructions through
// ctx.Out and must leave the native stack in the state implied by Effect.
// Handlers validate their operands before emitting anything.
type Handler interface {
	Effect() StackEffect
	Translate(ctx *Context) error
}

// HandlerFactory creates the handler for op. One factory may serve several
// opcodes of a family.
type HandlerFactory func(op il.Opcode) Handler

// Context is everything a handler sees while translating one instruction.
type Context struct {
	Method string
	Instr  il.Instruction
	Stack  Stack
	Labels Labels
	Out    x86.Emitter
}

// NewContext builds the context for ins, emitting into out.
func NewContext(ins il.Instruction, out x86.Emitter) *Context {
	return &Context{
		Method: ins.Addr.Method,
		Instr:  ins,
		Stack:  NewStack(ins.Pops),
		Labels: Labels{ins: ins},
		Out:    out,
	}
}

// Opcode is the opcode under translation.
func (ctx *Context) Opcode() il.Opcode {
	return ctx.Instr.Opcode
}

// HandlerFunc adapts a function with a fixed stack effect to Handler.
type HandlerFunc struct {
	Pops, Pushes int
	Fn           func(ctx *Context) error
}

func (h HandlerFunc) Effect() StackEffect { return StackEffect{Pops: h.Pops, Pushes: h.Pushes} }

func (h HandlerFunc) Translate(ctx *Context) error { return h.Fn(ctx) }
