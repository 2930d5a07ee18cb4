package translate

import (
	"slices"

	"github.com/samber/lo"

	"github.com/xyproto/il2x86/internal/il"
)

// Registry maps opcodes to handler factories. It is populated at start-up
// and read-only afterwards, so lookups need no locking.
type Registry struct {
	factories map[il.Opcode]HandlerFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[il.Opcode]HandlerFactory)}
}

// Register binds op to f. Binding an opcode twice is a DuplicateRegistration
// error and leaves the first binding in place. A nil factory panics.
func (r *Registry) Register(op il.Opcode, f HandlerFactory) error {
	if f == nil {
		panic("translate: nil handler factory for " + op.String())
	}
	if _, exists := r.factories[op]; exists {
		return &Error{Kind: DuplicateRegistration, Opcode: op}
	}
	r.factories[op] = f
	return nil
}

// MustRegister is Register for start-up tables; it panics on error.
func (r *Registry) MustRegister(op il.Opcode, f HandlerFactory) {
	if err := r.Register(op, f); err != nil {
		panic(err)
	}
}

// Lookup returns a handler for op.
func (r *Registry) Lookup(op il.Opcode) (Handler, bool) {
	f, ok := r.factories[op]
	if !ok {
		return nil, false
	}
	return f(op), true
}

// Opcodes lists the registered opcodes in ascending order.
func (r *Registry) Opcodes() []il.Opcode {
	ops := lo.Keys(r.factories)
	slices.Sort(ops)
	return ops
}

// Dispatch translates ctx's instruction with the registered handler. An
// opcode without a handler fails with UnsupportedOpcode before anything is
// emitted. Errors are stamped with the opcode and address.
func (r *Registry) Dispatch(ctx *Context) error {
	h, ok := r.Lookup(ctx.Opcode())
	if !ok {
		return &Error{Kind: UnsupportedOpcode, Opcode: ctx.Opcode(), Addr: ctx.Instr.Addr}
	}
	if err := h.Translate(ctx); err != nil {
		if te, ok := err.(*Error); ok && !te.located() {
			te.Opcode = ctx.Opcode()
			te.Addr = ctx.Instr.Addr
		}
		return err
	}
	return nil
}

type registration struct {
	op      il.Opcode
	factory HandlerFactory
}

// builtinHandlers is the static opcode table of the default registry.
var builtinHandlers = []registration{
	{il.Nop, newNop},
	{il.Pop, newPop},
	{il.Dup, newDup},

	{il.LdcI4M1, newLoadConst},
	{il.LdcI40, newLoadConst},
	{il.LdcI41, newLoadConst},
	{il.LdcI42, newLoadConst},
	{il.LdcI43, newLoadConst},
	{il.LdcI44, newLoadConst},
	{il.LdcI45, newLoadConst},
	{il.LdcI46, newLoadConst},
	{il.LdcI47, newLoadConst},
	{il.LdcI48, newLoadConst},
	{il.LdcI4S, newLoadConst},
	{il.LdcI4, newLoadConst},
	{il.LdcI8, newLoadConst},
	{il.LdcR4, newLoadConst},
	{il.LdcR8, newLoadConst},

	{il.Add, newArith},
	{il.Sub, newArith},
	{il.And, newArith},
	{il.Or, newArith},
	{il.Xor, newArith},

	{il.Ceq, newCompare},
	{il.Cgt, newCompare},
	{il.CgtUn, newCompare},
	{il.Clt, newCompare},
	{il.CltUn, newCompare},
}

func buildRegistry(table []registration) *Registry {
	r := NewRegistry()
	for _, reg := range table {
		r.MustRegister(reg.op, reg.factory)
	}
	return r
}

// built at package initialisation so a bad table fails before any translation
var defaultRegistry = buildRegistry(builtinHandlers)

// Default returns the process-wide registry of built-in handlers.
func Default() *Registry {
	return defaultRegistry
}
