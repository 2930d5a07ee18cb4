package translate

import (
	"testing"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
	"github.com/xyproto/il2x86/internal/x86/x86sim"
)

// emitOne translates a single instruction and defines its fallthrough label.
func emitOne(t *testing.T, op il.Opcode, operand int64, pops ...il.StackSlot) *x86.Program {
	t.Helper()
	ins := il.Instruction{
		Addr:    il.Address{Method: "Test", Offset: 0},
		Next:    uint32(op.EncodedSize()),
		Opcode:  op,
		Operand: operand,
		Pops:    pops,
	}
	prog := x86.NewProgram()
	if err := Default().Dispatch(NewContext(ins, prog)); err != nil {
		t.Fatalf("%s %v: %v", op, pops, err)
	}
	prog.Label(Next(ins))
	if err := prog.Validate(); err != nil {
		t.Fatalf("%s: %v", op, err)
	}
	return prog
}

// execute runs prog on a fresh machine prepared by setup and returns the
// machine together with the stack pointer before the run.
func execute(t *testing.T, prog *x86.Program, setup func(m *x86sim.Machine)) (*x86sim.Machine, uint32) {
	t.Helper()
	m := x86sim.New(256)
	setup(m)
	before := m.ESP()
	if err := m.Run(prog.Instructions()); err != nil {
		t.Fatalf("run failed: %v\n%s", err, prog)
	}
	return m, before
}
