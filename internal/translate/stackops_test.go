package translate

import (
	"errors"
	"math"
	"testing"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
	"github.com/xyproto/il2x86/internal/x86/x86sim"
)

func TestLoadConstants(t *testing.T) {
	tests := []struct {
		op      il.Opcode
		operand int64
		want    uint32
	}{
		{il.LdcI4M1, 0, 0xFFFFFFFF},
		{il.LdcI40, 0, 0},
		{il.LdcI45, 0, 5},
		{il.LdcI48, 0, 8},
		{il.LdcI4S, -2, 0xFFFFFFFE},
		{il.LdcI4S, 0x7F, 0x7F},
		{il.LdcI4, 123456, 123456},
		{il.LdcI4, -1, 0xFFFFFFFF},
		{il.LdcR4, Float32Operand(1.5), math.Float32bits(1.5)},
	}
	for _, tt := range tests {
		prog := emitOne(t, tt.op, tt.operand)
		m, before := execute(t, prog, func(*x86sim.Machine) {})
		if got := m.TopU32(); got != tt.want {
			t.Errorf("%s %d pushed %#x, want %#x", tt.op, tt.operand, got, tt.want)
		}
		if before-m.ESP() != 4 {
			t.Errorf("%s pushed %d bytes", tt.op, before-m.ESP())
		}
	}

	for _, tt := range []struct {
		op      il.Opcode
		operand int64
		want    uint64
	}{
		{il.LdcI8, -2, 0xFFFFFFFFFFFFFFFE},
		{il.LdcI8, 0x123456789A, 0x123456789A},
		{il.LdcR8, Float64Operand(-0.25), math.Float64bits(-0.25)},
	} {
		prog := emitOne(t, tt.op, tt.operand)
		m, before := execute(t, prog, func(*x86sim.Machine) {})
		if got := m.TopU64(); got != tt.want {
			t.Errorf("%s pushed %#x, want %#x", tt.op, got, tt.want)
		}
		if before-m.ESP() != 8 {
			t.Errorf("%s pushed %d bytes", tt.op, before-m.ESP())
		}
	}
}

func TestDupAndPop(t *testing.T) {
	prog := emitOne(t, il.Dup, 0, il.Int64)
	m, before := execute(t, prog, func(m *x86sim.Machine) { m.PushU64(0x1122334455667788) })
	if before-m.ESP() != 8 {
		t.Fatalf("dup i8 grew the stack by %d bytes", before-m.ESP())
	}
	if m.TopU64() != 0x1122334455667788 {
		t.Errorf("dup i8 top = %#x", m.TopU64())
	}

	prog = emitOne(t, il.Dup, 0, il.Int32)
	m, _ = execute(t, prog, func(m *x86sim.Machine) { m.PushU32(42) })
	if m.TopU32() != 42 {
		t.Errorf("dup i4 top = %d", m.TopU32())
	}

	prog = emitOne(t, il.Pop, 0, il.Float64)
	m, before = execute(t, prog, func(m *x86sim.Machine) { m.PushU32(7); m.PushF64(1) })
	if m.ESP()-before != 8 || m.TopU32() != 7 {
		t.Errorf("pop r8 left esp delta %d, top %d", m.ESP()-before, m.TopU32())
	}

	prog = emitOne(t, il.Nop, 0)
	if prog.Len() != 1 {
		t.Errorf("nop emitted %d instructions besides the label", prog.Len()-1)
	}

	ins := il.Instruction{Addr: il.Address{Method: "M"}, Next: 1, Opcode: il.Pop}
	if err := Default().Dispatch(NewContext(ins, nil)); !errors.Is(err, ErrStackModelViolation) {
		t.Errorf("pop without a slot: %v", err)
	}

	for _, op := range []il.Opcode{il.Pop, il.Dup} {
		ins := il.Instruction{Addr: il.Address{Method: "M"}, Next: 1, Opcode: op,
			Pops: []il.StackSlot{{Kind: il.ValueStruct, Width: 6}}}
		prog := x86.NewProgram()
		err := Default().Dispatch(NewContext(ins, prog))
		var te *Error
		if !errors.As(err, &te) || te.Kind != UnsupportedOperandWidth || te.Width != 6 {
			t.Errorf("%s vt:6: got %v, want unsupported operand width 6", op, err)
		}
		if prog.Len() != 0 {
			t.Errorf("%s vt:6 emitted %d instructions", op, prog.Len())
		}
	}
}
