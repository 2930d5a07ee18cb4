package translate

import (
	"errors"
	"math"
	"testing"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86/x86sim"
)

var arithOps = []il.Opcode{il.Add, il.Sub, il.And, il.Or, il.Xor}

func intOracle(op il.Opcode, a, b uint64) uint64 {
	switch op {
	case il.Add:
		return a + b
	case il.Sub:
		return a - b
	case il.And:
		return a & b
	case il.Or:
		return a | b
	default:
		return a ^ b
	}
}

func TestArithInt32(t *testing.T) {
	values := []uint32{0, 1, 7, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF}
	for _, op := range arithOps {
		for _, a := range values {
			for _, b := range values {
				prog := emitOne(t, op, 0, il.Int32, il.Int32)
				m, before := execute(t, prog, func(m *x86sim.Machine) {
					m.PushU32(a)
					m.PushU32(b)
				})
				want := uint32(intOracle(op, uint64(a), uint64(b)))
				if got := m.TopU32(); got != want {
					t.Errorf("%s %#x, %#x = %#x, want %#x", op, a, b, got, want)
				}
				if m.ESP() != before+4 {
					t.Errorf("%s: stack not reduced by one slot", op)
				}
			}
		}
	}
}

func TestArithInt64(t *testing.T) {
	values := []uint64{0, 1, 0xFFFFFFFF, 1 << 32, 0x8000000000000000, 0xFFFFFFFFFFFFFFFF, 0x123456789ABCDEF0}
	for _, op := range arithOps {
		for _, a := range values {
			for _, b := range values {
				prog := emitOne(t, op, 0, il.Int64, il.Int64)
				m, before := execute(t, prog, func(m *x86sim.Machine) {
					m.PushU64(a)
					m.PushU64(b)
				})
				if got, want := m.TopU64(), intOracle(op, a, b); got != want {
					t.Errorf("%s %#x, %#x = %#x, want %#x", op, a, b, got, want)
				}
				if m.ESP() != before+8 {
					t.Errorf("%s: stack not reduced by one 8-byte slot", op)
				}
			}
		}
	}
}

func TestArithFloat(t *testing.T) {
	pairs := [][2]float64{{1.5, 2.25}, {-3, 0.5}, {1e10, 1}, {0, 0}}
	for _, op := range []il.Opcode{il.Add, il.Sub} {
		for _, p := range pairs {
			a, b := p[0], p[1]
			want := a + b
			if op == il.Sub {
				want = a - b
			}

			prog := emitOne(t, op, 0, il.Float32, il.Float32)
			m, _ := execute(t, prog, func(m *x86sim.Machine) {
				m.PushF32(float32(a))
				m.PushF32(float32(b))
			})
			if got := m.TopF32(); got != float32(want) {
				t.Errorf("%s r4 %v, %v = %v, want %v", op, a, b, got, float32(want))
			}

			prog = emitOne(t, op, 0, il.Float64, il.Float64)
			m, before := execute(t, prog, func(m *x86sim.Machine) {
				m.PushF64(a)
				m.PushF64(b)
			})
			if got := m.TopF64(); got != want {
				t.Errorf("%s r8 %v, %v = %v, want %v", op, a, b, got, want)
			}
			if m.FPUDepth() != 0 || m.ESP() != before+8 {
				t.Errorf("%s r8: x87 depth %d, esp delta %d", op, m.FPUDepth(), m.ESP()-before)
			}
		}
	}

	prog := emitOne(t, il.Add, 0, il.Float64, il.Float64)
	m, _ := execute(t, prog, func(m *x86sim.Machine) {
		m.PushF64(math.Inf(1))
		m.PushF64(math.Inf(-1))
	})
	if !math.IsNaN(m.TopF64()) {
		t.Errorf("inf + -inf = %v, want NaN", m.TopF64())
	}
}

func TestArithErrors(t *testing.T) {
	for _, op := range []il.Opcode{il.And, il.Or, il.Xor} {
		for _, slot := range []il.StackSlot{il.Float32, il.Float64} {
			ins := il.Instruction{Addr: il.Address{Method: "M"}, Next: 1, Opcode: op, Pops: []il.StackSlot{slot, slot}}
			if err := Default().Dispatch(NewContext(ins, nil)); !errors.Is(err, ErrStackModelViolation) {
				t.Errorf("%s on %s: got %v", op, slot, err)
			}
		}
	}

	ins := il.Instruction{Addr: il.Address{Method: "M"}, Next: 1, Opcode: il.Add,
		Pops: []il.StackSlot{{Kind: il.SignedInt, Width: 16}, {Kind: il.SignedInt, Width: 16}}}
	err := Default().Dispatch(NewContext(ins, nil))
	var te *Error
	if !errors.As(err, &te) || te.Kind != UnsupportedOperandWidth || te.Width != 16 {
		t.Errorf("add on 16-byte operands: got %v", err)
	}
}
