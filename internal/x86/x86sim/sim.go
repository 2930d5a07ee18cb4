// Package x86sim executes recorded x86 programs on a small software model of
// the 32-bit target: general purpose registers, EFLAGS, the low lane of the
// SSE registers, the x87 register stack and a flat stack segment.
//
// It exists to check the behaviour of translated code without an assembler
// or a real machine, so it only knows the instruction forms x86.Emitter can
// produce.
package x86sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/xyproto/il2x86/internal/x86"
)

const (
	stackBase   = 0x00100000
	fpuCapacity = 8
)

var (
	ErrStepLimit   = errors.New("step limit exceeded")
	ErrFPUOverflow = errors.New("x87 stack overflow")
	ErrFPUEmpty    = errors.New("x87 stack underflow")
)

// Machine is the simulated processor state.
type Machine struct {
	gpr [8]uint32
	xmm [8]uint32
	fpu []float64 // top of the x87 stack is the last element

	cf, zf, sf, of, pf bool

	mem []byte

	// MaxSteps bounds the number of executed instructions per Run
	MaxSteps int
}

// New creates a machine with a stack segment of the given size and ESP
// pointing just past its end.
func New(stackSize int) *Machine {
	m := &Machine{
		mem:      make([]byte, stackSize),
		MaxSteps: 10000,
	}
	m.gpr[gprIndex(x86.ESP)] = stackBase + uint32(stackSize)
	return m
}

func gprIndex(r x86.Reg) int {
	return int(r - x86.EAX)
}

// Reg returns the value of a general purpose register.
func (m *Machine) Reg(r x86.Reg) uint32 {
	return m.gpr[gprIndex(r)]
}

// SetReg sets a general purpose register.
func (m *Machine) SetReg(r x86.Reg, v uint32) {
	m.gpr[gprIndex(r)] = v
}

// ESP returns the stack pointer.
func (m *Machine) ESP() uint32 {
	return m.Reg(x86.ESP)
}

// FPUDepth returns the number of values on the x87 register stack.
func (m *Machine) FPUDepth() int {
	return len(m.fpu)
}

// PushU32 pushes a 32-bit value on the native stack.
func (m *Machine) PushU32(v uint32) {
	esp := m.ESP() - 4
	m.SetReg(x86.ESP, esp)
	if err := m.store(esp, 4, uint64(v)); err != nil {
		panic(err)
	}
}

// PushU64 pushes a 64-bit value as two dwords, low word ending up on top.
func (m *Machine) PushU64(v uint64) {
	m.PushU32(uint32(v >> 32))
	m.PushU32(uint32(v))
}

// PushF32 pushes the IEEE bits of a float32.
func (m *Machine) PushF32(f float32) {
	m.PushU32(math.Float32bits(f))
}

// PushF64 pushes the IEEE bits of a float64.
func (m *Machine) PushF64(f float64) {
	m.PushU64(math.Float64bits(f))
}

// TopU32 reads the dword at the top of the native stack.
func (m *Machine) TopU32() uint32 {
	v, err := m.load(m.ESP(), 4)
	if err != nil {
		panic(err)
	}
	return uint32(v)
}

// TopU64 reads the qword at the top of the native stack.
func (m *Machine) TopU64() uint64 {
	v, err := m.load(m.ESP(), 8)
	if err != nil {
		panic(err)
	}
	return v
}

// TopF32 reads the top of the native stack as a float32.
func (m *Machine) TopF32() float32 {
	return math.Float32frombits(m.TopU32())
}

// TopF64 reads the top of the native stack as a float64.
func (m *Machine) TopF64() float64 {
	return math.Float64frombits(m.TopU64())
}

func (m *Machine) offset(addr uint32, size int) (int, error) {
	off := int64(addr) - stackBase
	if off < 0 || off+int64(size) > int64(len(m.mem)) {
		return 0, fmt.Errorf("memory access at 0x%x (%d bytes) outside the stack segment", addr, size)
	}
	return int(off), nil
}

func (m *Machine) load(addr uint32, size int) (uint64, error) {
	off, err := m.offset(addr, size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 4:
		return uint64(binary.LittleEndian.Uint32(m.mem[off:])), nil
	case 8:
		return binary.LittleEndian.Uint64(m.mem[off:]), nil
	}
	return 0, fmt.Errorf("unsupported access size %d", size)
}

func (m *Machine) store(addr uint32, size int, v uint64) error {
	off, err := m.offset(addr, size)
	if err != nil {
		return err
	}
	switch size {
	case 4:
		binary.LittleEndian.PutUint32(m.mem[off:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(m.mem[off:], v)
	default:
		return fmt.Errorf("unsupported access size %d", size)
	}
	return nil
}

func (m *Machine) address(mem x86.Mem) uint32 {
	return m.Reg(mem.Base) + uint32(mem.Disp)
}

// read32 evaluates an integer operand.
func (m *Machine) read32(o x86.Operand) (uint32, error) {
	switch v := o.(type) {
	case x86.Reg:
		if !v.IsGeneral() {
			return 0, fmt.Errorf("%s is not a general purpose register", v)
		}
		return m.Reg(v), nil
	case x86.Imm:
		return uint32(v), nil
	case x86.Mem:
		x, err := m.load(m.address(v), 4)
		return uint32(x), err
	}
	return 0, fmt.Errorf("unsupported operand %v", o)
}

func (m *Machine) write32(o x86.Operand, val uint32) error {
	switch v := o.(type) {
	case x86.Reg:
		if !v.IsGeneral() {
			return fmt.Errorf("%s is not a general purpose register", v)
		}
		m.SetReg(v, val)
		return nil
	case x86.Mem:
		return m.store(m.address(v), 4, uint64(val))
	}
	return fmt.Errorf("cannot write to operand %v", o)
}

func (m *Machine) setResultFlags(res uint32) {
	m.zf = res == 0
	m.sf = res&0x80000000 != 0
	m.pf = bits.OnesCount8(uint8(res))%2 == 0
}

func (m *Machine) arith(op x86.ArithOp, a, b uint32) uint32 {
	var res uint32
	switch op {
	case x86.OpAdd, x86.OpAdc:
		carry := uint64(0)
		if op == x86.OpAdc && m.cf {
			carry = 1
		}
		wide := uint64(a) + uint64(b) + carry
		res = uint32(wide)
		m.cf = wide > math.MaxUint32
		m.of = (^(a ^ b) & (a ^ res) & 0x80000000) != 0
	case x86.OpSub, x86.OpSbb:
		borrow := uint64(0)
		if op == x86.OpSbb && m.cf {
			borrow = 1
		}
		res = a - b - uint32(borrow)
		m.cf = uint64(a) < uint64(b)+borrow
		m.of = ((a ^ b) & (a ^ res) & 0x80000000) != 0
	case x86.OpAnd, x86.OpOr, x86.OpXor:
		switch op {
		case x86.OpAnd:
			res = a & b
		case x86.OpOr:
			res = a | b
		default:
			res = a ^ b
		}
		m.cf, m.of = false, false
	}
	m.setResultFlags(res)
	return res
}

// Holds evaluates a condition code against the current flags.
func (m *Machine) Holds(c x86.Cond) bool {
	switch c {
	case x86.CondEqual:
		return m.zf
	case x86.CondNotEqual:
		return !m.zf
	case x86.CondGreater:
		return !m.zf && m.sf == m.of
	case x86.CondGreaterOrEqual:
		return m.sf == m.of
	case x86.CondLess:
		return m.sf != m.of
	case x86.CondLessOrEqual:
		return m.zf || m.sf != m.of
	case x86.CondAbove:
		return !m.cf && !m.zf
	case x86.CondAboveOrEqual:
		return !m.cf
	case x86.CondBelow:
		return m.cf
	case x86.CondBelowOrEqual:
		return m.cf || m.zf
	case x86.CondParity:
		return m.pf
	case x86.CondNotParity:
		return !m.pf
	}
	return false
}

func (m *Machine) fpuPush(v float64) error {
	if len(m.fpu) == fpuCapacity {
		return ErrFPUOverflow
	}
	m.fpu = append(m.fpu, v)
	return nil
}

func (m *Machine) fpuAt(st x86.Reg) (int, error) {
	if !st.IsFPU() {
		return 0, fmt.Errorf("%s is not an x87 register", st)
	}
	i := len(m.fpu) - 1 - int(st.Info().Encoding)
	if i < 0 {
		return 0, ErrFPUEmpty
	}
	return i, nil
}

func (m *Machine) fpuPop() error {
	if len(m.fpu) == 0 {
		return ErrFPUEmpty
	}
	m.fpu = m.fpu[:len(m.fpu)-1]
	return nil
}

func (m *Machine) loadFloat(mem x86.Mem) (float64, error) {
	raw, err := m.load(m.address(mem), mem.Size)
	if err != nil {
		return 0, err
	}
	if mem.Size == 4 {
		return float64(math.Float32frombits(uint32(raw))), nil
	}
	return math.Float64frombits(raw), nil
}

func (m *Machine) xmmIndex(r x86.Reg) (int, error) {
	if !r.IsXMM() {
		return 0, fmt.Errorf("%s is not an SSE register", r)
	}
	return int(r - x86.XMM0), nil
}

func comparePredicate(p x86.FloatPredicate, a, b float32) bool {
	unordered := math.IsNaN(float64(a)) || math.IsNaN(float64(b))
	switch p {
	case x86.PredEqual:
		return a == b
	case x86.PredLess:
		return a < b
	case x86.PredLessOrEqual:
		return a <= b
	case x86.PredUnordered:
		return unordered
	case x86.PredNotEqual:
		return !(a == b)
	case x86.PredNotLess:
		return !(a < b)
	case x86.PredNotLessOrEqual:
		return !(a <= b)
	default:
		return !unordered
	}
}

// Run executes the program from its first instruction until control falls
// off the end.
func (m *Machine) Run(prog []x86.Instr) error {
	labels := make(map[string]int)
	for i, in := range prog {
		if in.Kind == x86.KindLabel {
			labels[in.Label] = i
		}
	}

	steps := 0
	for pc := 0; pc < len(prog); {
		steps++
		if steps > m.MaxSteps {
			return ErrStepLimit
		}
		in := prog[pc]
		pc++

		var err error
		switch in.Kind {
		case x86.KindLabel, x86.KindComment:
		case x86.KindJump, x86.KindJumpIf:
			if in.Kind == x86.KindJumpIf && !m.Holds(in.Cond) {
				break
			}
			target, ok := labels[in.Label]
			if !ok {
				return fmt.Errorf("jump to undefined label %s", in.Label)
			}
			pc = target
		default:
			err = m.step(in)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	}
	return nil
}

func (m *Machine) step(in x86.Instr) error {
	switch in.Kind {
	case x86.KindMov:
		v, err := m.read32(in.Src)
		if err != nil {
			return err
		}
		return m.write32(in.Dst, v)

	case x86.KindPush:
		v, err := m.read32(in.Src)
		if err != nil {
			return err
		}
		esp := m.ESP() - 4
		m.SetReg(x86.ESP, esp)
		return m.store(esp, 4, uint64(v))

	case x86.KindPop:
		v, err := m.load(m.ESP(), 4)
		if err != nil {
			return err
		}
		m.SetReg(x86.ESP, m.ESP()+4)
		return m.write32(in.Dst, uint32(v))

	case x86.KindArith:
		a, err := m.read32(in.Dst)
		if err != nil {
			return err
		}
		b, err := m.read32(in.Src)
		if err != nil {
			return err
		}
		return m.write32(in.Dst, m.arith(in.Op, a, b))

	case x86.KindCmp:
		a, err := m.read32(in.Dst)
		if err != nil {
			return err
		}
		b, err := m.read32(in.Src)
		if err != nil {
			return err
		}
		m.arith(x86.OpSub, a, b)
		return nil

	case x86.KindCMov:
		if !m.Holds(in.Cond) {
			return nil
		}
		v, err := m.read32(in.Src)
		if err != nil {
			return err
		}
		return m.write32(in.Dst, v)

	case x86.KindMovSS:
		return m.movss(in)

	case x86.KindCmpSS:
		di, err := m.xmmIndex(in.Dst.(x86.Reg))
		if err != nil {
			return err
		}
		si, err := m.xmmIndex(in.Src.(x86.Reg))
		if err != nil {
			return err
		}
		a := math.Float32frombits(m.xmm[di])
		b := math.Float32frombits(m.xmm[si])
		if comparePredicate(in.Pred, a, b) {
			m.xmm[di] = 0xFFFFFFFF
		} else {
			m.xmm[di] = 0
		}
		return nil

	case x86.KindArithSS:
		di, err := m.xmmIndex(in.Dst.(x86.Reg))
		if err != nil {
			return err
		}
		si, err := m.xmmIndex(in.Src.(x86.Reg))
		if err != nil {
			return err
		}
		a := math.Float32frombits(m.xmm[di])
		b := math.Float32frombits(m.xmm[si])
		switch in.Op {
		case x86.OpAdd:
			m.xmm[di] = math.Float32bits(a + b)
		case x86.OpSub:
			m.xmm[di] = math.Float32bits(a - b)
		default:
			return fmt.Errorf("no scalar SSE form of %s", in.Op)
		}
		return nil

	case x86.KindMovD:
		dst, src := in.Dst.(x86.Reg), in.Src.(x86.Reg)
		switch {
		case dst.IsGeneral() && src.IsXMM():
			m.SetReg(dst, m.xmm[src-x86.XMM0])
		case dst.IsXMM() && src.IsGeneral():
			m.xmm[dst-x86.XMM0] = m.Reg(src)
		default:
			return fmt.Errorf("movd %s, %s", dst, src)
		}
		return nil

	case x86.KindFLoad:
		v, err := m.loadFloat(in.Src.(x86.Mem))
		if err != nil {
			return err
		}
		return m.fpuPush(v)

	case x86.KindFCompare:
		if len(m.fpu) == 0 {
			return ErrFPUEmpty
		}
		i, err := m.fpuAt(in.Src.(x86.Reg))
		if err != nil {
			return err
		}
		a, b := m.fpu[len(m.fpu)-1], m.fpu[i]
		m.of, m.sf = false, false
		switch {
		case math.IsNaN(a) || math.IsNaN(b):
			m.zf, m.pf, m.cf = true, true, true
		case a > b:
			m.zf, m.pf, m.cf = false, false, false
		case a < b:
			m.zf, m.pf, m.cf = false, false, true
		default:
			m.zf, m.pf, m.cf = true, false, false
		}
		return nil

	case x86.KindFArith:
		if len(m.fpu) == 0 {
			return ErrFPUEmpty
		}
		v, err := m.loadFloat(in.Src.(x86.Mem))
		if err != nil {
			return err
		}
		top := len(m.fpu) - 1
		switch in.Op {
		case x86.OpAdd:
			m.fpu[top] += v
		case x86.OpSub:
			m.fpu[top] -= v
		default:
			return fmt.Errorf("no x87 form of %s", in.Op)
		}
		return nil

	case x86.KindFStorePop:
		if len(m.fpu) == 0 {
			return ErrFPUEmpty
		}
		top := m.fpu[len(m.fpu)-1]
		switch dst := in.Dst.(type) {
		case x86.Reg:
			i, err := m.fpuAt(dst)
			if err != nil {
				return err
			}
			m.fpu[i] = top
		case x86.Mem:
			var raw uint64
			if dst.Size == 4 {
				raw = uint64(math.Float32bits(float32(top)))
			} else {
				raw = math.Float64bits(top)
			}
			if err := m.store(m.address(dst), dst.Size, raw); err != nil {
				return err
			}
		}
		return m.fpuPop()
	}
	return fmt.Errorf("unsupported instruction kind %d", in.Kind)
}

func (m *Machine) movss(in x86.Instr) error {
	switch dst := in.Dst.(type) {
	case x86.Reg:
		di, err := m.xmmIndex(dst)
		if err != nil {
			return err
		}
		switch src := in.Src.(type) {
		case x86.Reg:
			si, err := m.xmmIndex(src)
			if err != nil {
				return err
			}
			m.xmm[di] = m.xmm[si]
		case x86.Mem:
			v, err := m.load(m.address(src), 4)
			if err != nil {
				return err
			}
			m.xmm[di] = uint32(v)
		default:
			return fmt.Errorf("movss from %v", in.Src)
		}
		return nil
	case x86.Mem:
		src, ok := in.Src.(x86.Reg)
		if !ok {
			return fmt.Errorf("movss to memory needs a register source")
		}
		si, err := m.xmmIndex(src)
		if err != nil {
			return err
		}
		return m.store(m.address(dst), 4, uint64(m.xmm[si]))
	}
	return fmt.Errorf("movss to %v", in.Dst)
}
