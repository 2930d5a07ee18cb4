package il

import (
	"fmt"
	"math"
)

// Address identifies one instruction in the whole program.
type Address struct {
	Method string
	Offset uint32
}

func (a Address) String() string {
	return fmt.Sprintf("%s+IL_%04X", a.Method, a.Offset)
}

// Instruction is one decoded bytecode instruction together with the stack
// types it pops, top of stack first.
type Instruction struct {
	Addr    Address
	Next    uint32 // offset of the following instruction
	Opcode  Opcode
	Operand int64 // raw inline operand; float constants hold their IEEE bits
	Pops    []StackSlot
}

// NextAddress is the address of the instruction that follows in program order.
func (ins Instruction) NextAddress() Address {
	return Address{Method: ins.Addr.Method, Offset: ins.Next}
}

func (ins Instruction) String() string {
	switch ins.Opcode {
	case LdcR4:
		return fmt.Sprintf("IL_%04X: %s %g", ins.Addr.Offset, ins.Opcode, math.Float32frombits(uint32(ins.Operand)))
	case LdcR8:
		return fmt.Sprintf("IL_%04X: %s %g", ins.Addr.Offset, ins.Opcode, math.Float64frombits(uint64(ins.Operand)))
	}
	if ins.Opcode.OperandSize() > 0 {
		return fmt.Sprintf("IL_%04X: %s %d", ins.Addr.Offset, ins.Opcode, ins.Operand)
	}
	return fmt.Sprintf("IL_%04X: %s", ins.Addr.Offset, ins.Opcode)
}

// Method is a method body in program order.
type Method struct {
	Name         string
	Instructions []Instruction
}

// NewMethod binds the instructions to the method and resolves each
// instruction's successor offset. Offsets must be strictly increasing; the
// last instruction's successor is derived from its encoded size.
func NewMethod(name string, body []Instruction) (Method, error) {
	m := Method{Name: name, Instructions: make([]Instruction, len(body))}
	copy(m.Instructions, body)
	for i := range m.Instructions {
		ins := &m.Instructions[i]
		ins.Addr.Method = name
		if i+1 < len(m.Instructions) {
			next := m.Instructions[i+1].Addr.Offset
			if next <= ins.Addr.Offset {
				return Method{}, fmt.Errorf("%s: offset IL_%04X does not follow IL_%04X", name, next, ins.Addr.Offset)
			}
			ins.Next = next
			continue
		}
		ins.Next = ins.Addr.Offset + uint32(ins.Opcode.EncodedSize())
	}
	return m, nil
}

// End is the offset just past the last instruction.
func (m Method) End() uint32 {
	if len(m.Instructions) == 0 {
		return 0
	}
	return m.Instructions[len(m.Instructions)-1].Next
}
