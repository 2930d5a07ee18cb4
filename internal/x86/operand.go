package x86

import "fmt"

// Operand is a register, an immediate or a memory reference.
type Operand interface {
	isOperand()
}

// Imm is an immediate operand.
type Imm int64

// Mem is a base+displacement memory operand. Size is the access width in
// bytes and is required whenever no register operand implies it.
type Mem struct {
	Base Reg
	Disp int32
	Size int
}

func (Reg) isOperand() {}
func (Imm) isOperand() {}
func (Mem) isOperand() {}

// Dword is a 4-byte memory operand.
func Dword(base Reg, disp int32) Mem { return Mem{Base: base, Disp: disp, Size: 4} }

// Qword is an 8-byte memory operand.
func Qword(base Reg, disp int32) Mem { return Mem{Base: base, Disp: disp, Size: 8} }

// Top is the dword at the top of the native stack.
var Top = Dword(ESP, 0)

func (m Mem) String() string {
	return intelMem(m)
}

func (i Imm) String() string {
	return fmt.Sprintf("%d", int64(i))
}
