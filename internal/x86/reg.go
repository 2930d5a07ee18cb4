// Package x86 is the code emission layer for the 32-bit x86 target: the
// register set, operand descriptors, condition codes and the Emitter
// vocabulary that opcode handlers use to produce native instructions.
package x86

// Reg is a 32-bit x86 register: general purpose, SSE or x87 stack slot.
type Reg int

const (
	NoReg Reg = iota
	EAX
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
	XMM0
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	ST0
	ST1
	ST2
	ST3
	ST4
	ST5
	ST6
	ST7
)

// Register describes one register of the target.
type Register struct {
	Name     string
	Size     int   // Size in bits
	Encoding uint8 // Encoding for instruction generation
}

var registers = [...]Register{
	NoReg: {Name: "", Size: 0},

	// 32-bit general purpose registers
	EAX: {Name: "eax", Size: 32, Encoding: 0},
	ECX: {Name: "ecx", Size: 32, Encoding: 1},
	EDX: {Name: "edx", Size: 32, Encoding: 2},
	EBX: {Name: "ebx", Size: 32, Encoding: 3},
	ESP: {Name: "esp", Size: 32, Encoding: 4},
	EBP: {Name: "ebp", Size: 32, Encoding: 5},
	ESI: {Name: "esi", Size: 32, Encoding: 6},
	EDI: {Name: "edi", Size: 32, Encoding: 7},

	// SSE XMM registers (only the low scalar lane is used)
	XMM0: {Name: "xmm0", Size: 128, Encoding: 0},
	XMM1: {Name: "xmm1", Size: 128, Encoding: 1},
	XMM2: {Name: "xmm2", Size: 128, Encoding: 2},
	XMM3: {Name: "xmm3", Size: 128, Encoding: 3},
	XMM4: {Name: "xmm4", Size: 128, Encoding: 4},
	XMM5: {Name: "xmm5", Size: 128, Encoding: 5},
	XMM6: {Name: "xmm6", Size: 128, Encoding: 6},
	XMM7: {Name: "xmm7", Size: 128, Encoding: 7},

	// x87 register stack, relative to the current top
	ST0: {Name: "st0", Size: 80, Encoding: 0},
	ST1: {Name: "st1", Size: 80, Encoding: 1},
	ST2: {Name: "st2", Size: 80, Encoding: 2},
	ST3: {Name: "st3", Size: 80, Encoding: 3},
	ST4: {Name: "st4", Size: 80, Encoding: 4},
	ST5: {Name: "st5", Size: 80, Encoding: 5},
	ST6: {Name: "st6", Size: 80, Encoding: 6},
	ST7: {Name: "st7", Size: 80, Encoding: 7},
}

var registersByName = func() map[string]Reg {
	m := make(map[string]Reg, len(registers))
	for r, info := range registers {
		if info.Name != "" {
			m[info.Name] = Reg(r)
		}
	}
	return m
}()

// GetRegister looks up a register by its Intel name, e.g. "esi" or "st1".
func GetRegister(name string) (Reg, bool) {
	r, ok := registersByName[name]
	return r, ok
}

// Info returns the register description.
func (r Reg) Info() Register {
	if r < 0 || int(r) >= len(registers) {
		return Register{}
	}
	return registers[r]
}

func (r Reg) String() string {
	if name := r.Info().Name; name != "" {
		return name
	}
	return "noreg"
}

// IsGeneral reports whether r is one of the eight 32-bit integer registers.
func (r Reg) IsGeneral() bool { return r >= EAX && r <= EDI }

// IsXMM reports whether r is an SSE register.
func (r Reg) IsXMM() bool { return r >= XMM0 && r <= XMM7 }

// IsFPU reports whether r names an x87 stack slot.
func (r Reg) IsFPU() bool { return r >= ST0 && r <= ST7 }
