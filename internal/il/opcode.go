// Package il describes the stack bytecode consumed by the translator:
// opcodes, evaluation stack slot types and method bodies.
package il

import (
	"fmt"
	"sort"
)

// Opcode is a bytecode opcode. Two-byte opcodes keep their 0xFE prefix in
// the high byte, as they are encoded in a method body.
type Opcode uint16

const (
	Nop      Opcode = 0x00
	LdcI4M1  Opcode = 0x15
	LdcI40   Opcode = 0x16
	LdcI41   Opcode = 0x17
	LdcI42   Opcode = 0x18
	LdcI43   Opcode = 0x19
	LdcI44   Opcode = 0x1A
	LdcI45   Opcode = 0x1B
	LdcI46   Opcode = 0x1C
	LdcI47   Opcode = 0x1D
	LdcI48   Opcode = 0x1E
	LdcI4S   Opcode = 0x1F
	LdcI4    Opcode = 0x20
	LdcI8    Opcode = 0x21
	LdcR4    Opcode = 0x22
	LdcR8    Opcode = 0x23
	Dup      Opcode = 0x25
	Pop      Opcode = 0x26
	Ret      Opcode = 0x2A
	Br       Opcode = 0x38
	Add      Opcode = 0x58
	Sub      Opcode = 0x59
	Mul      Opcode = 0x5A
	Div      Opcode = 0x5B
	DivUn    Opcode = 0x5C
	Rem      Opcode = 0x5D
	RemUn    Opcode = 0x5E
	And      Opcode = 0x5F
	Or       Opcode = 0x60
	Xor      Opcode = 0x61
	Shl      Opcode = 0x62
	Shr      Opcode = 0x63
	ShrUn    Opcode = 0x64
	Neg      Opcode = 0x65
	Not      Opcode = 0x66
	ConvI4   Opcode = 0x69
	Ceq      Opcode = 0xFE01
	Cgt      Opcode = 0xFE02
	CgtUn    Opcode = 0xFE03
	Clt      Opcode = 0xFE04
	CltUn    Opcode = 0xFE05
	prefixFE Opcode = 0xFE00
)

type opcodeInfo struct {
	name    string
	operand int // inline operand bytes following the opcode
}

var opcodeTable = map[Opcode]opcodeInfo{
	Nop:     {"nop", 0},
	LdcI4M1: {"ldc.i4.m1", 0},
	LdcI40:  {"ldc.i4.0", 0},
	LdcI41:  {"ldc.i4.1", 0},
	LdcI42:  {"ldc.i4.2", 0},
	LdcI43:  {"ldc.i4.3", 0},
	LdcI44:  {"ldc.i4.4", 0},
	LdcI45:  {"ldc.i4.5", 0},
	LdcI46:  {"ldc.i4.6", 0},
	LdcI47:  {"ldc.i4.7", 0},
	LdcI48:  {"ldc.i4.8", 0},
	LdcI4S:  {"ldc.i4.s", 1},
	LdcI4:   {"ldc.i4", 4},
	LdcI8:   {"ldc.i8", 8},
	LdcR4:   {"ldc.r4", 4},
	LdcR8:   {"ldc.r8", 8},
	Dup:     {"dup", 0},
	Pop:     {"pop", 0},
	Ret:     {"ret", 0},
	Br:      {"br", 4},
	Add:     {"add", 0},
	Sub:     {"sub", 0},
	Mul:     {"mul", 0},
	Div:     {"div", 0},
	DivUn:   {"div.un", 0},
	Rem:     {"rem", 0},
	RemUn:   {"rem.un", 0},
	And:     {"and", 0},
	Or:      {"or", 0},
	Xor:     {"xor", 0},
	Shl:     {"shl", 0},
	Shr:     {"shr", 0},
	ShrUn:   {"shr.un", 0},
	Neg:     {"neg", 0},
	Not:     {"not", 0},
	ConvI4:  {"conv.i4", 0},
	Ceq:     {"ceq", 0},
	Cgt:     {"cgt", 0},
	CgtUn:   {"cgt.un", 0},
	Clt:     {"clt", 0},
	CltUn:   {"clt.un", 0},
}

var opcodeByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		m[info.name] = op
	}
	return m
}()

func (op Opcode) String() string {
	if info, ok := opcodeTable[op]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(0x%X)", uint16(op))
}

// Known reports whether op is part of the instruction set this package knows.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Size returns the number of bytes the opcode itself occupies.
func (op Opcode) Size() int {
	if op&0xFF00 == prefixFE {
		return 2
	}
	return 1
}

// OperandSize returns the size of the inline operand, 0 if there is none.
func (op Opcode) OperandSize() int {
	return opcodeTable[op].operand
}

// EncodedSize is the full instruction length: opcode plus inline operand.
func (op Opcode) EncodedSize() int {
	return op.Size() + op.OperandSize()
}

// Lookup finds an opcode by its mnemonic, e.g. "cgt.un".
func Lookup(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// Mnemonics returns every known mnemonic, sorted.
func Mnemonics() []string {
	names := make([]string, 0, len(opcodeByName))
	for name := range opcodeByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
