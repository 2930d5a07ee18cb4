package translate

import (
	"fmt"
	"strings"

	"github.com/xyproto/il2x86/internal/il"
)

// Label names are built only here. A base label is the mangled method name
// followed by ".IL_" and the offset; child labels append "." and an
// alphanumeric discriminator. The mangled name never contains '.', so a base
// label can not be mistaken for a child label of another instruction.

// mangle maps a method identity to an assembler-safe symbol. The mapping is
// injective: letters and digits pass through, '_' becomes "__" and any other
// byte becomes '_' followed by two hex digits.
func mangle(name string) string {
	if name == "" {
		return "_"
	}
	var sb strings.Builder
	sb.Grow(len(name) + 8)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9':
			if i == 0 {
				// symbols may not start with a digit
				fmt.Fprintf(&sb, "_%02X", c)
			} else {
				sb.WriteByte(c)
			}
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			sb.WriteByte(c)
		case c == '_':
			sb.WriteString("__")
		default:
			fmt.Fprintf(&sb, "_%02X", c)
		}
	}
	return sb.String()
}

// Base returns the label of the instruction at addr.
func Base(addr il.Address) string {
	return fmt.Sprintf("%s.IL_%04X", mangle(addr.Method), addr.Offset)
}

// Child returns the auxiliary label named discriminator under base.
// It panics if discriminator is empty or not alphanumeric, since that is a
// handler bug.
func Child(base, discriminator string) string {
	if !isAlphanumeric(discriminator) {
		panic(fmt.Sprintf("translate: invalid label discriminator %q", discriminator))
	}
	return base + "." + discriminator
}

// Next returns the label of the instruction that follows ins.
func Next(ins il.Instruction) string {
	return Base(ins.NextAddress())
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// Labels is the label view handed to a handler for one instruction.
type Labels struct {
	ins il.Instruction
}

// Here is the instruction's own label, defined by the driver.
func (l Labels) Here() string { return Base(l.ins.Addr) }

// Child is an auxiliary label local to the instruction.
func (l Labels) Child(discriminator string) string { return Child(l.Here(), discriminator) }

// Next is the label of the following instruction.
func (l Labels) Next() string { return Next(l.ins) }
