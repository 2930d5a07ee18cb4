package il

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic kind of a value on the evaluation stack.
type Kind int

const (
	SignedInt Kind = iota
	UnsignedInt
	Float
	Reference
	ValueStruct
)

func (k Kind) String() string {
	switch k {
	case SignedInt:
		return "signed"
	case UnsignedInt:
		return "unsigned"
	case Float:
		return "float"
	case Reference:
		return "reference"
	case ValueStruct:
		return "valuetype"
	default:
		return "unknown"
	}
}

// PointerSize is the width of references and native ints on the target.
const PointerSize = 4

// StackSlot describes one value on the evaluation stack, as computed by the
// type-flow analysis that runs before translation.
type StackSlot struct {
	Kind  Kind
	Width int // bytes
}

// Common slot types.
var (
	Int8    = StackSlot{SignedInt, 1}
	Int16   = StackSlot{SignedInt, 2}
	Int32   = StackSlot{SignedInt, 4}
	Int64   = StackSlot{SignedInt, 8}
	UInt8   = StackSlot{UnsignedInt, 1}
	UInt16  = StackSlot{UnsignedInt, 2}
	UInt32  = StackSlot{UnsignedInt, 4}
	UInt64  = StackSlot{UnsignedInt, 8}
	Float32 = StackSlot{Float, 4}
	Float64 = StackSlot{Float, 8}
	Ref     = StackSlot{Reference, PointerSize}
)

// IsFloat reports whether the slot holds a floating point value.
func (s StackSlot) IsFloat() bool {
	return s.Kind == Float
}

// StackSize is the number of bytes the value occupies on the native stack.
// Values narrower than a machine word are widened to 4 bytes.
func (s StackSlot) StackSize() int {
	if s.Width <= 4 {
		return 4
	}
	return (s.Width + 3) &^ 3
}

// String returns the listing spelling of the slot, e.g. "i4", "r8" or "vt:16".
func (s StackSlot) String() string {
	switch s.Kind {
	case SignedInt:
		return "i" + strconv.Itoa(s.Width)
	case UnsignedInt:
		return "u" + strconv.Itoa(s.Width)
	case Float:
		return "r" + strconv.Itoa(s.Width)
	case Reference:
		if s.Width == PointerSize {
			return "ref"
		}
		return "ref:" + strconv.Itoa(s.Width)
	case ValueStruct:
		return "vt:" + strconv.Itoa(s.Width)
	default:
		return fmt.Sprintf("%s:%d", s.Kind, s.Width)
	}
}

// ParseSlot parses the listing spelling of a slot type.
func ParseSlot(s string) (StackSlot, error) {
	switch s {
	case "i1":
		return Int8, nil
	case "i2":
		return Int16, nil
	case "i4", "i":
		return Int32, nil
	case "i8":
		return Int64, nil
	case "u1":
		return UInt8, nil
	case "u2":
		return UInt16, nil
	case "u4", "u":
		return UInt32, nil
	case "u8":
		return UInt64, nil
	case "r4":
		return Float32, nil
	case "r8":
		return Float64, nil
	case "ref":
		return Ref, nil
	}

	prefix, width, ok := strings.Cut(s, ":")
	if !ok {
		return StackSlot{}, fmt.Errorf("unknown stack slot type %q", s)
	}
	n, err := strconv.Atoi(width)
	if err != nil || n <= 0 {
		return StackSlot{}, fmt.Errorf("invalid width in stack slot type %q", s)
	}
	// Widths above 8 stay expressible so the translator can report them.
	if n < 8 && n != 1 && n != 2 && n != 4 {
		return StackSlot{}, fmt.Errorf("stack slot type %q must be 1, 2, 4 or 8 bytes, or wider than 8", s)
	}
	switch prefix {
	case "vt":
		return StackSlot{ValueStruct, n}, nil
	case "ref":
		return StackSlot{Reference, n}, nil
	}
	return StackSlot{}, fmt.Errorf("unknown stack slot type %q", s)
}
