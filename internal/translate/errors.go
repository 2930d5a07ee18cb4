package translate

import (
	"fmt"
	"strings"

	"github.com/xyproto/il2x86/internal/il"
)

// ErrorKind classifies a translation failure
type ErrorKind int

const (
	UnsupportedOpcode ErrorKind = iota
	UnsupportedOperandWidth
	StackModelViolation
	DuplicateRegistration
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedOpcode:
		return "unsupported opcode"
	case UnsupportedOperandWidth:
		return "unsupported operand width"
	case StackModelViolation:
		return "stack model violation"
	case DuplicateRegistration:
		return "duplicate registration"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrUnsupportedOpcode       = &Error{Kind: UnsupportedOpcode}
	ErrUnsupportedOperandWidth = &Error{Kind: UnsupportedOperandWidth}
	ErrStackModelViolation     = &Error{Kind: StackModelViolation}
	ErrDuplicateRegistration   = &Error{Kind: DuplicateRegistration}
)

// Error is a translation diagnostic. Addr is the zero Address for failures
// that are not tied to an instruction, such as registration errors.
type Error struct {
	Kind    ErrorKind
	Opcode  il.Opcode
	Addr    il.Address
	Width   int    // literal operand width for UnsupportedOperandWidth
	Message string // detail, if any
	Help    string // explanatory note shown by Format
}

func (e *Error) located() bool {
	return e.Addr.Method != ""
}

func (e *Error) summary() string {
	var sb strings.Builder
	sb.WriteString(e.Opcode.String())
	sb.WriteString(": ")
	sb.WriteString(e.Kind.String())
	if e.Kind == UnsupportedOperandWidth {
		fmt.Fprintf(&sb, " %d", e.Width)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.located() {
		return fmt.Sprintf("%s: %s", e.Addr, e.summary())
	}
	return e.summary()
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Format returns a multi-line diagnostic for terminal output
func (e *Error) Format(useColor bool) string {
	var sb strings.Builder

	if useColor {
		sb.WriteString("\033[1;31m") // Bold red
	}
	sb.WriteString("error: ")
	if useColor {
		sb.WriteString("\033[0m")
	}
	sb.WriteString(e.summary())
	sb.WriteString("\n")

	if e.located() {
		if useColor {
			sb.WriteString("\033[1;34m") // Bold blue
		}
		sb.WriteString("  --> ")
		sb.WriteString(e.Addr.String())
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if help := e.help(); help != "" {
		if useColor {
			sb.WriteString("\033[1;36m") // Bold cyan
		}
		sb.WriteString("   note: ")
		if useColor {
			sb.WriteString("\033[0m")
		}
		sb.WriteString(help)
		sb.WriteString("\n")
	}

	return sb.String()
}

func (e *Error) help() string {
	if e.Help != "" {
		return e.Help
	}
	switch e.Kind {
	case UnsupportedOpcode:
		return "no handler is registered for this opcode; run with -list to see the supported set"
	case UnsupportedOperandWidth:
		return "operands wider than 8 bytes cannot be translated"
	case StackModelViolation:
		return "the stack types supplied for this instruction do not fit the opcode"
	}
	return ""
}

func unsupportedWidth(width int) *Error {
	e := &Error{Kind: UnsupportedOperandWidth, Width: width}
	if width <= 8 {
		e.Help = "operands must be 1, 2, 4 or 8 bytes wide"
	}
	return e
}

func stackViolation(format string, args ...any) *Error {
	return &Error{Kind: StackModelViolation, Message: fmt.Sprintf(format, args...)}
}
