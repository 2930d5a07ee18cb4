package engine

import (
	"fmt"
	"strings"
)

// Syntax selects the assembler dialect used when rendering emitted code.
type Syntax int

const (
	SyntaxUnknown Syntax = iota
	SyntaxIntel          // NASM/YASM style: mov dword [esp], 1
	SyntaxATT            // GNU as style: movl $1, (%esp)
)

func (s Syntax) String() string {
	switch s {
	case SyntaxIntel:
		return "nasm"
	case SyntaxATT:
		return "gas"
	default:
		return "unknown"
	}
}

// ParseSyntax parses an assembler dialect name
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nasm", "intel", "yasm":
		return SyntaxIntel, nil
	case "gas", "att", "at&t":
		return SyntaxATT, nil
	default:
		return SyntaxUnknown, fmt.Errorf("unsupported assembler syntax: %s (supported: nasm, gas)", s)
	}
}

// CommentPrefix returns the line comment marker of the dialect
func (s Syntax) CommentPrefix() string {
	if s == SyntaxATT {
		return "#"
	}
	return ";"
}
