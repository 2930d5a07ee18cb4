package translate

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/il2x86/internal/il"
)

func TestErrorFormat(t *testing.T) {
	err := &Error{Kind: UnsupportedOperandWidth, Opcode: il.Cgt, Addr: il.Address{Method: "M", Offset: 0x10}, Width: 16}
	if got, want := err.Error(), "M+IL_0010: cgt: unsupported operand width 16"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := err.Format(false)
	want := "error: cgt: unsupported operand width 16\n" +
		"  --> M+IL_0010\n" +
		"   note: operands wider than 8 bytes cannot be translated\n"
	if plain != want {
		t.Errorf("Format(false) =\n%s\nwant\n%s", plain, want)
	}

	colored := err.Format(true)
	if !strings.Contains(colored, "\033[1;31m") || !strings.Contains(colored, "M+IL_0010") {
		t.Errorf("Format(true) lacks color or location: %q", colored)
	}

	reg := &Error{Kind: DuplicateRegistration, Opcode: il.Add}
	if strings.Contains(reg.Format(false), "-->") {
		t.Error("unlocated error printed a location line")
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(2)
	if c.HasErrors() || c.Err() != nil {
		t.Fatal("new collector has errors")
	}
	c.Add(nil)
	c.Add(&Error{Kind: UnsupportedOpcode, Opcode: il.Mul, Addr: il.Address{Method: "A"}})
	c.Add(&Error{Kind: StackModelViolation, Opcode: il.Cgt, Addr: il.Address{Method: "B"}})
	c.Add(errors.New("io failure"))

	if c.Count() != 3 || len(c.Errors()) != 2 {
		t.Errorf("count %d, kept %d", c.Count(), len(c.Errors()))
	}
	if !errors.Is(c.Err(), ErrUnsupportedOpcode) {
		t.Error("joined error does not match its parts")
	}
	if got, want := c.Summary(), "3 errors (1 stack model violation, 1 unsupported opcode)"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}

	var buf bytes.Buffer
	c.Report(&buf, false)
	out := buf.String()
	for _, want := range []string{"error: mul: unsupported opcode", "  --> A+IL_0000", "... and 1 more", "translation failed: 3 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q:\n%s", want, out)
		}
	}
}
