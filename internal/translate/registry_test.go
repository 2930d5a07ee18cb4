package translate

import (
	"errors"
	"slices"
	"testing"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(il.Cgt, newCompare); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := r.Register(il.Cgt, newArith)
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("expected DuplicateRegistration, got %v", err)
	}
	h, ok := r.Lookup(il.Cgt)
	if !ok {
		t.Fatal("lookup failed")
	}
	if _, isCompare := h.(compareHandler); !isCompare {
		t.Errorf("duplicate registration replaced the first handler with %T", h)
	}
}

func TestMustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate entry in a start-up table did not panic")
		}
	}()
	buildRegistry([]registration{{il.Add, newArith}, {il.Add, newArith}})
}

func TestRegisterNilFactory(t *testing.T) {
	r := NewRegistry()
	defer func() {
		if recover() == nil {
			t.Error("registering a nil factory did not panic")
		}
		if _, ok := r.Lookup(il.Cgt); ok {
			t.Error("nil factory was bound")
		}
	}()
	r.Register(il.Cgt, nil)
}

func TestDispatchUnsupportedOpcode(t *testing.T) {
	prog := x86.NewProgram()
	ins := il.Instruction{Addr: il.Address{Method: "M", Offset: 0x20}, Next: 0x21, Opcode: il.Mul,
		Pops: []il.StackSlot{il.Int32, il.Int32}}

	err := Default().Dispatch(NewContext(ins, prog))
	if !errors.Is(err, ErrUnsupportedOpcode) {
		t.Fatalf("expected UnsupportedOpcode, got %v", err)
	}
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("not a *Error: %T", err)
	}
	if te.Opcode != il.Mul || te.Addr != ins.Addr {
		t.Errorf("error carries %s at %v", te.Opcode, te.Addr)
	}
	if prog.Len() != 0 {
		t.Errorf("%d instructions emitted for an unsupported opcode", prog.Len())
	}
	if got, want := err.Error(), "M+IL_0020: mul: unsupported opcode"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDispatchStampsAddress(t *testing.T) {
	ins := il.Instruction{Addr: il.Address{Method: "M", Offset: 3}, Next: 5, Opcode: il.Cgt,
		Pops: []il.StackSlot{{Kind: il.ValueStruct, Width: 16}, il.Int32}}
	err := Default().Dispatch(NewContext(ins, x86.NewProgram()))
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if te.Kind != UnsupportedOperandWidth || te.Width != 16 || te.Opcode != il.Cgt || te.Addr != ins.Addr {
		t.Errorf("unexpected error %+v", te)
	}
}

func TestDefaultOpcodes(t *testing.T) {
	ops := Default().Opcodes()
	if !slices.IsSorted(ops) {
		t.Errorf("opcodes not sorted: %v", ops)
	}
	for _, op := range []il.Opcode{il.Ceq, il.Cgt, il.CgtUn, il.Clt, il.CltUn, il.Add, il.Sub, il.And, il.Or, il.Xor, il.LdcI4, il.Dup} {
		if !slices.Contains(ops, op) {
			t.Errorf("default registry is missing %s", op)
		}
	}
	if slices.Contains(ops, il.Mul) {
		t.Error("mul has no handler and must not be listed")
	}
	if len(ops) != len(builtinHandlers) {
		t.Errorf("%d opcodes for %d table entries", len(ops), len(builtinHandlers))
	}
}

func TestErrorsIs(t *testing.T) {
	err := unsupportedWidth(12)
	if !errors.Is(err, ErrUnsupportedOperandWidth) {
		t.Error("width error does not match its sentinel")
	}
	if errors.Is(err, ErrStackModelViolation) {
		t.Error("width error matches the wrong sentinel")
	}
}
