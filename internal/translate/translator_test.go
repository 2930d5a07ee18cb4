package translate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86/x86sim"
)

func method(t *testing.T, name string, body ...il.Instruction) il.Method {
	t.Helper()
	m, err := il.NewMethod(name, body)
	if err != nil {
		t.Fatalf("NewMethod: %v", err)
	}
	return m
}

func at(offset uint32, op il.Opcode, operand int64, pops ...il.StackSlot) il.Instruction {
	return il.Instruction{Addr: il.Address{Offset: offset}, Opcode: op, Operand: operand, Pops: pops}
}

func maxMethod(t *testing.T, name string, a, b int64) il.Method {
	return method(t, name,
		at(0x00, il.LdcI4, a),
		at(0x05, il.LdcI4, b),
		at(0x0A, il.Cgt, 0, il.Int32, il.Int32),
	)
}

func TestTranslateMethod(t *testing.T) {
	tr := NewTranslator()
	prog, err := tr.Translate(maxMethod(t, "P::Max", 5, 3))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	labels := prog.Labels()
	for _, want := range []string{"P_3A_3AMax.IL_0000", "P_3A_3AMax.IL_0005", "P_3A_3AMax.IL_000A", "P_3A_3AMax.IL_000C"} {
		if _, ok := labels[want]; !ok {
			t.Errorf("label %s not defined", want)
		}
	}

	m, before := execute(t, prog, func(*x86sim.Machine) {})
	if m.TopU32() != 1 || before-m.ESP() != 4 {
		t.Errorf("5 > 3 left %d with %d bytes pushed", m.TopU32(), before-m.ESP())
	}

	// translating twice yields the same program
	again, err := tr.Translate(maxMethod(t, "P::Max", 5, 3))
	if err != nil {
		t.Fatal(err)
	}
	if prog.String() != again.String() {
		t.Error("translation is not deterministic")
	}
}

func TestTranslateChained(t *testing.T) {
	// (2 + 3) == 5, then the result is duplicated and added to itself
	m := method(t, "Chain",
		at(0x00, il.LdcI42, 0),
		at(0x01, il.LdcI43, 0),
		at(0x02, il.Add, 0, il.Int32, il.Int32),
		at(0x03, il.LdcI45, 0),
		at(0x04, il.Ceq, 0, il.Int32, il.Int32),
		at(0x06, il.Dup, 0, il.Int32),
		at(0x07, il.Add, 0, il.Int32, il.Int32),
		at(0x08, il.Nop, 0),
	)
	prog, err := NewTranslator().Translate(m)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	sim, before := execute(t, prog, func(*x86sim.Machine) {})
	if sim.TopU32() != 2 || before-sim.ESP() != 4 {
		t.Errorf("result %d with %d bytes pushed", sim.TopU32(), before-sim.ESP())
	}
}

func TestTranslateStackUnderflow(t *testing.T) {
	m := method(t, "Under", at(0, il.LdcI41, 0), at(1, il.Cgt, 0, il.Int32, il.Int32))
	_, err := NewTranslator().Translate(m)
	var te *Error
	if !errors.As(err, &te) || te.Kind != StackModelViolation {
		t.Fatalf("expected StackModelViolation, got %v", err)
	}
	if te.Addr != (il.Address{Method: "Under", Offset: 1}) || te.Opcode != il.Cgt {
		t.Errorf("error located at %v (%s)", te.Addr, te.Opcode)
	}
}

func TestTranslateAll(t *testing.T) {
	methods := []il.Method{
		maxMethod(t, "A", 1, 2),
		method(t, "Bad", at(0, il.LdcI41, 0), at(1, il.LdcI41, 0), at(2, il.Mul, 0, il.Int32, il.Int32)),
		maxMethod(t, "C", 3, 2),
		method(t, "Wide", at(0, il.LdcI41, 0), at(1, il.LdcI41, 0), at(2, il.Cgt, 0, il.StackSlot{Kind: il.ValueStruct, Width: 16}, il.Int32)),
		maxMethod(t, "D", 9, 9),
	}

	var trace bytes.Buffer
	tr := &Translator{Jobs: 2, Trace: &trace}
	errs := NewCollector(0)
	prog, err := tr.TranslateAll(context.Background(), methods, errs)
	if err != nil {
		t.Fatalf("TranslateAll: %v", err)
	}

	if errs.Count() != 2 {
		t.Fatalf("collected %d errors: %v", errs.Count(), errs.Errors())
	}
	got := errs.Errors()
	if !errors.Is(got[0], ErrUnsupportedOpcode) || !errors.Is(got[1], ErrUnsupportedOperandWidth) {
		t.Errorf("errors out of order: %v", got)
	}

	text := prog.String()
	a, c, d := strings.Index(text, "A.IL_0000:"), strings.Index(text, "C.IL_0000:"), strings.Index(text, "D.IL_0000:")
	if a < 0 || c < a || d < c {
		t.Errorf("methods missing or out of order (A=%d C=%d D=%d)", a, c, d)
	}
	if strings.Contains(text, "Bad.") || strings.Contains(text, "Wide.") {
		t.Error("failed methods contributed output")
	}
	if err := prog.Validate(); err != nil {
		t.Errorf("combined program: %v", err)
	}

	for _, want := range []string{"translating A (3 instructions)", "STACK: IL_000A: cgt pops 2 pushes 1, depth now 1", "    cmp dword [esp], eax"} {
		if !strings.Contains(trace.String(), want) {
			t.Errorf("trace lacks %q", want)
		}
	}
}

func TestTranslateAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTranslator().TranslateAll(ctx, []il.Method{maxMethod(t, "A", 1, 2)}, NewCollector(0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
