package x86

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xyproto/il2x86/internal/engine"
)

// Render writes the program as assembler text in the given dialect.
func (p *Program) Render(w io.Writer, syntax engine.Syntax) error {
	var render func(Instr) string
	switch syntax {
	case engine.SyntaxIntel:
		render = renderIntel
	case engine.SyntaxATT:
		render = renderATT
	default:
		return fmt.Errorf("cannot render %s syntax", syntax)
	}
	bw := bufio.NewWriter(w)
	for _, in := range p.instrs {
		if _, err := fmt.Fprintln(bw, render(in)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String renders the program in Intel syntax.
func (p *Program) String() string {
	var sb strings.Builder
	for _, in := range p.instrs {
		sb.WriteString(renderIntel(in))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (in Instr) String() string {
	return strings.TrimSpace(renderIntel(in))
}

// === Intel (NASM) ===

func sizeKeyword(size int) string {
	switch size {
	case 1:
		return "byte"
	case 2:
		return "word"
	case 8:
		return "qword"
	default:
		return "dword"
	}
}

func intelMem(m Mem) string {
	switch {
	case m.Disp > 0:
		return fmt.Sprintf("[%s+%d]", m.Base, m.Disp)
	case m.Disp < 0:
		return fmt.Sprintf("[%s-%d]", m.Base, -int64(m.Disp))
	default:
		return fmt.Sprintf("[%s]", m.Base)
	}
}

func intelOperand(o Operand) string {
	switch v := o.(type) {
	case Reg:
		return v.String()
	case Imm:
		return v.String()
	case Mem:
		return sizeKeyword(v.Size) + " " + intelMem(v)
	default:
		return "?"
	}
}

func renderIntel(in Instr) string {
	switch in.Kind {
	case KindLabel:
		return in.Label + ":"
	case KindComment:
		return "    ; " + in.Label
	}

	var text string
	switch in.Kind {
	case KindMov:
		text = "mov " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindPush:
		if imm, ok := in.Src.(Imm); ok {
			text = "push dword " + imm.String()
		} else {
			text = "push " + intelOperand(in.Src)
		}
	case KindPop:
		text = "pop " + intelOperand(in.Dst)
	case KindArith:
		text = in.Op.String() + " " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindCmp:
		text = "cmp " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindJump:
		text = "jmp " + in.Label
	case KindJumpIf:
		text = "j" + in.Cond.Suffix() + " " + in.Label
	case KindCMov:
		text = "cmov" + in.Cond.Suffix() + " " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindMovSS:
		text = "movss " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindCmpSS:
		text = "cmp" + in.Pred.String() + "ss " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindArithSS:
		text = in.Op.String() + "ss " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindMovD:
		text = "movd " + intelOperand(in.Dst) + ", " + intelOperand(in.Src)
	case KindFLoad:
		text = "fld " + intelOperand(in.Src)
	case KindFCompare:
		text = "fcomi st0, " + intelOperand(in.Src)
	case KindFArith:
		text = "f" + in.Op.String() + " " + intelOperand(in.Src)
	case KindFStorePop:
		text = "fstp " + intelOperand(in.Dst)
	default:
		text = fmt.Sprintf("; unknown instruction kind %d", in.Kind)
	}
	return "    " + text
}

// === AT&T (GNU as) ===

func attMem(m Mem) string {
	if m.Disp == 0 {
		return fmt.Sprintf("(%%%s)", m.Base)
	}
	return fmt.Sprintf("%d(%%%s)", m.Disp, m.Base)
}

func attOperand(o Operand) string {
	switch v := o.(type) {
	case Reg:
		if v.IsFPU() {
			return fmt.Sprintf("%%st(%d)", v.Info().Encoding)
		}
		return "%" + v.String()
	case Imm:
		return "$" + v.String()
	case Mem:
		return attMem(v)
	default:
		return "?"
	}
}

// x87 memory operand suffix: s for 32-bit, l for 64-bit floats
func attFloatSuffix(m Mem) string {
	if m.Size == 4 {
		return "s"
	}
	return "l"
}

func renderATT(in Instr) string {
	switch in.Kind {
	case KindLabel:
		return in.Label + ":"
	case KindComment:
		return "    # " + in.Label
	}

	var text string
	switch in.Kind {
	case KindMov:
		text = "movl " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindPush:
		text = "pushl " + attOperand(in.Src)
	case KindPop:
		text = "popl " + attOperand(in.Dst)
	case KindArith:
		text = in.Op.String() + "l " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindCmp:
		// cmp a, b in Intel order is cmpl b, a
		text = "cmpl " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindJump:
		text = "jmp " + in.Label
	case KindJumpIf:
		text = "j" + in.Cond.Suffix() + " " + in.Label
	case KindCMov:
		text = "cmov" + in.Cond.Suffix() + "l " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindMovSS:
		text = "movss " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindCmpSS:
		text = "cmp" + in.Pred.String() + "ss " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindArithSS:
		text = in.Op.String() + "ss " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindMovD:
		text = "movd " + attOperand(in.Src) + ", " + attOperand(in.Dst)
	case KindFLoad:
		m, _ := in.Src.(Mem)
		text = "fld" + attFloatSuffix(m) + " " + attOperand(in.Src)
	case KindFCompare:
		text = "fcomi " + attOperand(in.Src) + ", %st"
	case KindFArith:
		m, _ := in.Src.(Mem)
		text = "f" + in.Op.String() + attFloatSuffix(m) + " " + attOperand(in.Src)
	case KindFStorePop:
		if m, ok := in.Dst.(Mem); ok {
			text = "fstp" + attFloatSuffix(m) + " " + attOperand(in.Dst)
		} else {
			text = "fstp " + attOperand(in.Dst)
		}
	default:
		text = fmt.Sprintf("# unknown instruction kind %d", in.Kind)
	}
	return "    " + text
}
