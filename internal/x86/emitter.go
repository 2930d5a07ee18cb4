package x86

import (
	"fmt"
	"io"
)

// Emitter is the vocabulary of primitive emission requests available to
// opcode handlers. Implementations own the emission stream; callers never
// read it back.
type Emitter interface {
	// Labels and annotations
	Label(name string)
	Comment(text string)

	// Integer moves and stack
	Mov(dst, src Operand)
	Push(src Operand)
	Pop(dst Operand)

	// Integer arithmetic and comparison
	Arith(op ArithOp, dst, src Operand)
	Cmp(a, b Operand)

	// Control flow
	Jump(label string)
	JumpIf(c Cond, label string)
	CMov(c Cond, dst, src Reg)

	// SSE scalar single precision
	MovSS(dst, src Operand)
	CmpSS(dst, src Reg, p FloatPredicate)
	ArithSS(op ArithOp, dst, src Reg)
	MovD(dst, src Reg)

	// x87
	FLoad(src Mem)
	FCompare(st Reg)
	FArith(op ArithOp, src Mem)
	FStorePop(dst Operand)
}

// Kind identifies the instruction form of an Instr.
type Kind int

const (
	KindLabel Kind = iota
	KindComment
	KindMov
	KindPush
	KindPop
	KindArith
	KindCmp
	KindJump
	KindJumpIf
	KindCMov
	KindMovSS
	KindCmpSS
	KindArithSS
	KindMovD
	KindFLoad
	KindFCompare
	KindFArith
	KindFStorePop
)

// Instr is one recorded emission request.
type Instr struct {
	Kind  Kind
	Dst   Operand
	Src   Operand
	Cond  Cond
	Pred  FloatPredicate
	Op    ArithOp
	Label string // label name, jump target or comment text
}

// IsJump reports whether the instruction transfers control to a label.
func (in Instr) IsJump() bool {
	return in.Kind == KindJump || in.Kind == KindJumpIf
}

// Program is an append-only emission stream that records every request.
// It is the Emitter the translator hands to handlers; one Program belongs to
// one method translation at a time.
type Program struct {
	instrs []Instr

	// Trace receives one Intel syntax line per emitted instruction when set
	Trace io.Writer
}

// NewProgram creates an empty emission stream
func NewProgram() *Program {
	return &Program{instrs: make([]Instr, 0, 64)}
}

func (p *Program) emit(in Instr) {
	p.instrs = append(p.instrs, in)
	if p.Trace != nil {
		fmt.Fprintln(p.Trace, renderIntel(in))
	}
}

// Instructions returns a copy of the recorded stream.
func (p *Program) Instructions() []Instr {
	out := make([]Instr, len(p.instrs))
	copy(out, p.instrs)
	return out
}

// Len returns the number of recorded instructions, labels and comments included.
func (p *Program) Len() int {
	return len(p.instrs)
}

// Append copies all of other's instructions to the end of p.
func (p *Program) Append(other *Program) {
	for _, in := range other.instrs {
		p.emit(in)
	}
}

func (p *Program) Label(name string) { p.emit(Instr{Kind: KindLabel, Label: name}) }

func (p *Program) Comment(text string) { p.emit(Instr{Kind: KindComment, Label: text}) }

func (p *Program) Mov(dst, src Operand) { p.emit(Instr{Kind: KindMov, Dst: dst, Src: src}) }

func (p *Program) Push(src Operand) { p.emit(Instr{Kind: KindPush, Src: src}) }

func (p *Program) Pop(dst Operand) { p.emit(Instr{Kind: KindPop, Dst: dst}) }

func (p *Program) Arith(op ArithOp, dst, src Operand) {
	p.emit(Instr{Kind: KindArith, Op: op, Dst: dst, Src: src})
}

func (p *Program) Cmp(a, b Operand) { p.emit(Instr{Kind: KindCmp, Dst: a, Src: b}) }

func (p *Program) Jump(label string) { p.emit(Instr{Kind: KindJump, Label: label}) }

func (p *Program) JumpIf(c Cond, label string) {
	p.emit(Instr{Kind: KindJumpIf, Cond: c, Label: label})
}

func (p *Program) CMov(c Cond, dst, src Reg) {
	p.emit(Instr{Kind: KindCMov, Cond: c, Dst: dst, Src: src})
}

func (p *Program) MovSS(dst, src Operand) { p.emit(Instr{Kind: KindMovSS, Dst: dst, Src: src}) }

func (p *Program) CmpSS(dst, src Reg, pred FloatPredicate) {
	p.emit(Instr{Kind: KindCmpSS, Dst: dst, Src: src, Pred: pred})
}

func (p *Program) ArithSS(op ArithOp, dst, src Reg) {
	p.emit(Instr{Kind: KindArithSS, Op: op, Dst: dst, Src: src})
}

func (p *Program) MovD(dst, src Reg) { p.emit(Instr{Kind: KindMovD, Dst: dst, Src: src}) }

func (p *Program) FLoad(src Mem) { p.emit(Instr{Kind: KindFLoad, Src: src}) }

// FCompare compares ST0 with st and sets ZF, PF and CF (fcomi).
func (p *Program) FCompare(st Reg) { p.emit(Instr{Kind: KindFCompare, Src: st}) }

// FArith computes ST0 = ST0 op [src].
func (p *Program) FArith(op ArithOp, src Mem) {
	p.emit(Instr{Kind: KindFArith, Op: op, Src: src})
}

func (p *Program) FStorePop(dst Operand) { p.emit(Instr{Kind: KindFStorePop, Dst: dst}) }

// Labels returns the index of every defined label.
func (p *Program) Labels() map[string]int {
	labels := make(map[string]int)
	for i, in := range p.instrs {
		if in.Kind == KindLabel {
			labels[in.Label] = i
		}
	}
	return labels
}

// Validate checks that every label is defined exactly once and that every
// jump targets a defined label.
func (p *Program) Validate() error {
	defined := make(map[string]bool)
	for _, in := range p.instrs {
		if in.Kind != KindLabel {
			continue
		}
		if defined[in.Label] {
			return fmt.Errorf("label %s defined more than once", in.Label)
		}
		defined[in.Label] = true
	}
	for _, in := range p.instrs {
		if in.IsJump() && !defined[in.Label] {
			return fmt.Errorf("jump to undefined label %s", in.Label)
		}
	}
	return nil
}

var _ Emitter = (*Program)(nil)
