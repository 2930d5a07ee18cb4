package translate

import (
	"strings"

	"github.com/samber/lo"

	"github.com/xyproto/il2x86/internal/il"
)

// Stack is the read-only view of the evaluation stack slots an instruction
// pops, top of stack first, as computed by the type-flow analysis.
type Stack struct {
	slots []il.StackSlot
}

// NewStack wraps the popped slots of one instruction.
func NewStack(slots []il.StackSlot) Stack {
	return Stack{slots: slots}
}

// Len returns the number of slots the model provides.
func (s Stack) Len() int {
	return len(s.slots)
}

// Peek returns slot i, counted from the top. ok is false when the model does
// not describe that slot.
func (s Stack) Peek(i int) (slot il.StackSlot, ok bool) {
	if i < 0 || i >= len(s.slots) {
		return il.StackSlot{}, false
	}
	return s.slots[i], true
}

// Operands returns the top n slots. Asking for more than the model provides
// is a StackModelViolation, and a slot that is not 1, 2, 4 or 8 bytes wide
// is an UnsupportedOperandWidth.
func (s Stack) Operands(n int) ([]il.StackSlot, error) {
	if n > len(s.slots) {
		return nil, stackViolation("needs %d stack operands, type-flow provides %d", n, len(s.slots))
	}
	out := make([]il.StackSlot, n)
	copy(out, s.slots[:n])
	for _, slot := range out {
		if slot.Width <= 0 {
			return nil, stackViolation("stack slot %s has no width", slot)
		}
		switch slot.Width {
		case 1, 2, 4, 8:
		default:
			return nil, unsupportedWidth(slot.Width)
		}
	}
	return out, nil
}

// formatSlots renders slots in listing form, e.g. "[i4 i4]".
func formatSlots(slots []il.StackSlot) string {
	return "[" + strings.Join(lo.Map(slots, func(s il.StackSlot, _ int) string {
		return s.String()
	}), " ") + "]"
}
