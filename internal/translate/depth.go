package translate

import (
	"fmt"
	"io"
)

// depthValidator tracks the evaluation stack depth of a straight-line method
// body and checks every handler's declared effect against it.
type depthValidator struct {
	depth      int      // current depth in slots
	operations []string // history for diagnostics
	trace      io.Writer
}

func newDepthValidator(trace io.Writer) *depthValidator {
	return &depthValidator{
		operations: make([]string, 0, 64),
		trace:      trace,
	}
}

// apply records the effect of the instruction at label, failing if it would
// pop more slots than the body has pushed.
func (dv *depthValidator) apply(label string, effect StackEffect) *Error {
	if effect.Pops > dv.depth {
		return stackViolation("pops %d slots with stack depth %d (recent: %s)", effect.Pops, dv.depth, dv.recent(5))
	}
	dv.depth += effect.Net()
	dv.operations = append(dv.operations, fmt.Sprintf("%s -%d+%d (depth=%d)", label, effect.Pops, effect.Pushes, dv.depth))
	if dv.trace != nil {
		fmt.Fprintf(dv.trace, "STACK: %s pops %d pushes %d, depth now %d\n", label, effect.Pops, effect.Pushes, dv.depth)
	}
	return nil
}

func (dv *depthValidator) recent(n int) string {
	if len(dv.operations) == 0 {
		return "none"
	}
	start := max(len(dv.operations)-n, 0)
	s := dv.operations[start]
	for _, op := range dv.operations[start+1:] {
		s += ", " + op
	}
	return s
}
