package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/x86"
)

// Translator drives method translation: it defines a label per instruction,
// checks stack depth and dispatches every instruction to its handler.
type Translator struct {
	// Registry defaults to Default()
	Registry *Registry
	// Jobs bounds parallel method translation; zero means GOMAXPROCS
	Jobs int
	// Trace receives per-method progress and stack depth lines when set
	Trace io.Writer

	traceMu sync.Mutex
}

// NewTranslator returns a translator using the default registry.
func NewTranslator() *Translator {
	return &Translator{Registry: Default()}
}

func (t *Translator) registry() *Registry {
	if t.Registry == nil {
		return Default()
	}
	return t.Registry
}

// Translate translates one method into its own program. On error the partial
// program is discarded.
func (t *Translator) Translate(m il.Method) (*x86.Program, error) {
	if t.Trace == nil {
		return t.translate(m, nil)
	}
	// buffer per method so parallel traces do not interleave
	var buf bytes.Buffer
	prog, err := t.translate(m, &buf)
	t.traceMu.Lock()
	t.Trace.Write(buf.Bytes())
	t.traceMu.Unlock()
	return prog, err
}

func (t *Translator) translate(m il.Method, trace io.Writer) (*x86.Program, error) {
	prog := x86.NewProgram()
	reg := t.registry()
	dv := newDepthValidator(trace)
	if trace != nil {
		prog.Trace = trace
		fmt.Fprintf(trace, "translating %s (%d instructions)\n", m.Name, len(m.Instructions))
	}

	prog.Comment("method " + m.Name)
	for _, ins := range m.Instructions {
		h, ok := reg.Lookup(ins.Opcode)
		if !ok {
			return nil, &Error{Kind: UnsupportedOpcode, Opcode: ins.Opcode, Addr: ins.Addr}
		}
		if err := dv.apply(ins.String(), h.Effect()); err != nil {
			err.Opcode = ins.Opcode
			err.Addr = ins.Addr
			return nil, err
		}

		prog.Label(Base(ins.Addr))
		prog.Comment(formatInstruction(ins))
		if err := reg.Dispatch(NewContext(ins, prog)); err != nil {
			return nil, err
		}
	}
	prog.Label(Base(il.Address{Method: m.Name, Offset: m.End()}))

	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	return prog, nil
}

// TranslateAll translates methods in parallel and concatenates the programs
// of the methods that succeeded in input order. Every failure is added to
// errs, which may be nil; failed methods contribute nothing to the result.
func (t *Translator) TranslateAll(ctx context.Context, methods []il.Method, errs *Collector) (*x86.Program, error) {
	progs := make([]*x86.Program, len(methods))
	failures := make([]error, len(methods))

	jobs := t.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			progs[i], failures[i] = t.Translate(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := x86.NewProgram()
	for i, p := range progs {
		if failures[i] != nil {
			if errs != nil {
				errs.Add(failures[i])
			}
			continue
		}
		out.Append(p)
	}
	return out, nil
}

func formatInstruction(ins il.Instruction) string {
	s := ins.String()
	if len(ins.Pops) > 0 {
		s += " " + formatSlots(ins.Pops)
	}
	return s
}
