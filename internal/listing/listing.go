// Package listing parses the textual method listings the il2x86 command
// translates. A listing holds methods whose instructions are annotated with
// the stack slot types they pop, top of stack first:
//
//	// comment
//	method "int32 Program::Max(int32,int32)" {
//	    IL_0000: ldc.i4 5
//	    IL_0005: ldc.i4 3
//	    IL_000A: cgt [i4 i4]
//	}
package listing

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/xyproto/il2x86/internal/engine"
	"github.com/xyproto/il2x86/internal/il"
)

// file is the top-level AST node
type file struct {
	Methods []*methodDecl `@@*`
}

// methodDecl: method "name" { line* }
type methodDecl struct {
	Pos  lexer.Position
	Name string      `"method" @String "{"`
	Body []*lineDecl `@@* "}"`
}

// lineDecl: IL_xxxx: mnemonic operand? [slot*]?
type lineDecl struct {
	Pos      lexer.Position
	Offset   string   `@Label ":"`
	Mnemonic string   `@Ident`
	Operand  *string  `@(Number | Special)?`
	Pops     []string `( "[" @Ident* "]" )?`
}

var listingLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Comment", Pattern: `//[^\n]*`},

	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Label", Pattern: `IL_[0-9A-Fa-f]+`},
	{Name: "Number", Pattern: `[-+]?(0[xX][0-9A-Fa-f]+|[0-9]+(\.[0-9]*)?([eE][-+]?[0-9]+)?)`},
	{Name: "Special", Pattern: `[-+]?(inf|nan)\b`},

	// Mnemonics (ldc.i4.s, cgt.un) and slot types (i4, vt:16)
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.]*(:[0-9]+)?`},
	{Name: "Punct", Pattern: `[{}\[\]:]`},
})

var parser = participle.MustBuild[file](
	participle.Lexer(listingLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Error is a listing error at a source position.
type Error struct {
	Pos        lexer.Position
	Message    string
	Suggestion string // "did you mean" candidates, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Pos, e.Message)
	if e.Suggestion != "" {
		msg += " (did you mean " + e.Suggestion + "?)"
	}
	return msg
}

func errorf(pos lexer.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Parse parses a listing. filename is only used in error positions.
func Parse(filename, source string) ([]il.Method, error) {
	ast, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, err
	}
	return ast.methods()
}

// ParseFile reads and parses a listing file.
func ParseFile(path string) ([]il.Method, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(data))
}

func (f *file) methods() ([]il.Method, error) {
	methods := make([]il.Method, 0, len(f.Methods))
	seen := make(map[string]lexer.Position)
	for _, decl := range f.Methods {
		if prev, dup := seen[decl.Name]; dup {
			return nil, errorf(decl.Pos, "method %q already defined at %s", decl.Name, prev)
		}
		seen[decl.Name] = decl.Pos

		body := make([]il.Instruction, 0, len(decl.Body))
		for i, line := range decl.Body {
			ins, err := line.instruction()
			if err != nil {
				return nil, err
			}
			if i > 0 && ins.Addr.Offset <= body[i-1].Addr.Offset {
				return nil, errorf(line.Pos, "offset %s does not follow IL_%04X", line.Offset, body[i-1].Addr.Offset)
			}
			body = append(body, ins)
		}
		m, err := il.NewMethod(decl.Name, body)
		if err != nil {
			return nil, errorf(decl.Pos, "%v", err)
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (l *lineDecl) instruction() (il.Instruction, error) {
	offset, err := strconv.ParseUint(strings.TrimPrefix(l.Offset, "IL_"), 16, 32)
	if err != nil {
		return il.Instruction{}, errorf(l.Pos, "invalid offset %s", l.Offset)
	}

	op, ok := il.Lookup(l.Mnemonic)
	if !ok {
		e := errorf(l.Pos, "unknown opcode %q", l.Mnemonic)
		if similar := engine.FindSimilar(l.Mnemonic, il.Mnemonics(), 3); len(similar) > 0 {
			e.Suggestion = strings.Join(similar, ", ")
		}
		return il.Instruction{}, e
	}

	ins := il.Instruction{
		Addr:   il.Address{Offset: uint32(offset)},
		Opcode: op,
	}

	switch {
	case op.OperandSize() > 0 && l.Operand == nil:
		return il.Instruction{}, errorf(l.Pos, "%s needs an operand", op)
	case op.OperandSize() == 0 && l.Operand != nil:
		return il.Instruction{}, errorf(l.Pos, "%s takes no operand", op)
	case l.Operand != nil:
		ins.Operand, err = parseOperand(op, *l.Operand)
		if err != nil {
			return il.Instruction{}, errorf(l.Pos, "%s: %v", op, err)
		}
	}

	for _, name := range l.Pops {
		slot, err := il.ParseSlot(name)
		if err != nil {
			return il.Instruction{}, errorf(l.Pos, "%v", err)
		}
		ins.Pops = append(ins.Pops, slot)
	}
	return ins, nil
}

func parseFloat(s string) (float64, error) {
	switch s {
	case "nan", "+nan", "-nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseOperand converts the operand text of op into the raw inline operand.
func parseOperand(op il.Opcode, s string) (int64, error) {
	switch op {
	case il.LdcR4:
		f, err := parseFloat(s)
		if err != nil {
			return 0, err
		}
		return int64(math.Float32bits(float32(f))), nil
	case il.LdcR8:
		f, err := parseFloat(s)
		if err != nil {
			return 0, err
		}
		return int64(math.Float64bits(f)), nil
	}

	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		// hex constants may use the full unsigned range
		u, uerr := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 64)
		if uerr != nil {
			return 0, fmt.Errorf("invalid integer %q", s)
		}
		v = int64(u)
	}

	var lo, hi int64
	switch op.OperandSize() {
	case 1:
		lo, hi = math.MinInt8, math.MaxUint8
	case 4:
		lo, hi = math.MinInt32, math.MaxUint32
	default:
		return v, nil
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s does not fit in %d bytes", s, op.OperandSize())
	}
	return v, nil
}
