package x86

// Cond is a condition code for conditional jumps and moves.
type Cond int

const (
	CondEqual          Cond = iota // JE/JZ - equal/zero
	CondNotEqual                   // JNE/JNZ - not equal/not zero
	CondGreater                    // JG/JNLE - greater (signed)
	CondGreaterOrEqual             // JGE/JNL - greater or equal (signed)
	CondLess                       // JL/JNGE - less (signed)
	CondLessOrEqual                // JLE/JNG - less or equal (signed)
	CondAbove                      // JA/JNBE - above (unsigned)
	CondAboveOrEqual               // JAE/JNB - above or equal (unsigned)
	CondBelow                      // JB/JNAE - below (unsigned)
	CondBelowOrEqual               // JBE/JNA - below or equal (unsigned)
	CondParity                     // JP - parity/NaN
	CondNotParity                  // JNP - not parity/not NaN
)

var condSuffixes = [...]string{
	CondEqual:          "e",
	CondNotEqual:       "ne",
	CondGreater:        "g",
	CondGreaterOrEqual: "ge",
	CondLess:           "l",
	CondLessOrEqual:    "le",
	CondAbove:          "a",
	CondAboveOrEqual:   "ae",
	CondBelow:          "b",
	CondBelowOrEqual:   "be",
	CondParity:         "p",
	CondNotParity:      "np",
}

// Suffix is the mnemonic suffix used by jcc/cmovcc/setcc.
func (c Cond) Suffix() string {
	if c < 0 || int(c) >= len(condSuffixes) {
		return "?"
	}
	return condSuffixes[c]
}

func (c Cond) String() string { return c.Suffix() }

// Negate returns the condition that holds exactly when c does not.
func (c Cond) Negate() Cond {
	switch c {
	case CondEqual:
		return CondNotEqual
	case CondNotEqual:
		return CondEqual
	case CondGreater:
		return CondLessOrEqual
	case CondGreaterOrEqual:
		return CondLess
	case CondLess:
		return CondGreaterOrEqual
	case CondLessOrEqual:
		return CondGreater
	case CondAbove:
		return CondBelowOrEqual
	case CondAboveOrEqual:
		return CondBelow
	case CondBelow:
		return CondAboveOrEqual
	case CondBelowOrEqual:
		return CondAbove
	case CondParity:
		return CondNotParity
	default:
		return CondParity
	}
}

// FloatPredicate is the comparison predicate immediate of cmpss.
type FloatPredicate uint8

const (
	PredEqual          FloatPredicate = 0 // ordered, false on NaN
	PredLess           FloatPredicate = 1 // ordered, false on NaN
	PredLessOrEqual    FloatPredicate = 2 // ordered, false on NaN
	PredUnordered      FloatPredicate = 3
	PredNotEqual       FloatPredicate = 4 // true on NaN
	PredNotLess        FloatPredicate = 5 // true on NaN
	PredNotLessOrEqual FloatPredicate = 6 // true on NaN
	PredOrdered        FloatPredicate = 7
)

var predicateNames = [...]string{"eq", "lt", "le", "unord", "neq", "nlt", "nle", "ord"}

func (p FloatPredicate) String() string {
	if int(p) < len(predicateNames) {
		return predicateNames[p]
	}
	return "?"
}

// ArithOp selects a two-operand arithmetic or bitwise instruction.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpAdc
	OpSub
	OpSbb
	OpAnd
	OpOr
	OpXor
)

var arithNames = [...]string{"add", "adc", "sub", "sbb", "and", "or", "xor"}

func (op ArithOp) String() string {
	if op < 0 || int(op) >= len(arithNames) {
		return "?"
	}
	return arithNames[op]
}
