// Package program holds the immutable result of parsing: an instruction
// list plus its pre-computed loop nesting. This mirrors the split
// gameboy-emulator draws between immutable cartridge data and mutable CPU
// execution state — a Program never changes once built.
package program

import "fmt"

// AddressingMode selects how an Operand's Value is interpreted.
type AddressingMode int

const (
	// Immediate: the operand's Value is used directly as a BigInt literal.
	Immediate AddressingMode = iota
	// Direct: the operand's Value is a register address ($k).
	Direct
	// Indirect: the operand's Value is a register address whose current
	// value is itself the address to use ($$k).
	Indirect
)

func (m AddressingMode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Direct:
		return "direct"
	case Indirect:
		return "indirect"
	default:
		return "unknown"
	}
}

// Operand is one operand of an Instruction, in one of the three addressing
// modes LODA supports. Value is a literal for Immediate, a register index
// for Direct and Indirect.
type Operand struct {
	Mode  AddressingMode
	Value int64
}

// String renders the operand using LODA's surface syntax: a bare integer
// for Immediate, "$k" for Direct, "$$k" for Indirect.
func (o Operand) String() string {
	switch o.Mode {
	case Direct:
		return fmt.Sprintf("$%d", o.Value)
	case Indirect:
		return fmt.Sprintf("$$%d", o.Value)
	default:
		return fmt.Sprintf("%d", o.Value)
	}
}

// Opcode is one of LODA's fixed set of mnemonics.
type Opcode string

// The closed opcode enumeration, per spec section 4.3. Cal is an
// additional synonym for Seq (see SPEC_FULL.md section 5): older program
// sources use it interchangeably.
const (
	Mov Opcode = "mov"
	Add Opcode = "add"
	Sub Opcode = "sub"
	Trn Opcode = "trn"
	Mul Opcode = "mul"
	Div Opcode = "div"
	Dif Opcode = "dif"
	Dir Opcode = "dir"
	Mod Opcode = "mod"
	Pow Opcode = "pow"
	Fac Opcode = "fac"
	Gcd Opcode = "gcd"
	Bin Opcode = "bin"
	Cmp Opcode = "cmp"
	Min Opcode = "min"
	Max Opcode = "max"
	Log Opcode = "log"
	Lpb Opcode = "lpb"
	Lpe Opcode = "lpe"
	Nrt Opcode = "nrt"
	Dgs Opcode = "dgs"
	Dgr Opcode = "dgr"
	Lex Opcode = "lex"
	Equ Opcode = "equ"
	Neq Opcode = "neq"
	Leq Opcode = "leq"
	Geq Opcode = "geq"
	Ban Opcode = "ban"
	Bor Opcode = "bor"
	Bxo Opcode = "bxo"
	Seq Opcode = "seq"
	Cal Opcode = "cal"
	Lps Opcode = "lps"
	Clr Opcode = "clr"
)

// unaryOpcodes take exactly one operand (the target); Source is unused.
var unaryOpcodes = map[Opcode]bool{
	Fac: true,
	Dgs: true,
	Dgr: true,
}

// IsUnary reports whether op takes exactly one operand.
func IsUnary(op Opcode) bool { return unaryOpcodes[op] }

// NoOperand reports whether op takes no operands at all.
func NoOperand(op Opcode) bool { return op == Lpe }

// LoopOpener reports whether op opens a loop (lpb or lps), matched later
// by an lpe. Loop openers accept an optional second (length) operand,
// defaulting to length 1 when omitted.
func LoopOpener(op Opcode) bool { return op == Lpb || op == Lps }

// Instruction is one parsed source line: an opcode plus up to two
// operands in their addressing modes. Line is the 1-based source line
// number, used for debug output and error messages.
type Instruction struct {
	Opcode Opcode
	Target Operand
	Source Operand
	// HasSource distinguishes the one-operand lpb/lps form (and fac, dgs
	// and dgr, which never have a source) from an explicit second operand.
	HasSource bool
	Line      int
}

// String renders the instruction in LODA's source syntax.
func (in Instruction) String() string {
	if NoOperand(in.Opcode) {
		return string(in.Opcode)
	}
	if !in.HasSource {
		return fmt.Sprintf("%s %s", in.Opcode, in.Target)
	}
	return fmt.Sprintf("%s %s,%s", in.Opcode, in.Target, in.Source)
}

// Program is the immutable result of parsing one source file: its
// instructions plus the pre-computed loop nesting (each lpb/lps index
// mapped to its matching lpe index).
type Program struct {
	Instructions []Instruction
	// LoopEnd maps an opener index (lpb/lps) to its matching lpe index.
	LoopEnd map[int]int
	// LoopStart is the reverse of LoopEnd: an lpe index to its opener.
	LoopStart map[int]int
	// Offset is the #offset pragma value, affecting only the outermost
	// driver's n-to-cell0 mapping (see SPEC_FULL.md section 3.3).
	Offset int64
}

// New builds a Program from an already-parsed instruction list and loop
// table. The parser is the only expected caller; it has already validated
// loop balance.
func New(instructions []Instruction, loopEnd map[int]int, offset int64) *Program {
	loopStart := make(map[int]int, len(loopEnd))
	for open, close := range loopEnd {
		loopStart[close] = open
	}
	return &Program{Instructions: instructions, LoopEnd: loopEnd, LoopStart: loopStart, Offset: offset}
}

// Source renders a normalized textual form of the program, one
// instruction per line.
func (p *Program) Source() string {
	out := ""
	for _, in := range p.Instructions {
		out += in.String() + "\n"
	}
	return out
}

// Len returns the instruction count.
func (p *Program) Len() int { return len(p.Instructions) }
