// Package parser turns LODA source text into a program.Program. It is a
// pure leaf: parsing never touches the filesystem, never recurses into
// other programs, and is a total function from source string to either a
// Program or a typed loderrors.ParseError (spec testable property 4).
//
// Grounded on chriskillpack-bbcdisasm's opcode-table approach, adapted
// from disassembly (bytes to text) to assembly (text to instructions).
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/loda-lang/loda-go/internal/limits"
	"github.com/loda-lang/loda-go/internal/loderrors"
	"github.com/loda-lang/loda-go/internal/program"
)

var knownOpcodes = map[string]program.Opcode{
	"mov": program.Mov, "add": program.Add, "sub": program.Sub, "trn": program.Trn,
	"mul": program.Mul, "div": program.Div, "dif": program.Dif, "dir": program.Dir,
	"mod": program.Mod, "pow": program.Pow, "fac": program.Fac, "gcd": program.Gcd,
	"bin": program.Bin, "cmp": program.Cmp, "min": program.Min, "max": program.Max,
	"log": program.Log, "lpb": program.Lpb, "lpe": program.Lpe, "nrt": program.Nrt,
	"dgs": program.Dgs, "dgr": program.Dgr, "lex": program.Lex, "equ": program.Equ,
	"neq": program.Neq, "leq": program.Leq, "geq": program.Geq, "ban": program.Ban,
	"bor": program.Bor, "bxo": program.Bxo, "seq": program.Seq, "cal": program.Cal,
	"lps": program.Lps, "clr": program.Clr,
}

var reservedOpcode = regexp.MustCompile(`^f\d\d$`)
var offsetPragma = regexp.MustCompile(`^#offset\s+(-?\d+)\s*$`)

// Parse compiles source into a Program, or returns a *loderrors.ParseError.
func Parse(source string, lim limits.Limits) (*program.Program, error) {
	var instructions []program.Instruction
	loopStack := []int{}
	loopEnd := map[int]int{}
	var offset int64

	lines := strings.Split(source, "\n")
	for lineNo, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := offsetPragma.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return nil, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo + 1, Detail: "malformed #offset value"}
			}
			offset = v
			continue
		}
		if strings.HasPrefix(line, "#") {
			// Unrecognized pragma lines are ignored, matching LODA's
			// tolerance for forward-compatible directives.
			continue
		}

		in, err := parseInstruction(line, lineNo+1)
		if err != nil {
			return nil, err
		}

		switch {
		case program.LoopOpener(in.Opcode):
			loopStack = append(loopStack, len(instructions))
		case in.Opcode == program.Lpe:
			if len(loopStack) == 0 {
				return nil, &loderrors.ParseError{Kind: loderrors.UnbalancedLoop, Line: lineNo + 1, Detail: "lpe with no matching lpb/lps"}
			}
			open := loopStack[len(loopStack)-1]
			loopStack = loopStack[:len(loopStack)-1]
			loopEnd[open] = len(instructions)
		}

		instructions = append(instructions, in)
		if lim.MaxInstructions > 0 && len(instructions) > lim.MaxInstructions {
			return nil, &loderrors.ParseError{Kind: loderrors.ProgramTooLong, Line: lineNo + 1, Detail: "instruction count exceeds configured ceiling"}
		}
	}

	if len(loopStack) != 0 {
		return nil, &loderrors.ParseError{Kind: loderrors.UnbalancedLoop, Line: len(lines), Detail: "unclosed lpb/lps at end of program"}
	}

	return program.New(instructions, loopEnd, offset), nil
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		return line[:idx]
	}
	return line
}

func parseInstruction(line string, lineNo int) (program.Instruction, error) {
	fields := strings.SplitN(line, " ", 2)
	opText := strings.ToLower(strings.TrimSpace(fields[0]))
	opcode, ok := knownOpcodes[opText]
	if !ok {
		if reservedOpcode.MatchString(opText) {
			return program.Instruction{}, &loderrors.ParseError{
				Kind: loderrors.UnrecognizedParameterValue, Line: lineNo,
				Detail: "reserved opcode '" + opText + "' has no defined semantics",
			}
		}
		return program.Instruction{}, &loderrors.ParseError{
			Kind: loderrors.UnknownOpcode, Line: lineNo, Detail: "unknown opcode '" + opText + "'",
		}
	}

	var operandText string
	if len(fields) > 1 {
		operandText = strings.TrimSpace(fields[1])
	}

	var operands []program.Operand
	if operandText != "" {
		for _, part := range strings.Split(operandText, ",") {
			op, err := parseOperand(strings.TrimSpace(part), lineNo)
			if err != nil {
				return program.Instruction{}, err
			}
			operands = append(operands, op)
		}
	}

	in := program.Instruction{Opcode: opcode, Line: lineNo}

	switch {
	case program.NoOperand(opcode):
		if len(operands) != 0 {
			return program.Instruction{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: opText + " takes no operands"}
		}
	case program.IsUnary(opcode):
		if len(operands) != 1 {
			return program.Instruction{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: opText + " requires exactly one operand"}
		}
		in.Target = operands[0]
		in.HasSource = false
	case program.LoopOpener(opcode):
		if len(operands) < 1 || len(operands) > 2 {
			return program.Instruction{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: opText + " requires one or two operands"}
		}
		in.Target = operands[0]
		if len(operands) == 2 {
			in.Source = operands[1]
			in.HasSource = true
		}
	default:
		if len(operands) != 2 {
			return program.Instruction{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: opText + " requires exactly two operands"}
		}
		in.Target = operands[0]
		in.Source = operands[1]
		in.HasSource = true
	}

	if in.Target.Mode == program.Immediate && !program.NoOperand(opcode) {
		// Every non-lpe opcode writes its result to the target; an
		// immediate can never be a write destination.
		return program.Instruction{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: opText + " target must be a register, not an immediate"}
	}

	return in, nil
}

func parseOperand(text string, lineNo int) (program.Operand, error) {
	if text == "" {
		return program.Operand{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: "empty operand"}
	}
	mode := program.Immediate
	rest := text
	switch {
	case strings.HasPrefix(text, "$$"):
		mode = program.Indirect
		rest = text[2:]
	case strings.HasPrefix(text, "$"):
		mode = program.Direct
		rest = text[1:]
	}
	if rest == "" {
		return program.Operand{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: "missing digits in operand '" + text + "'"}
	}
	v, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return program.Operand{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: "malformed operand '" + text + "'"}
	}
	if mode != program.Immediate && v < 0 {
		return program.Operand{}, &loderrors.ParseError{Kind: loderrors.BadOperand, Line: lineNo, Detail: "register address must be non-negative in '" + text + "'"}
	}
	return program.Operand{Mode: mode, Value: v}, nil
}
