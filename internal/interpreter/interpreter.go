// Package interpreter executes a program.Program against an input value
// with a bounded step budget. It generalizes gameboy-emulator's
// InstructionFunc dispatch table (internal/cpu/opcodes.go) from uint8
// opcodes to LODA's string mnemonics: every non-control opcode is a small,
// independently testable node function; lpb/lps/lpe and seq/cal are
// special-cased in the execution loop because they affect control flow
// rather than writing a single value.
package interpreter

import (
	"github.com/loda-lang/loda-go/internal/bigint"
	"github.com/loda-lang/loda-go/internal/depmanager"
	"github.com/loda-lang/loda-go/internal/limits"
	"github.com/loda-lang/loda-go/internal/lodalog"
	"github.com/loda-lang/loda-go/internal/loderrors"
	"github.com/loda-lang/loda-go/internal/memory"
	"github.com/loda-lang/loda-go/internal/program"
	"github.com/loda-lang/loda-go/internal/termcache"
)

// DebugEntry is one instruction's debug trace, in the stable format spec
// section 6 describes: the touched cells' values before and after, in
// target,source order.
type DebugEntry struct {
	Line   int
	Text   string
	Before []bigint.Int
	After  []bigint.Int
}

// DebugHook is invoked once per executed single-value instruction when set
// (every opcode handled by execSimple). lpb, lps, lpe, seq, cal and clr
// produce no DebugEntry.
type DebugHook func(DebugEntry)

// Evaluator ties together a DependencyManager (for seq/cal targets), a
// TermCache (for memoizing those calls) and a resource Limits.
type Evaluator struct {
	Mgr    *depmanager.Manager
	Cache  *termcache.Cache
	Limits limits.Limits
	Debug  DebugHook
	Log    lodalog.Logger
}

// New returns an Evaluator with debug disabled and a discard logger.
func New(mgr *depmanager.Manager, cache *termcache.Cache, lim limits.Limits) *Evaluator {
	return &Evaluator{Mgr: mgr, Cache: cache, Limits: lim, Log: lodalog.Discard}
}

// Eval runs p against input, returning its output (cell 0 at the end of
// execution) and the number of steps consumed.
func (e *Evaluator) Eval(p *program.Program, input bigint.Int) (bigint.Int, int64, error) {
	return e.evalFrame(p, input, 0, 0)
}

// evalFrame executes one call frame: a fresh Memory with cell 0 set to
// input, at the given starting loop/call depth.
func (e *Evaluator) evalFrame(p *program.Program, input bigint.Int, loopDepth, callDepth int) (bigint.Int, int64, error) {
	mem := memory.New()
	mem.Set(0, input)
	var steps int64
	if err := e.execRange(p, mem, 0, len(p.Instructions), loopDepth, callDepth, &steps); err != nil {
		return bigint.Undefined, steps, err
	}
	return mem.Get(0), steps, nil
}

// execRange executes instructions [start,end) of p against mem, charging
// steps as it goes. Loop bodies and seq/cal recurse back into this
// function (for loop bodies) or into evalFrame (for calls).
func (e *Evaluator) execRange(p *program.Program, mem *memory.Memory, start, end, loopDepth, callDepth int, steps *int64) error {
	ip := start
	for ip < end {
		if e.Limits.StepBudget > 0 && *steps >= e.Limits.StepBudget {
			return &loderrors.RuntimeError{Kind: loderrors.StepBudgetExceeded, IP: ip, Detail: "step budget exceeded"}
		}
		in := p.Instructions[ip]
		switch {
		case program.LoopOpener(in.Opcode):
			if e.Limits.MaxLoopDepth > 0 && loopDepth >= e.Limits.MaxLoopDepth {
				return &loderrors.RuntimeError{Kind: loderrors.LoopDepthExceeded, IP: ip, Detail: "loop nesting exceeds configured ceiling"}
			}
			bodyEnd := p.LoopEnd[ip]
			if err := e.runLoop(p, mem, in, ip, bodyEnd, loopDepth, callDepth, steps); err != nil {
				return err
			}
			*steps++
			ip = bodyEnd + 1
		case in.Opcode == program.Seq || in.Opcode == program.Cal:
			if err := e.execCall(mem, in, callDepth, steps); err != nil {
				return err
			}
			*steps++
			ip++
		case in.Opcode == program.Clr:
			if err := e.execClr(mem, in); err != nil {
				return err
			}
			*steps++
			ip++
		default:
			if err := e.execSimple(mem, in); err != nil {
				return err
			}
			*steps++
			ip++
		}
	}
	return nil
}

// runLoop implements lpb (monotonic-decrease-under-absolute-value over a
// region) and lps (sum accumulator), per spec section 4.4.
func (e *Evaluator) runLoop(p *program.Program, mem *memory.Memory, in program.Instruction, start, bodyEnd, loopDepth, callDepth int, steps *int64) error {
	targetAddr, err := resolveAddress(in.Target, mem, e.Limits)
	if err != nil {
		return err
	}

	length := int64(1)
	if in.HasSource {
		lv, err := resolveValue(in.Source, mem, e.Limits)
		if err != nil {
			return err
		}
		if n, ok := lv.Int64(); ok && n > 0 {
			length = n
		} else {
			length = 0
		}
	}

	switch in.Opcode {
	case program.Lps:
		acc := mem.Get(targetAddr)
		for {
			before := mem.Get(targetAddr)
			if err := e.execRange(p, mem, start+1, bodyEnd, loopDepth+1, callDepth, steps); err != nil {
				return err
			}
			after := mem.Get(targetAddr)
			acc = acc.Add(after, e.Limits)
			if !regionLess([]bigint.Int{after}, []bigint.Int{before}) {
				mem.Set(targetAddr, acc)
				return nil
			}
		}
	default: // program.Lpb
		if length <= 0 {
			return nil
		}
		for {
			pre := mem.GetRange(targetAddr, length)
			if err := e.execRange(p, mem, start+1, bodyEnd, loopDepth+1, callDepth, steps); err != nil {
				return err
			}
			post := mem.GetRange(targetAddr, length)
			if !regionLess(post, pre) {
				return nil
			}
		}
	}
}

// regionLess reports whether post is lexicographically strictly less than
// pre, comparing corresponding elements by absolute value, first to last.
// Used to decide whether a loop body's side effects shrank the watched
// region enough to run another iteration.
func regionLess(post, pre []bigint.Int) bool {
	n := len(pre)
	if len(post) < n {
		n = len(post)
	}
	for i := 0; i < n; i++ {
		c := post[i].CompareAbs(pre[i])
		if c < 0 {
			return true
		}
		if c > 0 {
			return false
		}
	}
	return false
}

// execCall handles seq/cal: evaluate the referenced program with the
// target's current value as input, through the term cache, then write
// the output back to target. The callee's total step count (including
// its own nested calls) is charged to the caller.
func (e *Evaluator) execCall(mem *memory.Memory, in program.Instruction, callDepth int, steps *int64) error {
	targetAddr, err := resolveAddress(in.Target, mem, e.Limits)
	if err != nil {
		return err
	}
	idVal, err := resolveValue(in.Source, mem, e.Limits)
	if err != nil {
		return err
	}
	id, ok := idVal.Int64()
	if !ok || id < 0 {
		return &loderrors.RuntimeError{Kind: loderrors.AddressError, IP: in.Line, Detail: "seq/cal target id must be a non-negative integer"}
	}
	if e.Limits.MaxCallDepth > 0 && callDepth >= e.Limits.MaxCallDepth {
		return &loderrors.RuntimeError{Kind: loderrors.CallDepthExceeded, IP: in.Line, Detail: "call depth exceeds configured ceiling"}
	}

	callee, err := e.Mgr.Load(id)
	if err != nil {
		return err
	}

	input := mem.Get(targetAddr)
	output, calleeSteps, err := e.Cache.GetOrCompute(id, input, func() (bigint.Int, int64, error) {
		return e.evalFrame(callee, input, 0, callDepth+1)
	})
	if err != nil {
		return err
	}
	*steps += calleeSteps
	if output.IsOverflow() {
		return &loderrors.RuntimeError{Kind: loderrors.MagnitudeExceeded, IP: in.Line, Detail: "seq/cal result exceeds the magnitude ceiling"}
	}
	if output.IsUndefined() {
		return &loderrors.RuntimeError{Kind: loderrors.ArithmeticDomain, IP: in.Line, Detail: "seq/cal produced Undefined"}
	}
	mem.Set(targetAddr, output)
	return nil
}

// execClr clears a length-long region starting at the target address.
func (e *Evaluator) execClr(mem *memory.Memory, in program.Instruction) error {
	targetAddr, err := resolveAddress(in.Target, mem, e.Limits)
	if err != nil {
		return err
	}
	length := int64(1)
	if in.HasSource {
		lv, err := resolveValue(in.Source, mem, e.Limits)
		if err != nil {
			return err
		}
		if n, ok := lv.Int64(); ok && n > 0 {
			length = n
		} else {
			length = 0
		}
	}
	mem.Clear(targetAddr, length)
	return nil
}

// execSimple dispatches the flat, single-value-writing opcodes: every
// mnemonic that isn't a loop, a call, or clr.
func (e *Evaluator) execSimple(mem *memory.Memory, in program.Instruction) error {
	targetAddr, err := resolveAddress(in.Target, mem, e.Limits)
	if err != nil {
		return err
	}
	t := mem.Get(targetAddr)

	var s bigint.Int
	var sourceAddr uint64
	sourceIsReg := in.HasSource && in.Source.Mode != program.Immediate
	if in.HasSource {
		s, err = resolveValue(in.Source, mem, e.Limits)
		if err != nil {
			return err
		}
		if sourceIsReg {
			sourceAddr, _ = resolveAddress(in.Source, mem, e.Limits)
		}
	}

	var before []bigint.Int
	if e.Debug != nil {
		before = append(before, t)
		if sourceIsReg {
			before = append(before, s)
		}
	}

	result, err := computeOp(in.Opcode, t, s, e.Limits)
	if err != nil {
		return err
	}
	if result.IsOverflow() {
		return &loderrors.RuntimeError{Kind: loderrors.MagnitudeExceeded, IP: in.Line, Detail: "result of opcode " + string(in.Opcode) + " exceeds the magnitude ceiling"}
	}
	if result.IsUndefined() {
		return &loderrors.RuntimeError{Kind: loderrors.ArithmeticDomain, IP: in.Line, Detail: "write of Undefined for opcode " + string(in.Opcode)}
	}
	mem.Set(targetAddr, result)

	if e.Debug != nil {
		after := []bigint.Int{mem.Get(targetAddr)}
		if sourceIsReg {
			after = append(after, mem.Get(sourceAddr))
		}
		e.Debug(DebugEntry{Line: in.Line, Text: in.String(), Before: before, After: after})
	}
	return nil
}

type binaryFunc func(t, s bigint.Int, lim limits.Limits) bigint.Int
type boolFunc func(t, s bigint.Int) bigint.Int
type unaryFunc func(t bigint.Int, lim limits.Limits) bigint.Int

var binaryOps = map[program.Opcode]binaryFunc{
	program.Add: bigint.Int.Add,
	program.Sub: bigint.Int.Sub,
	program.Trn: bigint.Int.Trn,
	program.Mul: bigint.Int.Mul,
	program.Div: bigint.Int.Div,
	program.Dif: bigint.Int.Dif,
	program.Dir: bigint.Int.Dir,
	program.Mod: bigint.Int.Mod,
	program.Pow: bigint.Int.Pow,
	program.Gcd: bigint.Int.Gcd,
	program.Bin: bigint.Int.Bin,
	program.Min: bigint.Int.Min,
	program.Max: bigint.Int.Max,
	program.Log: bigint.Int.Log,
	program.Nrt: bigint.Int.Nrt,
	program.Ban: bigint.Int.Ban,
	program.Bor: bigint.Int.Bor,
	program.Bxo: bigint.Int.Bxo,
}

var boolOps = map[program.Opcode]boolFunc{
	program.Cmp: bigint.Int.Cmp,
	program.Equ: bigint.Int.Equ,
	program.Neq: bigint.Int.Neq,
	program.Leq: bigint.Int.Leq,
	program.Geq: bigint.Int.Geq,
	program.Lex: bigint.Int.Lex,
}

var unaryOps = map[program.Opcode]unaryFunc{
	program.Fac: bigint.Int.Fac,
	program.Dgs: bigint.Int.Dgs,
	program.Dgr: bigint.Int.Dgr,
}

func computeOp(op program.Opcode, t, s bigint.Int, lim limits.Limits) (bigint.Int, error) {
	if op == program.Mov {
		return s, nil
	}
	if f, ok := binaryOps[op]; ok {
		return f(t, s, lim), nil
	}
	if f, ok := boolOps[op]; ok {
		return f(t, s), nil
	}
	if f, ok := unaryOps[op]; ok {
		return f(t, lim), nil
	}
	return bigint.Undefined, &loderrors.RuntimeError{Kind: loderrors.ArithmeticDomain, Detail: "unhandled opcode " + string(op)}
}

// resolveAddress turns a Direct/Indirect operand into a concrete address.
// Indirect addresses are bounds-checked against Limits.AddressMax; an
// out-of-range address is an AddressError that aborts the whole
// evaluation, returned from Eval like every other runtime error.
func resolveAddress(op program.Operand, mem *memory.Memory, lim limits.Limits) (uint64, error) {
	switch op.Mode {
	case program.Direct:
		return uint64(op.Value), nil
	case program.Indirect:
		v := mem.Get(uint64(op.Value))
		a, ok := v.Int64()
		if !ok || a < 0 || (lim.AddressMax > 0 && a > lim.AddressMax) {
			return 0, &loderrors.RuntimeError{Kind: loderrors.AddressError, Detail: "indirect address out of range"}
		}
		return uint64(a), nil
	default:
		return 0, &loderrors.RuntimeError{Kind: loderrors.AddressError, Detail: "immediate operand has no address"}
	}
}

// resolveValue reads an operand's value: the literal itself for
// Immediate, or the addressed cell's contents for Direct/Indirect.
func resolveValue(op program.Operand, mem *memory.Memory, lim limits.Limits) (bigint.Int, error) {
	if op.Mode == program.Immediate {
		return bigint.FromInt64(op.Value), nil
	}
	addr, err := resolveAddress(op, mem, lim)
	if err != nil {
		return bigint.Undefined, err
	}
	return mem.Get(addr), nil
}
