// Package limits holds the resource ceilings an embedder configures for one
// evaluator instance. The core never reads these from a file (TOML parsing
// lives outside this repo); callers build a Limits value directly or via
// DefaultLimits and thread it through bigint, memory, parser, depmanager and
// interpreter.
package limits

// Limits bounds the resources a single evaluation may consume, per spec
// section 5. Every limit below produces a typed error rather than a crash
// or unbounded resource use.
type Limits struct {
	// MagnitudeDigits is the maximum decimal digit length of a BigInt
	// magnitude. Arithmetic producing a larger result yields Undefined.
	MagnitudeDigits int

	// StepBudget is the maximum number of instruction-equivalents a single
	// top-level evaluation may consume.
	StepBudget int64

	// AddressMax bounds indirect addressing ($$k): the resolved address
	// must satisfy 0 <= a <= AddressMax.
	AddressMax int64

	// MaxInstructions bounds the instruction count of a parsed program.
	MaxInstructions int

	// MaxLoopDepth bounds nested lpb/lps depth during execution.
	MaxLoopDepth int

	// MaxCallDepth bounds nested seq/cal recursion depth.
	MaxCallDepth int
}

// DefaultLimits returns the conservative defaults named in the spec.
func DefaultLimits() Limits {
	return Limits{
		MagnitudeDigits: 10000,
		StepBudget:      10_000_000,
		AddressMax:      100_000,
		MaxInstructions: 10_000,
		MaxLoopDepth:    100,
		MaxCallDepth:    100,
	}
}
