package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loda-lang/loda-go/internal/limits"
	"github.com/loda-lang/loda-go/internal/loderrors"
	"github.com/loda-lang/loda-go/internal/program"
)

func lim() limits.Limits { return limits.DefaultLimits() }

func TestParseSimpleProgram(t *testing.T) {
	src := "mov $1,2\npow $1,$0\n"
	p, err := Parse(src, lim())
	require.NoError(t, err)
	require.Len(t, p.Instructions, 2)
	assert.Equal(t, program.Mov, p.Instructions[0].Opcode)
	assert.Equal(t, program.Direct, p.Instructions[0].Target.Mode)
	assert.Equal(t, int64(1), p.Instructions[0].Target.Value)
	assert.Equal(t, program.Immediate, p.Instructions[0].Source.Mode)
	assert.Equal(t, int64(2), p.Instructions[0].Source.Value)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	src := "; a comment\n\nmov $0,1 ; trailing comment\n\n"
	p, err := Parse(src, lim())
	require.NoError(t, err)
	require.Len(t, p.Instructions, 1)
}

func TestParseIndirectOperand(t *testing.T) {
	p, err := Parse("mov $$0,$1\n", lim())
	require.NoError(t, err)
	assert.Equal(t, program.Indirect, p.Instructions[0].Target.Mode)
	assert.Equal(t, int64(0), p.Instructions[0].Target.Value)
}

func TestParseOffsetPragma(t *testing.T) {
	p, err := Parse("#offset 3\nmov $1,$0\n", lim())
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Offset)
	require.Len(t, p.Instructions, 1)
}

func TestParseUnknownOpcode(t *testing.T) {
	_, err := Parse("xyz $0,1\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.UnknownOpcode, pe.Kind)
}

func TestParseReservedOpcode(t *testing.T) {
	_, err := Parse("f12 $0,1\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.UnrecognizedParameterValue, pe.Kind)
}

func TestParseImmediateTargetRejected(t *testing.T) {
	_, err := Parse("mov 1,$0\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.BadOperand, pe.Kind)
}

func TestParseUnbalancedLoopUnclosed(t *testing.T) {
	_, err := Parse("lpb $0,1\nadd $0,1\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.UnbalancedLoop, pe.Kind)
}

func TestParseUnbalancedLoopStrayLpe(t *testing.T) {
	_, err := Parse("lpe\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.UnbalancedLoop, pe.Kind)
}

func TestParseNestedLoopsMatchNearestOpener(t *testing.T) {
	src := "lpb $0,1\nlpb $1,1\nadd $1,1\nlpe\nadd $0,1\nlpe\n"
	p, err := Parse(src, lim())
	require.NoError(t, err)
	// indices: 0 lpb, 1 lpb, 2 add, 3 lpe, 4 add, 5 lpe
	assert.Equal(t, 3, p.LoopEnd[1])
	assert.Equal(t, 5, p.LoopEnd[0])
}

func TestParseProgramTooLong(t *testing.T) {
	small := lim()
	small.MaxInstructions = 2
	_, err := Parse("add $0,1\nadd $0,1\nadd $0,1\n", small)
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.ProgramTooLong, pe.Kind)
}

func TestParseMalformedOperand(t *testing.T) {
	_, err := Parse("add $0,abc\n", lim())
	require.Error(t, err)
	pe, ok := err.(*loderrors.ParseError)
	require.True(t, ok)
	assert.Equal(t, loderrors.BadOperand, pe.Kind)
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		"", "   ", ";;;", "$$$$", "mov", "mov $0", "mov $0,$1,$2",
		"lpb", "lpe lpe", "f99 1,2", "#offset", "#offset abc",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			Parse(in, lim())
		}, "input %q must never panic", in)
	}
}

func TestParseClrAndLoopLengthForms(t *testing.T) {
	p, err := Parse("clr $0,5\nlpb $0\nadd $0,1\nlpe\n", lim())
	require.NoError(t, err)
	assert.Equal(t, program.Clr, p.Instructions[0].Opcode)
	assert.True(t, p.Instructions[0].HasSource)
	assert.Equal(t, program.Lpb, p.Instructions[1].Opcode)
	assert.False(t, p.Instructions[1].HasSource, "one-operand lpb form has no explicit length")
}
