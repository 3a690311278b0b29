package gcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john/gcodetime/estimator"
)

func TestTokenizeBasicMove(t *testing.T) {
	r := Tokenize("G1 X10.5 Y-2 F3000")
	assert.Equal(t, byte('G'), r.CommandLetter())
	assert.Equal(t, 1, r.CommandNumber())
	assert.True(t, r.Has('X'))
	assert.InDelta(t, 10.5, r.Value('X'), 1e-9)
	assert.InDelta(t, -2, r.Value('Y'), 1e-9)
	assert.InDelta(t, 3000, r.Value('F'), 1e-9)
}

func TestTokenizeIgnoresLineNumber(t *testing.T) {
	r := Tokenize("N10 G1 X5")
	assert.Equal(t, byte('G'), r.CommandLetter())
	assert.Equal(t, 1, r.CommandNumber())
	assert.True(t, r.Has('X'))
	assert.False(t, r.Has('N'))
}

func TestTokenizeStripsTrailingComment(t *testing.T) {
	r := Tokenize("G1 X5 ; move to 5")
	assert.True(t, r.Has('X'))
	assert.Equal(t, "move to 5", r.Comment)
}

func TestTokenizeCommentOnlyLineIsEmpty(t *testing.T) {
	r := Tokenize("; just a comment")
	assert.True(t, r.IsEmpty())
}

func TestTokenizeBlankLineIsEmpty(t *testing.T) {
	r := Tokenize("   ")
	assert.True(t, r.IsEmpty())
}

func TestTokenizeLowercaseLetters(t *testing.T) {
	r := Tokenize("g1 x5 f1500")
	assert.Equal(t, byte('G'), r.CommandLetter())
	assert.True(t, r.Has('X'))
	assert.InDelta(t, 5, r.Value('X'), 1e-9)
}

func TestScanFeedsEveryLineToTheEstimator(t *testing.T) {
	e := estimator.New()
	program := "G28\nG1 X10 F1500\n; comment\nG1 Y10\n"

	require.NoError(t, Scan(strings.NewReader(program), e))
	assert.Equal(t, 2, e.BlockCount())
}

func TestScanLinesReportsProgressEveryN(t *testing.T) {
	e := estimator.New()
	program := "G1 X1 F1500\nG1 X2\nG1 X3\nG1 X4\n"

	var calls []int
	require.NoError(t, ScanLines(strings.NewReader(program), e, 2, func(n int) {
		calls = append(calls, n)
	}))

	assert.Equal(t, []int{2, 4}, calls)
	assert.Equal(t, 4, e.BlockCount())
}
