package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDeterministic(t *testing.T) {
	pct1, letter1 := Normalize(42, 60)
	pct2, letter2 := Normalize(42, 60)
	assert.Equal(t, pct1, pct2)
	assert.Equal(t, letter1, letter2)
	assert.Equal(t, 70, pct1)
}

func TestNormalizeRounding(t *testing.T) {
	pct, _ := Normalize(1, 3)
	assert.Equal(t, 33, pct)
	pct, _ = Normalize(2, 3)
	assert.Equal(t, 67, pct)
}

func TestNormalizeAboveMax(t *testing.T) {
	pct, letter := Normalize(110, 100)
	assert.Equal(t, 110, pct)
	assert.Equal(t, "A+", string(letter))
}

func TestLetterBandBoundaries(t *testing.T) {
	cases := map[int]string{
		0: "F", 44: "F",
		45: "D", 49: "D",
		50: "C-", 54: "C-",
		55: "C", 59: "C",
		60: "C+", 64: "C+",
		65: "B-", 69: "B-",
		70: "B", 74: "B",
		75: "B+", 79: "B+",
		80: "A-", 84: "A-",
		85: "A", 89: "A",
		90: "A+", 100: "A+",
	}
	for pct, want := range cases {
		assert.Equal(t, want, string(LetterFor(pct)), "percentage %d", pct)
	}
}
