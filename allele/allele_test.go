package allele

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		q        int
		expected float64
	}{
		{0, 0},
		{10, 0.9},
		{20, 0.99},
		{30, 0.999},
		{-5, 0}, // negative quality clamps to 0
	}

	for _, test := range tests {
		assert.InDelta(t, test.expected, Accuracy(test.q), 1e-9)
	}
}

func TestAccuracyMonotonic(t *testing.T) {
	prev := 0.0
	for q := 0; q <= 60; q++ {
		a := Accuracy(q)
		assert.True(t, a >= prev, "Accuracy(%d) should not decrease", q)
		assert.True(t, a < 1, "Accuracy(%d) should stay below 1", q)
		prev = a
	}
}

func TestSNPAlleleEqual(t *testing.T) {
	a := SNPAllele('A')
	b := SNPAllele('A')
	c := SNPAllele('G')

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, a.IsSNV())
}

func TestIndelAlleleNotSNV(t *testing.T) {
	ins := IndelAllele("ATT")
	assert.False(t, ins.IsSNV())
	assert.False(t, ins.Equal(SNPAllele('A')))
	assert.Equal(t, "INDEL(ATT)", ins.String())
}

func TestAccuracyMatchesFormula(t *testing.T) {
	for _, q := range []int{1, 13, 40} {
		want := 1 - math.Pow(10, -float64(q)/10)
		assert.InDelta(t, want, Accuracy(q), 1e-12)
	}
}
