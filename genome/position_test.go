package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenomePositionLessOrdersByContigThenPosition(t *testing.T) {
	order := NewContigOrder([]string{"chr1", "chr2", "chr3"})

	a := GenomePosition{Contig: "chr1", Position: 100}
	b := GenomePosition{Contig: "chr2", Position: 1}
	assert.True(t, a.Less(b, order))
	assert.False(t, b.Less(a, order))

	c := GenomePosition{Contig: "chr1", Position: 50}
	d := GenomePosition{Contig: "chr1", Position: 100}
	assert.True(t, c.Less(d, order))
}

func TestGenomePositionLessUnknownContigSortsAfterKnown(t *testing.T) {
	order := NewContigOrder([]string{"chr1"})
	known := GenomePosition{Contig: "chr1", Position: 1}
	unknown := GenomePosition{Contig: "chrUn", Position: 1}
	assert.True(t, known.Less(unknown, order))
	assert.False(t, unknown.Less(known, order))
}

func TestGenomePositionAddClampsAtOne(t *testing.T) {
	p := GenomePosition{Contig: "chr1", Position: 5}
	assert.Equal(t, 1, p.Add(-10).Position)
	assert.Equal(t, 15, p.Add(10).Position)
}

func TestNewReferencePositionResolvesSoleAlt(t *testing.T) {
	rp, err := NewReferencePosition("chr1", 100, "A", []string{"A", "G", "A"})
	assert.NoError(t, err)
	assert.Equal(t, "G", rp.Alt)
	assert.Equal(t, "A", rp.Ref)
}

func TestNewReferencePositionRejectsMultiBaseRef(t *testing.T) {
	_, err := NewReferencePosition("chr1", 100, "AT", []string{"G"})
	assert.Error(t, err)
}

func TestNewReferencePositionRejectsMultipleDistinctAlts(t *testing.T) {
	_, err := NewReferencePosition("chr1", 100, "A", []string{"G", "T"})
	assert.Error(t, err)
}

func TestNewReferencePositionRejectsNoAlt(t *testing.T) {
	_, err := NewReferencePosition("chr1", 100, "A", []string{"A"})
	assert.Error(t, err)
}

func TestWindowClampsLowerBoundAndIsSymmetric(t *testing.T) {
	p := GenomePosition{Contig: "chr1", Position: 10}
	start, stop := Window(p, 15)
	assert.Equal(t, 1, start.Position)
	assert.Equal(t, 25, stop.Position)
}

func TestBinsCoverWholeContigWithoutOverlap(t *testing.T) {
	bins := Bins("chr1", BinSize*2+500)
	assert.Len(t, bins, 3)
	assert.Equal(t, 0, bins[0].Start)
	assert.Equal(t, BinSize, bins[0].End)
	assert.Equal(t, BinSize*2, bins[1].End)
	assert.Equal(t, BinSize*2+500, bins[2].End)
	for i := 1; i < len(bins); i++ {
		assert.Equal(t, bins[i-1].End, bins[i].Start)
	}
}
