package classify

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"

	"github.com/PankratzLab/SuperNovo/allele"
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/pileup"
)

func record(name string, base byte, qual, mapQ byte) *sam.Record {
	return &sam.Record{
		Name:  name,
		Pos:   100,
		Seq:   sam.NewSeq([]byte{base}),
		Qual:  []byte{qual},
		MapQ:  mapQ,
		Cigar: sam.Cigar{sam.NewCigarOp(sam.CigarEqual, 1)},
	}
}

// buildPileup adds n1 reads of base1 and n2 reads of base2 to a pileup at
// position 101 (1-based), all high quality.
func buildPileup(base1 byte, n1 int, base2 byte, n2 int) *pileup.Pileup {
	b := pileup.NewBuilder(genome.GenomePosition{Contig: "chr1", Position: 101})
	for i := 0; i < n1; i++ {
		b.AddRecord(record(uniqueName("a", i), base1, 40, 60))
	}
	for i := 0; i < n2; i++ {
		b.AddRecord(record(uniqueName("b", i), base2, 40, 60))
	}
	return b.Build()
}

func uniqueName(prefix string, i int) string {
	return prefix + string(rune('0'+i))
}

func defaultCfg() config.Config { return config.Default() }

func TestLooksVariantRequiresExactlyTwoAllelesAtSufficientDepth(t *testing.T) {
	cfg := defaultCfg()
	p := buildPileup('A', 10, 'G', 10)
	assert.True(t, LooksVariant(cfg, p.Depth()))
}

func TestLooksVariantFailsBelowMinDepth(t *testing.T) {
	cfg := defaultCfg()
	p := buildPileup('A', 2, 'G', 2)
	assert.False(t, LooksVariant(cfg, p.Depth()))
}

func TestLooksVariantFailsBelowMinAllelicFrac(t *testing.T) {
	cfg := defaultCfg()
	// Minor allele at ~2% of total depth, well under the 10% floor.
	p := buildPileup('A', 98, 'G', 2)
	assert.False(t, LooksVariant(cfg, p.Depth()))
}

func TestLooksBiallelicFailsWithThreeAlleles(t *testing.T) {
	cfg := defaultCfg()
	b := pileup.NewBuilder(genome.GenomePosition{Contig: "chr1", Position: 101})
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("a", i), 'A', 40, 60))
	}
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("b", i), 'G', 40, 60))
	}
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("c", i), 'T', 40, 60))
	}
	p := b.Build()
	assert.False(t, LooksBiallelic(cfg, p), "a third viable allele makes the site triallelic, not biallelic")
}

func TestPossibleAllelesExcludesRareMiscalls(t *testing.T) {
	cfg := defaultCfg()
	// One stray read out of 100 is within both the miscall-weight and
	// miscall-fraction ceilings, so it should not register as possible.
	p := buildPileup('A', 99, 'G', 1)
	possible := PossibleAlleles(cfg, p)
	assert.True(t, possible[allele.SNPAllele('A')])
	assert.False(t, possible[allele.SNPAllele('G')])
}

func TestMoreThanTwoViableAllelesTrueForTriallelic(t *testing.T) {
	cfg := defaultCfg()
	b := pileup.NewBuilder(genome.GenomePosition{Contig: "chr1", Position: 101})
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("a", i), 'A', 40, 60))
	}
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("b", i), 'G', 40, 60))
	}
	for i := 0; i < 10; i++ {
		b.AddRecord(record(uniqueName("c", i), 'T', 40, 60))
	}
	p := b.Build()
	assert.True(t, MoreThanTwoViableAlleles(cfg, p))
}

func TestDNAlleleIdentifiesChildOnlyAllele(t *testing.T) {
	cfg := defaultCfg()
	child := buildPileup('A', 10, 'G', 10)
	p1 := buildPileup('A', 20, 0, 0)
	p2 := buildPileup('A', 20, 0, 0)

	a, ok := DNAllele(cfg, child, p1, p2)
	assert.True(t, ok)
	assert.Equal(t, allele.SNPAllele('G'), a)
}

func TestDNAlleleAmbiguousWhenInheritedFromEitherParent(t *testing.T) {
	cfg := defaultCfg()
	child := buildPileup('A', 10, 'G', 10)
	p1 := buildPileup('A', 10, 'G', 10)
	p2 := buildPileup('A', 20, 0, 0)

	_, ok := DNAllele(cfg, child, p1, p2)
	assert.False(t, ok, "an allele present in a parent's possible set is not de novo")
}

func TestLooksDenovoWithoutParentsIsAmbiguous(t *testing.T) {
	// With no parental pileups to filter possible alleles, both of the
	// child's biallelic alleles remain candidates, so the de novo allele is
	// ambiguous. Solo-mode evaluation never calls LooksDenovo for this
	// reason: emission is gated on LooksVariant alone (DESIGN.md).
	cfg := defaultCfg()
	child := buildPileup('A', 10, 'G', 10)
	assert.False(t, LooksDenovo(cfg, child, nil, nil))
}

func TestPassesAllelicDepth(t *testing.T) {
	p := buildPileup('A', 10, 'G', 10)
	assert.True(t, PassesAllelicDepth(p.Depth(), 5))
	assert.False(t, PassesAllelicDepth(p.Depth(), 11))
}
