// Package result defines the DeNovoResult/Sample/HaplotypeResult record
// types and the output conventions built on top of them: the recursive
// <outer>_<inner> field flattening (grounded on original_source's
// output/OutputFields.java) and the summary categorization (grounded on
// AbstractEvaluator.summarizeResults).
package result

import (
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/haplotype"
	"github.com/PankratzLab/SuperNovo/pileup"
)

// Sample is one participating sample's pileup statistics at a candidate
// position, framed relative to the child's A1/A2 so parent fields are
// directly comparable across samples.
type Sample struct {
	SampleID string `col:"sampleID"`

	WeightedDepthA1 float64 `col:"weightedDepthA1"`
	WeightedDepthA2 float64 `col:"weightedDepthA2"`
	RawDepthA1      int     `col:"rawDepthA1"`
	RawDepthA2      int     `col:"rawDepthA2"`
	ClippedA1       int     `col:"clippedA1"`
	ClippedA2       int     `col:"clippedA2"`
	MismapA1        int     `col:"apparentMismapA1"`
	MismapA2        int     `col:"apparentMismapA2"`
	UnmappedMateA1  int     `col:"unmappedMateA1"`
	UnmappedMateA2  int     `col:"unmappedMateA2"`
}

// NewSample summarizes p's A1/A2 statistics, with A1/A2 defined by the
// child's pileup (childDepth) so that every sample's fields line up on
// the same two alleles even when a parent's own top allele differs.
func NewSample(sampleID string, p *pileup.Pileup, childDepth *pileup.Depth) Sample {
	a1, haveA1 := childDepth.Allele(pileup.A1)
	a2, haveA2 := childDepth.Allele(pileup.A2)

	s := Sample{SampleID: sampleID}
	if haveA1 {
		s.WeightedDepthA1 = p.WeightedDepth(a1)
		s.RawDepthA1 = p.RawCount(a1)
		s.ClippedA1 = p.ClippedCount(a1)
		s.MismapA1 = p.ApparentMismapCount(a1)
		s.UnmappedMateA1 = p.UnmappedMateCount(a1)
	}
	if haveA2 {
		s.WeightedDepthA2 = p.WeightedDepth(a2)
		s.RawDepthA2 = p.RawCount(a2)
		s.ClippedA2 = p.ClippedCount(a2)
		s.MismapA2 = p.ApparentMismapCount(a2)
		s.UnmappedMateA2 = p.UnmappedMateCount(a2)
	}
	return s
}

// HaplotypeResult mirrors haplotype.Result for output purposes.
type HaplotypeResult struct {
	OtherVariants    int       `col:"otherVariants"`
	OtherTriallelics int       `col:"otherTriallelics"`
	OtherBiallelics  int       `col:"otherBiallelics"`
	AdjacentDeNovos  int       `col:"adjacentDeNovos"`
	OtherDeNovos     int       `col:"otherDeNovos"`
	Concordances     []float64 `col:"concordances"`
}

// FromHaplotypeResult converts haplotype.Result into its output form.
func FromHaplotypeResult(r haplotype.Result) HaplotypeResult {
	return HaplotypeResult{
		OtherVariants:    r.OtherVariants,
		OtherTriallelics: r.OtherTriallelics,
		OtherBiallelics:  r.OtherBiallelics,
		AdjacentDeNovos:  r.AdjacentDeNovos,
		OtherDeNovos:     r.OtherDeNovos,
		Concordances:     r.Concordances,
	}
}

// DeNovoResult is the top-level per-candidate output record.
type DeNovoResult struct {
	Position  genome.ReferencePosition `col:"position"`
	Haplotype HaplotypeResult          `col:"haplotype"`

	// Child is always present; Parent1/Parent2 are nil in solo mode.
	Child   Sample  `col:"child"`
	Parent1 *Sample `col:"parent1"`
	Parent2 *Sample `col:"parent2"`

	// SuperNovo is true iff this result additionally satisfies the
	// haplotype-concordance and neighborhood criteria that distinguish a
	// credible de novo call from a bare biallelic site (Glossary:
	// "SuperNovo"). Set by the orchestrator after annotation.
	SuperNovo bool `col:"superNovo"`

	// Annotation fields. No Annotator in package annotate reads the
	// annotator's output back, so these keep their zero values.
	SnpEffGene   string `col:"snpeffGene"`
	SnpEffImpact string `col:"snpeffImpact"`
	DNIsRef      bool   `col:"dnIsRef"`
}

// IsSuperNovo applies the superNovo criterion: a result counts as a
// credible de novo call when parentalDepthsOK holds and either its best
// haplotype concordance is at least cfg.MinHaplotypeConcordance or, with
// no concordances at all, it has no other variants in its window. It does
// not itself check whether the site looks de novo.
func IsSuperNovo(cfg config.Config, r DeNovoResult, parentalDepthsOK bool) bool {
	if !parentalDepthsOK {
		return false
	}
	if len(r.Haplotype.Concordances) == 0 {
		return r.Haplotype.OtherVariants == 0
	}
	best := 0.0
	for _, c := range r.Haplotype.Concordances {
		if c > best {
			best = c
		}
	}
	return best >= cfg.MinHaplotypeConcordance
}
