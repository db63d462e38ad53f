package pileup

import (
	"sort"

	"github.com/PankratzLab/SuperNovo/allele"
	"github.com/PankratzLab/SuperNovo/readid"
)

// HaplotypeAllele names one of the two dominant alleles at a position: the
// two highest-weighted alleles, A1 major and A2 minor.
type HaplotypeAllele int

const (
	A1 HaplotypeAllele = iota
	A2
)

// Depth is derived from a Pileup: the top two alleles by weighted depth,
// and the statistics the classifier and haplotype evaluator need about
// them.
type Depth struct {
	pileup *Pileup

	a1, a2 allele.Allele
	haveA1 bool
	haveA2 bool
}

func newDepth(p *Pileup) *Depth {
	type weighted struct {
		a allele.Allele
		w float64
	}
	alleles := p.Alleles()
	ws := make([]weighted, len(alleles))
	for i, a := range alleles {
		ws[i] = weighted{a: a, w: p.WeightedDepth(a)}
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].w > ws[j].w })

	d := &Depth{pileup: p}
	if len(ws) >= 1 {
		d.a1, d.haveA1 = ws[0].a, true
	}
	if len(ws) >= 2 {
		d.a2, d.haveA2 = ws[1].a, true
	}
	return d
}

// BiAlleles returns the set of dominant alleles present, in A1-then-A2
// order. Its length is 0, 1, or 2.
func (d *Depth) BiAlleles() []allele.Allele {
	var out []allele.Allele
	if d.haveA1 {
		out = append(out, d.a1)
	}
	if d.haveA2 {
		out = append(out, d.a2)
	}
	return out
}

// Allele returns A1 or A2 and whether it exists.
func (d *Depth) Allele(which HaplotypeAllele) (allele.Allele, bool) {
	if which == A1 {
		return d.a1, d.haveA1
	}
	return d.a2, d.haveA2
}

// AllelicWeightedDepth returns the weighted depth of A1 or A2.
func (d *Depth) AllelicWeightedDepth(which HaplotypeAllele) float64 {
	a, ok := d.Allele(which)
	if !ok {
		return 0
	}
	return d.pileup.WeightedDepth(a)
}

// AllelicRawDepth returns the raw read count of A1 or A2.
func (d *Depth) AllelicRawDepth(which HaplotypeAllele) int {
	a, ok := d.Allele(which)
	if !ok {
		return 0
	}
	return d.pileup.RawCount(a)
}

// WeightedBiallelicDepth is wd(A1) + wd(A2).
func (d *Depth) WeightedBiallelicDepth() float64 {
	return d.AllelicWeightedDepth(A1) + d.AllelicWeightedDepth(A2)
}

// WeightedMinorAlleleFraction is wd(A2) / (wd(A1) + wd(A2)), or 0 if the
// denominator is 0.
func (d *Depth) WeightedMinorAlleleFraction() float64 {
	total := d.WeightedBiallelicDepth()
	if total == 0 {
		return 0
	}
	return d.AllelicWeightedDepth(A2) / total
}

// AllelicRecords returns the read-id set backing A1 or A2.
func (d *Depth) AllelicRecords(which HaplotypeAllele) readid.Set {
	a, ok := d.Allele(which)
	if !ok {
		return readid.Set{}
	}
	return d.pileup.AllelicRecords(a)
}
