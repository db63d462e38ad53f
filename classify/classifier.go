// Package classify implements the threshold predicates that decide whether
// a position "looks variant", "looks biallelic", or "looks de novo".
// Every predicate is a free function of a Config and the already-computed
// Pileup/Depth values, with no shared mutable state: keeping them
// free-standing breaks what would otherwise be a cyclic reference between
// the evaluator and the haplotype evaluator.
package classify

import (
	"github.com/PankratzLab/SuperNovo/allele"
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/pileup"
)

// LooksVariant reports whether a position has strong enough biallelic
// support to be considered a real variant call.
func LooksVariant(cfg config.Config, d *pileup.Depth) bool {
	if len(d.BiAlleles()) != 2 {
		return false
	}
	if d.WeightedBiallelicDepth() < cfg.MinDepth {
		return false
	}
	if d.WeightedMinorAlleleFraction() < cfg.MinAllelicFrac {
		return false
	}
	return d.AllelicRawDepth(pileup.A1) >= cfg.MinAllelicDepth &&
		d.AllelicRawDepth(pileup.A2) >= cfg.MinAllelicDepth
}

// PassesAllelicFrac isolates the minor-allele-fraction half of
// LooksVariant; the haplotype evaluator's neighbor-de-novo test needs it
// independently of the depth/biallelic checks.
func PassesAllelicFrac(cfg config.Config, d *pileup.Depth) bool {
	return d.WeightedMinorAlleleFraction() >= cfg.MinAllelicFrac
}

// PassesAllelicDepth reports whether both A1 and A2 have raw depth at
// least floor.
func PassesAllelicDepth(d *pileup.Depth, floor float64) bool {
	return float64(d.AllelicRawDepth(pileup.A1)) >= floor &&
		float64(d.AllelicRawDepth(pileup.A2)) >= floor
}

// PossibleAlleles returns the set of alleles in p whose raw count exceeds
// cfg.MaxMiscallWeight, or whose fraction of p's total raw count exceeds
// cfg.MaxMiscallFrac, grounded against raw counts per the original
// implementation (see DESIGN.md Open Question resolution #2).
func PossibleAlleles(cfg config.Config, p *pileup.Pileup) map[allele.Allele]bool {
	total := p.TotalRawCount()
	out := map[allele.Allele]bool{}
	for _, a := range p.Alleles() {
		count := p.RawCount(a)
		frac := 0.0
		if total > 0 {
			frac = float64(count) / float64(total)
		}
		if float64(count) > cfg.MaxMiscallWeight || frac > cfg.MaxMiscallFrac {
			out[a] = true
		}
	}
	return out
}

// MoreThanTwoViableAlleles reports whether p has more than two possible
// alleles.
func MoreThanTwoViableAlleles(cfg config.Config, p *pileup.Pileup) bool {
	return len(PossibleAlleles(cfg, p)) > 2
}

// LooksBiallelic reports whether p looks variant and has no more than
// two viable alleles.
func LooksBiallelic(cfg config.Config, p *pileup.Pileup) bool {
	return LooksVariant(cfg, p.Depth()) && !MoreThanTwoViableAlleles(cfg, p)
}

// DNAllele returns the unique allele in the child's biallelic set that is
// absent from both parents' possible-allele sets, or ok == false if zero or
// more than one such allele exists (ambiguous; the caller should log and
// drop the candidate).
// Either parent pileup may be nil (solo mode), in which case its
// possible-allele contribution is empty.
func DNAllele(cfg config.Config, child *pileup.Pileup, p1, p2 *pileup.Pileup) (a allele.Allele, ok bool) {
	parental := map[allele.Allele]bool{}
	if p1 != nil {
		for a := range PossibleAlleles(cfg, p1) {
			parental[a] = true
		}
	}
	if p2 != nil {
		for a := range PossibleAlleles(cfg, p2) {
			parental[a] = true
		}
	}

	var candidates []allele.Allele
	for _, ba := range child.Depth().BiAlleles() {
		if !parental[ba] {
			candidates = append(candidates, ba)
		}
	}
	if len(candidates) != 1 {
		return allele.Allele{}, false
	}
	return candidates[0], true
}

// LooksDenovo reports whether DNAllele is defined for child against
// p1/p2. It is used only to classify a neighboring variant while scoring
// haplotype concordance; emitting a candidate result itself is gated on
// LooksVariant alone, per the original evaluator's evaluate() (DESIGN.md). With p1 == p2 == nil
// (solo mode) both of the child's biallelic alleles remain unfiltered
// candidates, so the site is ambiguous and this returns false — solo
// mode never calls LooksDenovo for that reason.
func LooksDenovo(cfg config.Config, child *pileup.Pileup, p1, p2 *pileup.Pileup) bool {
	_, ok := DNAllele(cfg, child, p1, p2)
	return ok
}
