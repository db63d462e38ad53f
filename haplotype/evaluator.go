// Package haplotype implements the neighbor-window concordance scan that
// separates a real de novo allele (supported on one haplotype) from a
// scattered artifact, grounded on
// original_source's HaplotypeEvaluator.java.
package haplotype

import (
	"github.com/PankratzLab/SuperNovo/classify"
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/pileup"
	"github.com/PankratzLab/SuperNovo/pileupcache"
	"github.com/PankratzLab/SuperNovo/readid"
)

// Result holds the neighborhood statistics computed for one candidate.
type Result struct {
	OtherVariants    int
	OtherTriallelics int
	OtherBiallelics  int
	AdjacentDeNovos  int
	OtherDeNovos     int
	Concordances     []float64
}

// Evaluator computes the haplotype concordance result for one candidate.
type Evaluator struct {
	Config config.Config
	// Child is required; Parent1/Parent2 are nil in solo mode.
	Child, Parent1, Parent2 *pileupcache.Cache
}

// Evaluate scans the window around pos, tallies neighboring variant
// shapes, and computes each neighbor's concordance with the candidate's
// two local haplotypes.
func (e Evaluator) Evaluate(pos genome.GenomePosition, childPile *pileup.Pileup) (Result, error) {
	start, stop := genome.Window(pos, e.Config.HaplotypeSearchDistance)

	childRange, err := e.Child.GetRange(start, stop)
	if err != nil {
		return Result{}, err
	}

	// Parental ranges are computed lazily, only on first use, matching the
	// original's Suppliers.memoize.
	var p1Range, p2Range map[genome.GenomePosition]*pileup.Pileup
	getParentRange := func(cache *pileupcache.Cache, memo *map[genome.GenomePosition]*pileup.Pileup) (map[genome.GenomePosition]*pileup.Pileup, error) {
		if cache == nil {
			return nil, nil
		}
		if *memo == nil {
			r, err := cache.GetRange(start, stop)
			if err != nil {
				return nil, err
			}
			*memo = r
		}
		return *memo, nil
	}

	var res Result
	otherDenovoPositions := map[int]bool{}

	for searchPos, searchPile := range childRange {
		if searchPos == pos {
			continue
		}
		depth := searchPile.Depth()
		if len(depth.BiAlleles()) != 2 {
			continue
		}

		if classify.LooksVariant(e.Config, depth) {
			res.OtherVariants++
			if classify.MoreThanTwoViableAlleles(e.Config, searchPile) {
				res.OtherTriallelics++
			} else {
				res.OtherBiallelics++
				if c, ok := Concordance(childPile, searchPile); ok {
					res.Concordances = append(res.Concordances, c)
				}
			}
		}

		passesDepth := classify.PassesAllelicDepth(depth, e.Config.MinOtherDNAllelicDepth)
		passesFrac := classify.PassesAllelicFrac(e.Config, depth)
		passesIndependent := classify.PassesAllelicDepth(depth, e.Config.MinOtherDNAllelicDepthIndependent)
		if !((passesFrac && passesDepth) || passesIndependent) {
			continue
		}
		c, ok := Concordance(childPile, searchPile)
		if !ok || c < e.Config.MinHaplotypeConcordance {
			continue
		}

		var p1Pile, p2Pile *pileup.Pileup
		if r, err := getParentRange(e.Parent1, &p1Range); err != nil {
			return Result{}, err
		} else if r != nil {
			p1Pile = r[searchPos]
		}
		if r, err := getParentRange(e.Parent2, &p2Range); err != nil {
			return Result{}, err
		} else if r != nil {
			p2Pile = r[searchPos]
		}

		if classify.LooksDenovo(e.Config, searchPile, p1Pile, p2Pile) {
			otherDenovoPositions[searchPos.Position] = true
		}
	}

	res.AdjacentDeNovos = adjacentCount(pos.Position, otherDenovoPositions)
	res.OtherDeNovos = len(otherDenovoPositions) - res.AdjacentDeNovos
	return res, nil
}

// adjacentCount counts positions in otherDenovoPositions that form the
// maximal contiguous run extending outward from pos in both directions.
func adjacentCount(pos int, otherDenovoPositions map[int]bool) int {
	n := 0
	for p := pos + 1; otherDenovoPositions[p]; p++ {
		n++
	}
	for p := pos - 1; otherDenovoPositions[p]; p-- {
		n++
	}
	return n
}

// Concordance measures the agreement between base's two local haplotypes
// and search's allele calls, measured on the read-id sets spanning both
// positions. ok is false if the concordance is undefined (no reads from
// base's haplotypes also appear in search).
func Concordance(base, search *pileup.Pileup) (c float64, ok bool) {
	h1 := base.Depth().AllelicRecords(pileup.A1)
	h2 := base.Depth().AllelicRecords(pileup.A2)

	s1 := search.Depth().AllelicRecords(pileup.A1)
	s2 := search.Depth().AllelicRecords(pileup.A2)
	sAll := search.Records()

	n1 := h1.Intersect(sAll)
	n2 := h2.Intersect(sAll)
	if n1 == 0 && n2 == 0 {
		return 0, false
	}

	ratio := func(h readid.Set, s readid.Set, n int) float64 {
		if n == 0 {
			return 1
		}
		return float64(h.Intersect(s)) / float64(n)
	}

	cis := min(ratio(h1, s1, n1), ratio(h2, s2, n2))
	trans := min(ratio(h1, s2, n1), ratio(h2, s1, n2))
	if cis > trans {
		return cis, true
	}
	return trans, true
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
