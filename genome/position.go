// Package genome defines the position types shared by every stage of the
// de novo calling pipeline: a bare (contig, position) pair, and the
// candidate-site position (reference + alt allele) derived from a VCF
// record.
package genome

import (
	"fmt"

	"github.com/pkg/errors"
)

// ContigOrder maps a contig name to its index in a sequence dictionary
// (typically the VCF or BAM header's contig order), giving GenomePosition a
// total order that agrees with on-disk record order.
type ContigOrder map[string]int

// NewContigOrder builds a ContigOrder from a header's contig names, in the
// order they appear.
func NewContigOrder(names []string) ContigOrder {
	order := make(ContigOrder, len(names))
	for i, n := range names {
		order[n] = i
	}
	return order
}

// GenomePosition is a 1-based position on a contig. It is a value type:
// comparisons and map keys work directly off the struct.
type GenomePosition struct {
	Contig   string
	Position int
}

func (p GenomePosition) String() string {
	return fmt.Sprintf("%s:%d", p.Contig, p.Position)
}

// Less orders positions by (contig index, position). Positions on contigs
// absent from order sort after all known contigs, by name.
func (p GenomePosition) Less(q GenomePosition, order ContigOrder) bool {
	pi, pok := order[p.Contig]
	qi, qok := order[q.Contig]
	switch {
	case pok && qok:
		if pi != qi {
			return pi < qi
		}
	case pok != qok:
		return pok
	default:
		if p.Contig != q.Contig {
			return p.Contig < q.Contig
		}
	}
	return p.Position < q.Position
}

// Add returns the position offset by delta (may be negative); it clamps at
// position 1.
func (p GenomePosition) Add(delta int) GenomePosition {
	pos := p.Position + delta
	if pos < 1 {
		pos = 1
	}
	return GenomePosition{Contig: p.Contig, Position: pos}
}

// ReferencePosition is a GenomePosition plus the reference allele observed
// in the candidate record and, when resolvable, the single alternate allele
// under evaluation.
type ReferencePosition struct {
	GenomePosition
	Ref string
	Alt string // "" if no single alt allele was resolved
}

// NewReferencePosition constructs a ReferencePosition from a candidate
// record's contig/position/ref and the set of alt alleles present in the
// evaluated sample's genotype. It fails if ref is not a single base, or if
// altCandidates does not contain exactly one single-base allele distinct
// from ref.
func NewReferencePosition(contig string, pos int, ref string, altCandidates []string) (ReferencePosition, error) {
	if len(ref) != 1 {
		return ReferencePosition{}, errors.Errorf("genome: reference allele %q at %s:%d is not a single base", ref, contig, pos)
	}
	var alt string
	seen := map[string]bool{}
	for _, a := range altCandidates {
		if a == "" || a == ref || seen[a] {
			continue
		}
		seen[a] = true
		if len(a) != 1 {
			return ReferencePosition{}, errors.Errorf("genome: candidate alt allele %q at %s:%d is not a single base", a, contig, pos)
		}
		alt = a
	}
	if len(seen) != 1 {
		return ReferencePosition{}, errors.Errorf("genome: expected exactly one non-reference allele at %s:%d, found %d", contig, pos, len(seen))
	}
	return ReferencePosition{
		GenomePosition: GenomePosition{Contig: contig, Position: pos},
		Ref:            ref,
		Alt:            alt,
	}, nil
}

func (r ReferencePosition) String() string {
	return fmt.Sprintf("%s:%d %s>%s", r.Contig, r.Position, r.Ref, r.Alt)
}

// Window returns the inclusive [p-d, p+d] window around p on the same
// contig, per the haplotype evaluator's neighbor search.
func Window(p GenomePosition, d int) (start, stop GenomePosition) {
	startPos := p.Position - d
	if startPos < 1 {
		startPos = 1
	}
	return GenomePosition{Contig: p.Contig, Position: startPos},
		GenomePosition{Contig: p.Contig, Position: p.Position + d}
}

// Bin is a half-open [Start, End) genome interval used as the unit of
// parallelism for candidate parsing.
type Bin struct {
	Contig     string
	Start, End int // 0-based half-open
}

// BinSize is the default genome-bin width for parallel candidate parsing.
const BinSize = 100000

// Bins splits [0, contigLen) into BinSize-wide half-open bins.
func Bins(contig string, contigLen int) []Bin {
	var bins []Bin
	for start := 0; start < contigLen; start += BinSize {
		end := start + BinSize
		if end > contigLen {
			end = contigLen
		}
		bins = append(bins, Bin{Contig: contig, Start: start, End: end})
	}
	return bins
}
