// Package pileup builds and summarizes, for a single genome position, the
// per-allele read support of every aligned read overlapping it.
package pileup

import (
	"github.com/biogo/hts/sam"

	"github.com/PankratzLab/SuperNovo/allele"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/readid"
)

// QueriedAllele is an allele the caller already knows to look for at a
// position (typically a candidate's ref/alt pair), together with a
// predicate for whether a read supports it. For SNV-only operation this
// collapses to "base at the covered read offset"; the interface is kept
// general so a future indel allele can plug in its own supported() rule.
type QueriedAllele struct {
	Allele    allele.Allele
	Supported func(r *sam.Record, readOffset int) bool
}

// Pileup is the immutable snapshot of every non-duplicate read overlapping
// Position, summarized per allele.
type Pileup struct {
	Position genome.GenomePosition

	recordsByAllele map[allele.Allele]readid.Set
	weightedDepth   map[allele.Allele]float64

	clippedCounts        map[allele.Allele]int
	endPositionCounts    map[allele.Allele]int
	apparentMismapCounts map[allele.Allele]int
	unmappedMateCounts   map[allele.Allele]int

	depth     *Depth
	rawCounts map[allele.Allele]int
}

// minPercentBasesMatch is the CIGAR-'='-fraction threshold below which a
// read is flagged apparent-mismap. The corrected semantics used here is
// "< 0.5", not original_source's ">= 0.5" (DESIGN.md).
const minPercentBasesMatch = 0.5

// Builder accumulates one Pileup from a stream of reads overlapping a
// single position.
type Builder struct {
	pos     genome.GenomePosition
	refPos0 int // 0-based reference coordinate, for CIGAR walking
	queried []QueriedAllele

	recordsByAllele      map[allele.Allele]readid.Set
	weightedDepth        map[allele.Allele]float64
	clippedCounts        map[allele.Allele]int
	endPositionCounts    map[allele.Allele]int
	apparentMismapCounts map[allele.Allele]int
	unmappedMateCounts   map[allele.Allele]int
	rawCounts            map[allele.Allele]int
}

// NewBuilder starts a Pileup accumulation for pos, optionally given the
// ref/alt QueriedAlleles the caller wants canonically labeled.
func NewBuilder(pos genome.GenomePosition, queried ...QueriedAllele) *Builder {
	return &Builder{
		pos:                  pos,
		refPos0:              pos.Position - 1,
		queried:              queried,
		recordsByAllele:      map[allele.Allele]readid.Set{},
		weightedDepth:        map[allele.Allele]float64{},
		clippedCounts:        map[allele.Allele]int{},
		endPositionCounts:    map[allele.Allele]int{},
		apparentMismapCounts: map[allele.Allele]int{},
		unmappedMateCounts:   map[allele.Allele]int{},
		rawCounts:            map[allele.Allele]int{},
	}
}

// AddRecord folds one aligned read into the pileup being built. Malformed
// reads (no coverage of the target position) are skipped silently; callers
// that want a log record on skip should check ReadOffset themselves first.
func (b *Builder) AddRecord(r *sam.Record) {
	if r.Flags&sam.Duplicate != 0 {
		return
	}
	readOffset := ReadOffsetAtReference(r, b.refPos0)
	if readOffset < 0 {
		return
	}

	a := b.alleleFor(r, readOffset)
	id := readid.Of(r)

	set, ok := b.recordsByAllele[a]
	if !ok {
		set = readid.Set{}
		b.recordsByAllele[a] = set
	}
	set.Add(id)
	b.rawCounts[a]++

	countWeight := true

	if isClipped(r) {
		b.clippedCounts[a]++
		countWeight = false
	}
	if percentMatchesRef(r) < minPercentBasesMatch {
		b.apparentMismapCounts[a]++
		countWeight = false
	}
	if r.Flags&sam.MateUnmapped != 0 {
		b.unmappedMateCounts[a]++
		countWeight = false
	}
	if r.Pos == b.refPos0 || r.End()-1 == b.refPos0 {
		// Diagnostic only; does not clear countWeight.
		b.endPositionCounts[a]++
	}

	if countWeight {
		b.weightedDepth[a] += allele.Accuracy(int(baseQualAt(r, readOffset))) * allele.Accuracy(int(r.MapQ))
	}
}

// alleleFor resolves the allele a read supports at readOffset: one of the
// caller-supplied QueriedAlleles if its Supported predicate holds,
// otherwise SNP(read_base_at_offset).
func (b *Builder) alleleFor(r *sam.Record, readOffset int) allele.Allele {
	for _, q := range b.queried {
		if q.Supported != nil && q.Supported(r, readOffset) {
			return q.Allele
		}
	}
	return allele.SNPAllele(baseAt(r, readOffset))
}

// Build finalizes the accumulated state into an immutable Pileup.
func (b *Builder) Build() *Pileup {
	return &Pileup{
		Position:             b.pos,
		recordsByAllele:      b.recordsByAllele,
		weightedDepth:        b.weightedDepth,
		clippedCounts:        b.clippedCounts,
		endPositionCounts:    b.endPositionCounts,
		apparentMismapCounts: b.apparentMismapCounts,
		unmappedMateCounts:   b.unmappedMateCounts,
		rawCounts:            b.rawCounts,
	}
}

// Records returns the union of every allele's read-id set: every
// non-duplicate read that contributed to this pileup.
func (p *Pileup) Records() readid.Set {
	sets := make([]readid.Set, 0, len(p.recordsByAllele))
	for _, s := range p.recordsByAllele {
		sets = append(sets, s)
	}
	if len(sets) == 0 {
		return readid.Set{}
	}
	return sets[0].Union(sets[1:]...)
}

// AllelicRecords returns the read-id set supporting a.
func (p *Pileup) AllelicRecords(a allele.Allele) readid.Set {
	if s, ok := p.recordsByAllele[a]; ok {
		return s
	}
	return readid.Set{}
}

// RawCount returns the raw (unweighted) read count supporting a.
func (p *Pileup) RawCount(a allele.Allele) int { return p.rawCounts[a] }

// WeightedDepth returns the weighted depth accumulated for a.
func (p *Pileup) WeightedDepth(a allele.Allele) float64 { return p.weightedDepth[a] }

// ClippedCount returns the number of reads supporting a that carried a
// soft- or hard-clipped CIGAR operation.
func (p *Pileup) ClippedCount(a allele.Allele) int { return p.clippedCounts[a] }

// ApparentMismapCount returns the number of reads supporting a whose
// CIGAR match fraction fell below the apparent-mismap threshold.
func (p *Pileup) ApparentMismapCount(a allele.Allele) int { return p.apparentMismapCounts[a] }

// UnmappedMateCount returns the number of reads supporting a whose mate
// is unmapped.
func (p *Pileup) UnmappedMateCount(a allele.Allele) int { return p.unmappedMateCounts[a] }

// EndPositionCount returns the number of reads supporting a that start or
// end exactly at this pileup's position.
func (p *Pileup) EndPositionCount(a allele.Allele) int { return p.endPositionCounts[a] }

// Alleles returns every allele observed in this pileup, in no particular
// order.
func (p *Pileup) Alleles() []allele.Allele {
	out := make([]allele.Allele, 0, len(p.rawCounts))
	for a := range p.rawCounts {
		out = append(out, a)
	}
	return out
}

// TotalRawCount returns the sum of raw counts across every allele, i.e.
// the number of unique non-duplicate reads covering this position.
func (p *Pileup) TotalRawCount() int {
	n := 0
	for _, c := range p.rawCounts {
		n += c
	}
	return n
}

// Depth lazily computes and memoizes this pileup's Depth summary.
func (p *Pileup) Depth() *Depth {
	if p.depth == nil {
		p.depth = newDepth(p)
	}
	return p.depth
}

func isClipped(r *sam.Record) bool {
	for _, op := range r.Cigar {
		switch op.Type() {
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			return true
		}
	}
	return false
}

// percentMatchesRef is the fraction of CIGAR '=' (CigarEqual) operation
// length over the read's length (every M, =, X, I and S operation),
// grounded on
// original_source's Pileup.java calcPercentReadMatchesRef.
func percentMatchesRef(r *sam.Record) float64 {
	var eq, total int
	for _, op := range r.Cigar {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch, sam.CigarInsertion, sam.CigarSoftClipped:
			total += op.Len()
		}
		if op.Type() == sam.CigarEqual {
			eq += op.Len()
		}
	}
	if total == 0 {
		return 0
	}
	return float64(eq) / float64(total)
}

// ReadOffsetAtReference returns the 0-based offset into r's Seq/Qual of
// the base aligned to the 0-based reference coordinate refPos0, or -1 if
// refPos0 is not covered by the alignment (e.g. falls in a deletion or
// outside the read's span).
func ReadOffsetAtReference(r *sam.Record, refPos0 int) int {
	if refPos0 < r.Pos {
		return -1
	}
	refCursor := r.Pos
	readCursor := 0
	for _, op := range r.Cigar {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if refPos0 < refCursor+n {
				return readCursor + (refPos0 - refCursor)
			}
			refCursor += n
			readCursor += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readCursor += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if refPos0 < refCursor+n {
				return -1
			}
			refCursor += n
		case sam.CigarHardClipped, sam.CigarPadded:
			// consumes neither read nor reference sequence we track here
		}
	}
	return -1
}

func baseAt(r *sam.Record, readOffset int) byte {
	bases := r.Seq.Expand()
	if readOffset < 0 || readOffset >= len(bases) {
		return 'N'
	}
	return bases[readOffset]
}

func baseQualAt(r *sam.Record, readOffset int) byte {
	if readOffset < 0 || readOffset >= len(r.Qual) {
		return 0
	}
	return r.Qual[readOffset]
}
