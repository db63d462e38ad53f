// Package readid defines a stable, cross-BAM identity for an aligned read,
// used by the pileup builder to key allele support sets and by the
// haplotype evaluator to intersect those sets across positions and across
// samples: re-using a stable (read name, pair flag) tuple lets two BAMs'
// read sets compose by ordinary set algebra.
package readid

import (
	"github.com/biogo/hts/sam"
	farm "github.com/dgryski/go-farm"
)

// ID is a 64-bit stable identity for a read. Two sam.Records sharing the
// same read name and the same "first in pair" flag, whether from the same
// BAM or different BAMs, hash to the same ID.
type ID uint64

// Of computes the stable identity of r: a farmhash digest of the read name
// and whether it is the first segment of a pair. Using the name plus the
// pair flag (rather than alignment position) keeps the identity stable
// across secondary/supplementary records and across samples realigned to
// slightly different coordinates.
func Of(r *sam.Record) ID {
	name := r.Name
	buf := make([]byte, len(name)+1)
	copy(buf, name)
	if r.Flags&sam.Paired != 0 && r.Flags&sam.Read1 != 0 {
		buf[len(name)] = 1
	}
	return ID(farm.Hash64(buf))
}

// Set is a set of read IDs, as produced by a Pileup's per-allele records
// and consumed by haplotype concordance's set intersections.
type Set map[ID]struct{}

// NewSet builds a Set from a slice of IDs.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into s.
func (s Set) Add(id ID) { s[id] = struct{}{} }

// Intersect returns the number of IDs present in both s and other, without
// allocating a result set (the evaluator only ever needs the count).
func (s Set) Intersect(other Set) int {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for id := range small {
		if _, ok := big[id]; ok {
			n++
		}
	}
	return n
}

// Union returns a new Set containing every ID in s or others.
func (s Set) Union(others ...Set) Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	for _, o := range others {
		for id := range o {
			out[id] = struct{}{}
		}
	}
	return out
}
