// Package candidate streams candidate de novo sites from a VCF, filtering
// to sites whose child genotype is a simple single-non-reference SNV and,
// in trio mode, rejecting sites already supported by a parent's VCF AD.
package candidate

import (
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/brentp/vcfgo"
	"github.com/brentp/xopen"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/genome"
)

// Context carries the ReferencePosition of one surviving candidate.
type Context struct {
	Position genome.ReferencePosition
}

// Opts configures the parser.
type Opts struct {
	VCFPath string
	// ChildSample, Parent1Sample, Parent2Sample are VCF sample column
	// names. Parent columns are empty in solo mode.
	ChildSample, Parent1Sample, Parent2Sample string
	// Parallelism bounds the number of concurrent VCF readers. The VCF
	// itself carries no index this package can seek on, so each worker
	// still makes its own full sequential pass over the file; Parallelism
	// trades that redundant I/O against wall-clock time.
	Parallelism int
}

// Solo reports whether no parent samples were configured.
func (o Opts) Solo() bool { return o.Parent1Sample == "" && o.Parent2Sample == "" }

// Parse divides every contig's bins across a fixed pool of workers,
// filters and converts surviving records, and returns the deduplicated set
// of surviving candidates. Each worker opens exactly one VCF reader, cached
// for the worker's lifetime, and makes a single sequential pass over the
// file, routing every record into whichever of its assigned bins it falls
// in; it does not reopen the file per bin.
func Parse(ctx context.Context, opts Opts, cfg config.Config) ([]Context, error) {
	header, err := readHeader(opts.VCFPath)
	if err != nil {
		return nil, err
	}

	var bins []genome.Bin
	for _, c := range header.contigs {
		bins = append(bins, genome.Bins(c.name, c.length)...)
	}
	if len(bins) == 0 {
		return nil, nil
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(bins) {
		parallelism = len(bins)
	}

	var mu sync.Mutex
	seen := map[genome.GenomePosition]bool{}
	var results []Context

	err = traverse.Each(parallelism, func(workerIdx int) error {
		startIdx := (workerIdx * len(bins)) / parallelism
		endIdx := ((workerIdx + 1) * len(bins)) / parallelism
		assigned := bins[startIdx:endIdx]
		if len(assigned) == 0 {
			return nil
		}
		return scanAssignedBins(opts, cfg, assigned, func(c Context) {
			mu.Lock()
			defer mu.Unlock()
			if !seen[c.Position.GenomePosition] {
				seen[c.Position.GenomePosition] = true
				results = append(results, c)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// scanAssignedBins opens a single VCF reader for this worker and makes one
// sequential pass over the whole file, evaluating every record that falls
// into one of bins and invoking emit for each surviving candidate.
func scanAssignedBins(opts Opts, cfg config.Config, bins []genome.Bin, emit func(Context)) error {
	f, err := xopen.Ropen(opts.VCFPath)
	if err != nil {
		return errors.Wrapf(err, "candidate: opening %s", opts.VCFPath)
	}
	defer f.Close()

	rdr, err := vcfgo.NewReader(f, false)
	if err != nil {
		return errors.Wrapf(err, "candidate: reading VCF header of %s", opts.VCFPath)
	}
	defer rdr.Close()

	for {
		v := rdr.Read()
		if v == nil {
			break
		}
		if !inAnyBin(bins, v.Chromosome, int(v.Pos)) {
			continue
		}
		c, ok, err := evaluate(opts, cfg, rdr, v)
		if err != nil {
			log.Error.Printf("candidate: %s:%d: %v", v.Chromosome, v.Pos, err)
			continue
		}
		if ok {
			emit(c)
		}
	}
	if err := rdr.Error(); err != nil && err != io.EOF {
		return errors.Wrapf(err, "candidate: reading %s", opts.VCFPath)
	}
	return nil
}

// inAnyBin reports whether (contig, pos) falls in one of bins, using the
// same half-open-against-1-based convention as the original bin filter:
// a bin [Start, End) (0-based) covers 1-based positions Start+1..End.
func inAnyBin(bins []genome.Bin, contig string, pos int) bool {
	for _, b := range bins {
		if b.Contig == contig && pos > b.Start && pos <= b.End {
			return true
		}
	}
	return false
}

// evaluate applies the child-genotype and parental-inheritance filters to
// one VCF record.
func evaluate(opts Opts, cfg config.Config, rdr *vcfgo.Reader, v *vcfgo.Variant) (Context, bool, error) {
	childGT, ok := sampleGenotype(rdr, v, opts.ChildSample)
	if !ok {
		return Context{}, false, errors.New("child sample not found in VCF")
	}
	if !isSingleNonRef(childGT) {
		log.Debug.Printf("candidate: %s:%d: child genotype is not single-non-ref, skipping", v.Chromosome, v.Pos)
		return Context{}, false, nil
	}

	altIdx, ok := soleAltIndex(childGT)
	if !ok {
		log.Debug.Printf("candidate: %s:%d: child genotype carries no alt allele, skipping", v.Chromosome, v.Pos)
		return Context{}, false, nil
	}
	alts := v.Alt()
	if altIdx >= len(alts) || len(alts[altIdx]) != 1 {
		log.Debug.Printf("candidate: %s:%d: child alt allele is not a single base, skipping", v.Chromosome, v.Pos)
		return Context{}, false, nil
	}
	alt := alts[altIdx]

	if !opts.Solo() {
		for _, sample := range []string{opts.Parent1Sample, opts.Parent2Sample} {
			pGT, ok := sampleGenotype(rdr, v, sample)
			if !ok {
				continue
			}
			if seenInParentVCF(pGT, altIdx, cfg.VCFMaxParentAD) {
				log.Debug.Printf("candidate: %s:%d: seen in parent VCF AD, skipping", v.Chromosome, v.Pos)
				return Context{}, false, nil
			}
		}
	}

	rp, err := genome.NewReferencePosition(v.Chromosome, int(v.Pos), v.Ref(), []string{alt})
	if err != nil {
		return Context{}, false, errors.Wrap(err, "constructing reference position")
	}
	return Context{Position: rp}, true, nil
}

// isSingleNonRef implements the precise genotype-shape filter from
// original_source's AbstractEvaluator.isSingleNonRef: ploidy == 1, or
// heterozygous-but-not-het-nonref. It does not look at allele lengths; the
// single-base checks on the alt and ref alleles are made afterwards by
// evaluate and genome.NewReferencePosition.
func isSingleNonRef(gt *vcfgo.SampleGenotype) bool {
	if gt == nil || len(gt.GT) == 0 {
		return false
	}
	if len(gt.GT) == 1 {
		return true
	}
	if len(gt.GT) != 2 {
		return false
	}
	isHet := gt.GT[0] != gt.GT[1]
	isHetNonRef := isHet && gt.GT[0] != 0 && gt.GT[1] != 0
	return isHet && !isHetNonRef
}

// soleAltIndex returns the index (0-based into Alt()) of the first
// non-reference allele present in gt, or ok == false if genotype parsing
// found none.
func soleAltIndex(gt *vcfgo.SampleGenotype) (int, bool) {
	for _, a := range gt.GT {
		if a > 0 {
			return a - 1, true
		}
	}
	return 0, false
}

// seenInParentVCF reports whether the parent's AD for the candidate alt
// exceeds the ceiling, implying the variant is inherited rather than de
// novo.
func seenInParentVCF(gt *vcfgo.SampleGenotype, altIdx, ceiling int) bool {
	ad, err := gt.AltDepths()
	if err != nil || altIdx >= len(ad) {
		return false
	}
	return ad[altIdx] > ceiling
}

func sampleGenotype(rdr *vcfgo.Reader, v *vcfgo.Variant, sample string) (*vcfgo.SampleGenotype, bool) {
	if sample == "" {
		return nil, false
	}
	idx, ok := rdr.Header.SampleNameToIndex(sample)
	if !ok || idx >= len(v.Samples) {
		return nil, false
	}
	return v.Samples[idx], true
}

type contigInfo struct {
	name   string
	length int
}

type vcfHeader struct {
	contigs []contigInfo
}

func readHeader(path string) (*vcfHeader, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "candidate: opening %s", path)
	}
	defer f.Close()
	rdr, err := vcfgo.NewReader(f, false)
	if err != nil {
		return nil, errors.Wrapf(err, "candidate: reading header of %s", path)
	}
	defer rdr.Close()

	h := &vcfHeader{}
	for name, contig := range rdr.Header.Contigs {
		h.contigs = append(h.contigs, contigInfo{name: name, length: contig.Length})
	}
	return h, nil
}
