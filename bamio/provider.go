// Package bamio wraps indexed, random-access BAM region iteration (CRAM
// files are not supported),
// adapted from encoding/bamprovider/bamprovider.go and trimmed to the
// single-contig-range scans the pileup cache needs (no mate-pair
// iteration, no PAM support): one Provider per BAM file, with pooled
// Iterators so repeated single-position and range queries against the
// same file don't re-open it.
package bamio

import (
	"io"
	"sync"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// Provider serves indexed region reads against a single BAM file. It is
// safe for concurrent use by multiple goroutines.
type Provider struct {
	// Path is the *.bam file. Index, if empty, defaults to Path+".bai".
	Path, Index string

	err errorreporter.T

	mu        sync.Mutex
	nActive   int
	freeIters []*iterator
	header    *sam.Header
}

// Header returns the BAM header, opening the file once and caching the
// result.
func (p *Provider) Header() (*sam.Header, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.header != nil {
		return p.header, nil
	}
	ctx := vcontext.Background()
	f, err := file.Open(ctx, p.Path)
	if err != nil {
		p.err.Set(err)
		return nil, errors.Wrapf(err, "bamio: opening %s", p.Path)
	}
	defer f.Close(ctx)
	r, err := bam.NewReader(f.Reader(ctx), 1)
	if err != nil {
		p.err.Set(err)
		return nil, errors.Wrapf(err, "bamio: reading header of %s", p.Path)
	}
	defer r.Close()
	p.header = r.Header()
	return p.header, nil
}

// Close releases every pooled iterator. The caller must have returned
// every Iterator it checked out first.
func (p *Provider) Close() error {
	if p.nActive > 0 {
		vlog.Fatalf("bamio: %d iterators still active for %s", p.nActive, p.Path)
	}
	for _, it := range p.freeIters {
		it.internalClose()
	}
	p.freeIters = nil
	return p.err.Err()
}

func (p *Provider) indexPath() string {
	if p.Index != "" {
		return p.Index
	}
	return p.Path + ".bai"
}

// Query returns an Iterator over every read overlapping the half-open
// reference interval [start, end) on contig refName.
func (p *Provider) Query(refName string, start, end int) (*iterator, error) {
	header, err := p.Header()
	if err != nil {
		return nil, err
	}
	ref := refByName(header, refName)
	if ref == nil {
		return nil, errors.Errorf("bamio: reference %q not found in %s", refName, p.Path)
	}
	it := p.allocate()
	if it.err != nil {
		return it, it.err
	}
	it.reset(ref, start, end)
	return it, it.Err()
}

func refByName(h *sam.Header, name string) *sam.Reference {
	for _, r := range h.Refs() {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

type iterator struct {
	provider *Provider
	in       file.File
	reader   *bam.Reader
	index    *bam.Index

	ref        *sam.Reference
	start, end int // half-open reference coordinates

	active bool
	err    error
	next   *sam.Record
}

func (p *Provider) allocate() *iterator {
	p.mu.Lock()
	p.nActive++
	if n := len(p.freeIters); n > 0 {
		it := p.freeIters[n-1]
		p.freeIters = p.freeIters[:n-1]
		it.active, it.err, it.next = true, nil, nil
		p.mu.Unlock()
		return it
	}
	p.mu.Unlock()

	it := &iterator{provider: p, active: true}
	ctx := vcontext.Background()
	if it.in, it.err = file.Open(ctx, p.Path); it.err != nil {
		return it
	}
	indexIn, err := file.Open(ctx, p.indexPath())
	if err != nil {
		it.err = err
		return it
	}
	defer indexIn.Close(ctx)
	if it.index, it.err = bam.ReadIndex(indexIn.Reader(ctx)); it.err != nil {
		return it
	}
	it.reader, it.err = bam.NewReader(it.in.Reader(ctx), 1)
	return it
}

func (p *Provider) free(it *iterator) {
	it.active = false
	if it.Err() != nil {
		it.internalClose()
		p.mu.Lock()
		p.nActive--
		p.mu.Unlock()
		return
	}
	p.mu.Lock()
	p.freeIters = append(p.freeIters, it)
	p.nActive--
	p.mu.Unlock()
}

func (it *iterator) reset(ref *sam.Reference, start, end int) {
	it.ref, it.start, it.end = ref, start, end
	chunks, err := it.index.Chunks(ref, start, end)
	if err == index.ErrInvalid || len(chunks) == 0 {
		it.err = errEmptyRange
		return
	}
	if err != nil {
		it.err = err
		return
	}
	it.err = it.reader.Seek(chunks[0].Begin)
}

// errEmptyRange marks an iterator with nothing to read; Scan returns
// false and Err returns nil, matching an ordinary empty result set.
var errEmptyRange = errors.New("bamio: no reads in range")

// Err reports any error encountered, or nil if the only condition was an
// empty result set or a clean end of the range.
func (it *iterator) Err() error {
	if it.err == errEmptyRange || it.err == io.EOF {
		return nil
	}
	return it.err
}

// Scan advances to the next record whose alignment truly overlaps
// [start, end), returning false at the end of the range or on error. A
// read that starts upstream of start but extends into the window still
// counts: filtering on alignment start alone (rec.Pos < start) would drop
// it, undercounting pileup depth for exactly the reads a narrow, unpadded
// query window most needs.
func (it *iterator) Scan() bool {
	if it.err != nil {
		return false
	}
	for {
		rec, err := it.reader.Read()
		if err != nil {
			it.err = err
			return false
		}
		if rec.Ref == nil || rec.Ref.ID() != it.ref.ID() {
			continue
		}
		if rec.Pos >= it.end {
			// The file is coordinate-sorted, so no later record can
			// start before it.end either.
			return false
		}
		if !overlaps(rec.Pos, rec.End(), it.start, it.end) {
			continue
		}
		it.next = rec
		return true
	}
}

// overlaps reports whether the half-open alignment interval [recStart,
// recEnd) intersects the half-open query window [start, end).
func overlaps(recStart, recEnd, start, end int) bool {
	return recStart < end && recEnd > start
}

// Record returns the record most recently yielded by Scan.
func (it *iterator) Record() *sam.Record { return it.next }

// Close returns the iterator to its Provider's pool.
func (it *iterator) Close() error {
	err := it.Err()
	it.provider.free(it)
	return err
}

func (it *iterator) internalClose() {
	if it.reader != nil {
		it.reader.Close()
		it.reader = nil
	}
	if it.in != nil {
		it.in.Close(vcontext.Background())
		it.in = nil
	}
	it.provider.err.Set(it.Err())
}
