// Package snapshot defines the versioned, length-prefixed record format
// used for the checkpoint and final results snapshot. Write stamps every
// stream with FormatVersion via AddHeader so a later reader inspecting the
// file independently of this package (e.g. with a generic recordio dump
// tool) can tell which layout it's looking at; Read itself trusts its own
// marshalRecord/unmarshalRecord pair and doesn't re-validate the header. The
// wire format for one record is grounded on pileup/snp/row.go's
// MarshalPileupRow/unmarshalPileupRow; the stream container is
// grailbio/base/recordio, as used in pileup/snp/output.go.
package snapshot

import (
	"context"
	"encoding/binary"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/pkg/errors"

	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/result"
)

// FormatVersion is bumped whenever the wire layout changes. Write stamps it
// into each stream's header; Read does not check it.
const FormatVersion = 1

// Record is one (position, result) pair as stored in the snapshot stream.
// Position is carried alongside the flattened result so a reader can
// reconstruct the results map without re-deriving the key from the
// payload.
type Record struct {
	Position genome.GenomePosition
	Result   result.DeNovoResult
}

// Write serializes results to path as a recordio stream, compressed with
// zstd (the ".gz" suffix on the output path is kept for naming
// compatibility even though the payload is zstd).
func Write(ctx context.Context, path string, results map[genome.GenomePosition]result.DeNovoResult) (err error) {
	recordiozstd.Init()
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "snapshot: creating %s", path)
	}
	defer file.CloseAndReport(ctx, f, &err)

	w := recordio.NewWriter(f.Writer(ctx), recordio.WriterOpts{
		Marshal:      marshalRecord,
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader("format.version", FormatVersion)
	for pos, res := range results {
		if werr := w.Append(Record{Position: pos, Result: res}); werr != nil {
			return errors.Wrapf(werr, "snapshot: writing record at %s", pos)
		}
	}
	return w.Finish()
}

// Read deserializes a snapshot previously written by Write.
func Read(ctx context.Context, path string) (map[genome.GenomePosition]result.DeNovoResult, error) {
	recordiozstd.Init()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot: opening %s", path)
	}
	defer f.Close(ctx)

	s := recordio.NewScanner(f.Reader(ctx), recordio.ScannerOpts{Unmarshal: unmarshalRecord})
	out := map[genome.GenomePosition]result.DeNovoResult{}
	for s.Scan() {
		rec := s.Get().(Record)
		out[rec.Position] = rec.Result
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "snapshot: reading %s", path)
	}
	return out, nil
}

// marshalRecord is the Record wire format: an explicit, length-prefixed
// envelope (grounded on row.go's hand-rolled approach) around a
// gob-encoded result payload:
//
//	[0:4)   uint32 little-endian: length of contig name
//	contig name bytes
//	[0:4)   uint32 little-endian: position
//	[0:4)   uint32 little-endian: length of gob-encoded result payload
//	payload bytes (gob-encoded result.DeNovoResult)
//
// The result payload itself uses encoding/gob rather than a fully
// hand-rolled layout: DeNovoResult's shape (optional parent pointers,
// variable-length concordance slice) changes as the pipeline evolves, and
// gob's self-describing encoding absorbs additive field changes without a
// second hand-maintained wire format. Only the outer envelope (position
// key) is explicit, since that key must be readable without decoding the
// payload when resuming.
func marshalRecord(scratch []byte, p interface{}) ([]byte, error) {
	rec := p.(Record)
	payload, err := gobEncode(rec.Result)
	if err != nil {
		return nil, err
	}
	contig := rec.Position.Contig

	buf := scratch[:0]
	buf = appendUint32(buf, uint32(len(contig)))
	buf = append(buf, contig...)
	buf = appendUint32(buf, uint32(rec.Position.Position))
	buf = appendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	return buf, nil
}

func unmarshalRecord(in []byte) (interface{}, error) {
	offset := 0
	contigLen := readUint32(in, &offset)
	contig := string(in[offset : offset+int(contigLen)])
	offset += int(contigLen)
	pos := readUint32(in, &offset)
	payloadLen := readUint32(in, &offset)
	payload := in[offset : offset+int(payloadLen)]

	var res result.DeNovoResult
	if err := gobDecode(payload, &res); err != nil {
		return nil, err
	}
	return Record{
		Position: genome.GenomePosition{Contig: contig, Position: int(pos)},
		Result:   res,
	}, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readUint32(in []byte, offset *int) uint32 {
	v := binary.LittleEndian.Uint32(in[*offset : *offset+4])
	*offset += 4
	return v
}
