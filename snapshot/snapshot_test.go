package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/result"
)

func TestUint32RoundTrip(t *testing.T) {
	buf := appendUint32(nil, 123456)
	offset := 0
	assert.Equal(t, uint32(123456), readUint32(buf, &offset))
	assert.Equal(t, 4, offset)
}

func TestGobRoundTripPreservesNilAndPopulatedParents(t *testing.T) {
	pos, err := genome.NewReferencePosition("chr2", 55, "C", []string{"T"})
	assert.NoError(t, err)

	p1 := result.Sample{SampleID: "dad", WeightedDepthA1: 12}
	r := result.DeNovoResult{
		Position:  pos,
		Child:     result.Sample{SampleID: "kid", WeightedDepthA1: 3, WeightedDepthA2: 4},
		Parent1:   &p1,
		SuperNovo: true,
	}

	payload, err := gobEncode(r)
	assert.NoError(t, err)

	var out result.DeNovoResult
	assert.NoError(t, gobDecode(payload, &out))

	assert.Equal(t, r.Position, out.Position)
	assert.Equal(t, r.Child, out.Child)
	assert.NotNil(t, out.Parent1)
	assert.Equal(t, *r.Parent1, *out.Parent1)
	assert.Nil(t, out.Parent2)
	assert.True(t, out.SuperNovo)
}

func TestMarshalUnmarshalRecordRoundTrip(t *testing.T) {
	pos, err := genome.NewReferencePosition("chr3", 999, "G", []string{"A"})
	assert.NoError(t, err)

	rec := Record{
		Position: genome.GenomePosition{Contig: "chr3", Position: 999},
		Result: result.DeNovoResult{
			Position: pos,
			Child:    result.Sample{SampleID: "kid"},
		},
	}

	buf, err := marshalRecord(nil, rec)
	assert.NoError(t, err)

	decoded, err := unmarshalRecord(buf)
	assert.NoError(t, err)

	out := decoded.(Record)
	assert.Equal(t, rec.Position, out.Position)
	assert.Equal(t, rec.Result.Position, out.Result.Position)
	assert.Equal(t, rec.Result.Child, out.Result.Child)
}

func TestWriteReadRoundTripsThroughARealFile(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	path := filepath.Join(tmpdir, "snapshot.ser.gz")

	pos1, err := genome.NewReferencePosition("chr1", 100, "A", []string{"G"})
	assert.NoError(t, err)
	pos2, err := genome.NewReferencePosition("chr2", 200, "C", []string{"T"})
	assert.NoError(t, err)

	p1 := result.Sample{SampleID: "dad", WeightedDepthA1: 7}
	in := map[genome.GenomePosition]result.DeNovoResult{
		pos1.GenomePosition: {
			Position: pos1,
			Child:    result.Sample{SampleID: "kid", WeightedDepthA1: 3, WeightedDepthA2: 4},
			Parent1:  &p1,
		},
		pos2.GenomePosition: {
			Position:  pos2,
			Child:     result.Sample{SampleID: "kid", RawDepthA1: 9},
			SuperNovo: true,
		},
	}

	ctx := vcontext.Background()
	assert.NoError(t, Write(ctx, path, in))

	out, err := Read(ctx, path)
	assert.NoError(t, err)
	assert.Equal(t, len(in), len(out))
	for pos, want := range in {
		got, ok := out[pos]
		assert.True(t, ok, "missing position %s", pos)
		assert.Equal(t, want.Position, got.Position)
		assert.Equal(t, want.Child, got.Child)
		assert.Equal(t, want.SuperNovo, got.SuperNovo)
		if want.Parent1 != nil {
			assert.NotNil(t, got.Parent1)
			assert.Equal(t, *want.Parent1, *got.Parent1)
		} else {
			assert.Nil(t, got.Parent1)
		}
	}
}

func TestMarshalRecordAcceptsScratchBuffer(t *testing.T) {
	pos, err := genome.NewReferencePosition("chr1", 1, "A", []string{"C"})
	assert.NoError(t, err)
	rec := Record{
		Position: genome.GenomePosition{Contig: "chr1", Position: 1},
		Result:   result.DeNovoResult{Position: pos},
	}

	scratch := make([]byte, 0, 4096)
	buf, err := marshalRecord(scratch, rec)
	assert.NoError(t, err)
	assert.NotEmpty(t, buf)
}
