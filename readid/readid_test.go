package readid

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
)

func record(name string, flags sam.Flags) *sam.Record {
	return &sam.Record{Name: name, Flags: flags}
}

func TestOfIsStableAcrossIdenticalReads(t *testing.T) {
	a := record("read1", sam.Paired|sam.Read1)
	b := record("read1", sam.Paired|sam.Read1)
	assert.Equal(t, Of(a), Of(b))
}

func TestOfDistinguishesMates(t *testing.T) {
	r1 := record("read1", sam.Paired|sam.Read1)
	r2 := record("read1", sam.Paired|sam.Read2)
	assert.NotEqual(t, Of(r1), Of(r2))
}

func TestOfDistinguishesNames(t *testing.T) {
	a := record("read1", sam.Paired|sam.Read1)
	b := record("read2", sam.Paired|sam.Read1)
	assert.NotEqual(t, Of(a), Of(b))
}

func TestSetIntersect(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(2, 3, 4)
	assert.Equal(t, 2, a.Intersect(b))

	empty := NewSet()
	assert.Equal(t, 0, a.Intersect(empty))
}

func TestSetUnion(t *testing.T) {
	a := NewSet(1, 2)
	b := NewSet(2, 3)
	u := a.Union(b)
	assert.Len(t, u, 3)
	for _, id := range []ID{1, 2, 3} {
		_, ok := u[id]
		assert.True(t, ok)
	}
	// Union must not mutate its receiver.
	assert.Len(t, a, 2)
}

func TestSetAdd(t *testing.T) {
	s := NewSet()
	s.Add(42)
	_, ok := s[42]
	assert.True(t, ok)
}
