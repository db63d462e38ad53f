package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalAndChunkedPaths(t *testing.T) {
	assert.Equal(t, "out.SuperNovoResultList.ser.gz", FinalPath("out"))
	assert.Equal(t, "out.SuperNovoResultList.ser.gz_CHUNKED", ChunkedPath("out"))
}
