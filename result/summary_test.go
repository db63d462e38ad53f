package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeIgnoresNonSuperNovoResults(t *testing.T) {
	counts := Summarize([]DeNovoResult{{SuperNovo: false, SnpEffImpact: "HIGH"}})
	assert.Empty(t, counts)
}

func TestSummarizeCountsSuperNovoAndImpact(t *testing.T) {
	counts := Summarize([]DeNovoResult{
		{SuperNovo: true, SnpEffGene: "TP53", SnpEffImpact: "LOW"},
	})
	assert.Equal(t, 1, counts["supernovo"])
	assert.Equal(t, 1, counts["TP53_AnyImpact"])
	assert.Equal(t, 1, counts["LOW"])
	assert.Equal(t, 0, counts["supernovo_damaging"])
}

func TestSummarizeCountsDamagingNonRef(t *testing.T) {
	counts := Summarize([]DeNovoResult{
		{SuperNovo: true, SnpEffGene: "TP53", SnpEffImpact: "HIGH", DNIsRef: false},
	})
	assert.Equal(t, 1, counts["supernovo"])
	assert.Equal(t, 1, counts["TP53_AnyImpact"])
	assert.Equal(t, 1, counts["HIGH"])
	assert.Equal(t, 1, counts["supernovo_damaging"])
	assert.Equal(t, 1, counts["TP53"])
	assert.Equal(t, 1, counts["supernovo_damaging_nonref"])
}

func TestSummarizeExcludesDamagingNonRefWhenDNIsRef(t *testing.T) {
	counts := Summarize([]DeNovoResult{
		{SuperNovo: true, SnpEffGene: "TP53", SnpEffImpact: "MODERATE", DNIsRef: true},
	})
	assert.Equal(t, 1, counts["supernovo_damaging"])
	assert.Equal(t, 0, counts["supernovo_damaging_nonref"])
}

func TestSummarizeAggregatesAcrossMultipleResults(t *testing.T) {
	counts := Summarize([]DeNovoResult{
		{SuperNovo: true, SnpEffGene: "TP53", SnpEffImpact: "HIGH"},
		{SuperNovo: true, SnpEffGene: "TP53", SnpEffImpact: "HIGH"},
		{SuperNovo: true, SnpEffGene: "BRCA1", SnpEffImpact: "LOW"},
	})
	assert.Equal(t, 3, counts["supernovo"])
	assert.Equal(t, 2, counts["TP53_AnyImpact"])
	assert.Equal(t, 2, counts["HIGH"])
	assert.Equal(t, 2, counts["supernovo_damaging"])
	assert.Equal(t, 2, counts["TP53"])
}
