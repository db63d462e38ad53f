package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatchesDocumentedThresholds(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10.0, cfg.MinDepth)
	assert.Equal(t, 4, cfg.MinAllelicDepth)
	assert.Equal(t, 0.10, cfg.MinAllelicFrac)
	assert.Equal(t, 0.05, cfg.MaxMiscallFrac)
	assert.Equal(t, 1.0, cfg.MaxMiscallWeight)
	assert.Equal(t, 4, cfg.VCFMaxParentAD)
	assert.Equal(t, 10.0, cfg.MinParentalDepth)
	assert.Equal(t, 1.5, cfg.MinOtherDNAllelicDepth)
	assert.Equal(t, 3.0, cfg.MinOtherDNAllelicDepthIndependent)
	assert.Equal(t, 0.75, cfg.MinHaplotypeConcordance)
	assert.Equal(t, 150, cfg.HaplotypeSearchDistance)
}

func TestDefaultIsAPlainValueNotASingleton(t *testing.T) {
	a := Default()
	a.MinDepth = 999
	b := Default()
	assert.Equal(t, 10.0, b.MinDepth, "mutating one Default() value must not affect another")
}
