package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetFlags clears every flag this test might touch back to its
// zero/default value, since the flag.Value pointers are package globals
// shared across test cases.
func resetFlags() {
	*vcfFlag = ""
	*childBamFlag = ""
	*childIDFlag = ""
	*soloFlag = false
	*parent1BamFlag = ""
	*parent1IDFlag = ""
	*parent2BamFlag = ""
	*parent2IDFlag = ""
	*outputFlag = ""
	*genomeFlag = ""
}

func requiredFlagsSet() {
	*vcfFlag = "calls.vcf"
	*childBamFlag = "child.bam"
	*childIDFlag = "kid"
	*outputFlag = "out"
	*genomeFlag = "hg38"
}

func TestValidateFlagsRequiresVCF(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*vcfFlag = ""
	assert.Error(t, validateFlags())
}

func TestValidateFlagsRequiresOutput(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*outputFlag = ""
	assert.Error(t, validateFlags())
}

func TestValidateFlagsSoloModeNeedsNoParentFlags(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*soloFlag = true
	assert.NoError(t, validateFlags())
}

func TestValidateFlagsSoloModeRejectsParentBam(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*soloFlag = true
	*parent1BamFlag = "dad.bam"
	assert.Error(t, validateFlags())
}

func TestValidateFlagsTrioModeRequiresAllFourParentFlags(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*parent1BamFlag = "dad.bam"
	*parent1IDFlag = "dad"
	// parent2 flags left unset.
	assert.Error(t, validateFlags())
}

func TestValidateFlagsTrioModeSucceedsWithAllFlags(t *testing.T) {
	resetFlags()
	requiredFlagsSet()
	*parent1BamFlag = "dad.bam"
	*parent1IDFlag = "dad"
	*parent2BamFlag = "mom.bam"
	*parent2IDFlag = "mom"
	assert.NoError(t, validateFlags())
}
