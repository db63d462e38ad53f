// Package config holds the explicit threshold configuration shared by the
// classifier, haplotype evaluator, and candidate parser. It is passed by
// value; nothing in this module keeps a process-global instance.
package config

// Config collects every overridable threshold used by the classifier, the
// haplotype evaluator, and the candidate parser and orchestrator.
type Config struct {
	// MinDepth is the minimum weighted biallelic depth for looksVariant.
	MinDepth float64
	// MinAllelicDepth is the minimum raw per-allele depth required of both
	// A1 and A2 for looksVariant.
	MinAllelicDepth int
	// MinAllelicFrac is the minimum weighted minor-allele fraction for
	// looksVariant.
	MinAllelicFrac float64

	// MaxMiscallFrac is the parental raw allelic fraction ceiling below
	// which an allele is still considered a miscall (not "possible").
	MaxMiscallFrac float64
	// MaxMiscallWeight is the parental raw allelic count ceiling below
	// which an allele is still considered a miscall.
	MaxMiscallWeight float64

	// VCFMaxParentAD is the parental AD ceiling (from the VCF) above which
	// a candidate is assumed inherited and dropped before evaluation.
	VCFMaxParentAD int
	// MinParentalDepth is the minimum parental weighted depth required for
	// a trio call to be flagged superNovo.
	MinParentalDepth float64

	// MinOtherDNAllelicDepth is the per-allele raw depth floor (paired with
	// MinAllelicFrac) for counting a neighbor as a de novo.
	MinOtherDNAllelicDepth float64
	// MinOtherDNAllelicDepthIndependent is the frac-independent per-allele
	// raw depth floor for counting a neighbor as a de novo.
	MinOtherDNAllelicDepthIndependent float64

	// MinHaplotypeConcordance is the minimum concordance to count a
	// neighbor as a de novo.
	MinHaplotypeConcordance float64
	// HaplotypeSearchDistance is the +/- window, in bases, around a
	// candidate searched for neighboring variants.
	HaplotypeSearchDistance int
}

// Default returns the threshold defaults matching original_source's
// App.java flag defaults.
func Default() Config {
	return Config{
		MinDepth:                          10,
		MinAllelicDepth:                   4,
		MinAllelicFrac:                    0.10,
		MaxMiscallFrac:                    0.05,
		MaxMiscallWeight:                  1.0,
		VCFMaxParentAD:                    4,
		MinParentalDepth:                  10,
		MinOtherDNAllelicDepth:            1.5,
		MinOtherDNAllelicDepthIndependent: 3.0,
		MinHaplotypeConcordance:           0.75,
		HaplotypeSearchDistance:           150,
	}
}
