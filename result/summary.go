package result

// Summarize implements the <output>.summary.txt categorization, grounded
// on original_source's AbstractEvaluator.summarizeResults: every
// result flagged SuperNovo increments "supernovo", "<gene>_AnyImpact", and
// "<impact>" unconditionally, plus "supernovo_damaging", "<gene>", and
// "supernovo_damaging_nonref" when the annotator's impact is MODERATE or
// HIGH and the de novo allele is not the reference allele.
func Summarize(results []DeNovoResult) map[string]int {
	counts := map[string]int{}
	inc := func(key string) { counts[key]++ }

	for _, r := range results {
		if !r.SuperNovo {
			continue
		}
		inc("supernovo")
		if r.SnpEffGene != "" {
			inc(r.SnpEffGene + "_AnyImpact")
		}
		if r.SnpEffImpact != "" {
			inc(r.SnpEffImpact)
		}
		if isDamaging(r.SnpEffImpact) {
			inc("supernovo_damaging")
			if r.SnpEffGene != "" {
				inc(r.SnpEffGene)
			}
			if !r.DNIsRef {
				inc("supernovo_damaging_nonref")
			}
		}
	}
	return counts
}

func isDamaging(impact string) bool {
	return impact == "MODERATE" || impact == "HIGH"
}
