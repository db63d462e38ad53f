// supernovo scans a trio's or single sample's VCF for candidate de novo
// SNVs and evaluates each against child and parental BAMs.
//
// Usage:
//
//	supernovo --vcf calls.vcf --childBam child.bam --childID kid \
//	    --parent1Bam dad.bam --parent1ID dad --parent2Bam mom.bam --parent2ID mom \
//	    --output results/run1 --genome hg38 [--snpEff snpEff.jar | --annovarDir /path/to/annovar]
//
// Pass --solo instead of the parent flags to evaluate a single sample
// without trio context.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/PankratzLab/SuperNovo/annotate"
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/orchestrate"
)

var (
	vcfFlag      = flag.String("vcf", "", "VCF with variants to query")
	childBamFlag = flag.String("childBam", "", "BAM of child")
	childIDFlag  = flag.String("childID", "", "Sample ID of child")

	soloFlag = flag.Bool("solo", false, "Run analysis on a single sample, otherwise must include parental information for trio analysis")

	parent1BamFlag = flag.String("parent1Bam", "", "BAM of parent 1")
	parent1IDFlag  = flag.String("parent1ID", "", "Sample ID of parent 1")
	parent2BamFlag = flag.String("parent2Bam", "", "BAM of parent 2")
	parent2IDFlag  = flag.String("parent2ID", "", "Sample ID of parent 2")

	annovarDirFlag = flag.String("annovarDir", "", "Directory where annovar is located")
	snpEffJarFlag  = flag.String("snpEff", "", "Path to snpeff jar")
	genomeFlag     = flag.String("genome", "", "Genome build argument for snpeff/annovar")

	outputFlag = flag.String("output", "", "Output file stem for parsed de novo variants")

	vcfMaxParentADFlag  = flag.Int("vcfMaxParentAD", 4, "Maximum AD value from VCF for the de novo allele in a parent to evaluate a variant; above this, the variant is assumed inherited")
	minDepthFlag        = flag.Float64("minDepth", 10, "Minimum weighted depth to consider calling a variant")
	minAllelicDepthFlag = flag.Int("minAllelicDepth", 4, "Minimum allelic depth to consider calling a variant")
	minAllelicFracFlag  = flag.Float64("minAllelicFrac", 0.1, "Minimum allelic fraction to consider calling a variant")

	minParentalDepthFlag = flag.Float64("minParentalDepth", 10, "Minimum parental weighted depth to consider a de novo variant superNovo")

	minOtherDNAllelicDepthFlag            = flag.Float64("minOtherDNAllelicDepth", 1.5, "Minimum allelic depth to count a local variant in the other de novo region count")
	minOtherDNAllelicDepthIndependentFlag = flag.Float64("minOtherDNAllelicDepthIndependent", 3.0, "Minimum allelic depth to count a local variant in the other de novo region count, if it fails minAllelicFrac")

	maxMiscallFracFlag   = flag.Float64("maxMiscallFrac", 0.05, "Maximum allelic fraction in parents to consider as miscalled bases; above this, the variant is assumed inherited")
	maxMiscallWeightFlag = flag.Float64("maxMiscallWeight", 1.0, "Maximum raw read count in parents to consider as miscalled bases; above this, the variant is assumed inherited")

	minHaplotypeConcordanceFlag = flag.Float64("minHaplotypeConcordance", 0.75, "Minimum concordance with inherited variant haplotypes in the region")
	haplotypeSearchDistanceFlag = flag.Int("haplotypeSearchDistance", 150, "Distance to search up and down stream for variants on reads overlapping a potential de novo variant")

	parallelismFlag = flag.Int("parallelism", 0, "Parallelism for candidate parsing and evaluation (default: number of CPUs)")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if err := validateFlags(); err != nil {
		log.Error.Print(err)
		flag.Usage()
		os.Exit(1)
	}

	opts := orchestrate.Opts{
		VCFPath:       *vcfFlag,
		ChildBAM:      *childBamFlag,
		ChildSample:   *childIDFlag,
		Parent1BAM:    *parent1BamFlag,
		Parent1Sample: *parent1IDFlag,
		Parent2BAM:    *parent2BamFlag,
		Parent2Sample: *parent2IDFlag,
		OutputStem:    *outputFlag,
		Parallelism:   *parallelismFlag,
		Annotate: annotate.Opts{
			SnpEffJar:  *snpEffJarFlag,
			AnnovarDir: *annovarDirFlag,
			Genome:     *genomeFlag,
		},
		Config: config.Config{
			MinDepth:                          *minDepthFlag,
			MinAllelicDepth:                   *minAllelicDepthFlag,
			MinAllelicFrac:                    *minAllelicFracFlag,
			MaxMiscallFrac:                    *maxMiscallFracFlag,
			MaxMiscallWeight:                  *maxMiscallWeightFlag,
			VCFMaxParentAD:                    *vcfMaxParentADFlag,
			MinParentalDepth:                  *minParentalDepthFlag,
			MinOtherDNAllelicDepth:            *minOtherDNAllelicDepthFlag,
			MinOtherDNAllelicDepthIndependent: *minOtherDNAllelicDepthIndependentFlag,
			MinHaplotypeConcordance:           *minHaplotypeConcordanceFlag,
			HaplotypeSearchDistance:           *haplotypeSearchDistanceFlag,
		},
	}

	ctx := vcontext.Background()
	if err := orchestrate.Run(ctx, opts); err != nil {
		log.Fatalf("supernovo: %v", err)
	}
}

func validateFlags() error {
	switch {
	case *vcfFlag == "":
		return fmt.Errorf("--vcf is required")
	case *childBamFlag == "":
		return fmt.Errorf("--childBam is required")
	case *childIDFlag == "":
		return fmt.Errorf("--childID is required")
	case *outputFlag == "":
		return fmt.Errorf("--output is required")
	case *genomeFlag == "":
		return fmt.Errorf("--genome is required")
	}
	if *soloFlag {
		if *parent1BamFlag != "" || *parent2BamFlag != "" {
			return fmt.Errorf("--solo cannot be combined with parent BAM flags")
		}
		return nil
	}
	if *parent1BamFlag == "" || *parent1IDFlag == "" || *parent2BamFlag == "" || *parent2IDFlag == "" {
		return fmt.Errorf("trio analysis requires --parent1Bam, --parent1ID, --parent2Bam, and --parent2ID, or else --solo")
	}
	return nil
}
