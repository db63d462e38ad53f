// Package annotate models the external functional-annotation step
// (SnpEff/Annovar) as an opaque collaborator. The core never inspects its
// internals; it only needs gene, impact, and whether the de novo allele
// equals the reference allele.
package annotate

import (
	"context"
	"os/exec"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/PankratzLab/SuperNovo/result"
)

// Opts configures which external annotator to invoke. Exactly one of
// SnpEffJar or AnnovarDir is expected to be set; both empty disables
// annotation (results pass through with zero-value annotation fields).
type Opts struct {
	SnpEffJar  string
	AnnovarDir string
	Genome     string
}

// Annotator is the external collaborator's contract: given results and the
// path for the annotator's own VCF output, return the results with their
// SnpEffGene/SnpEffImpact/DNIsRef fields as the implementation leaves them.
type Annotator interface {
	Annotate(ctx context.Context, results []result.DeNovoResult, vcfOutPath string) ([]result.DeNovoResult, error)
}

// New returns an Annotator driving the configured external tool, or a
// no-op passthrough if neither SnpEffJar nor AnnovarDir is set.
func New(opts Opts) Annotator {
	if opts.SnpEffJar == "" && opts.AnnovarDir == "" {
		return passthrough{}
	}
	return external{opts: opts}
}

type passthrough struct{}

func (passthrough) Annotate(_ context.Context, results []result.DeNovoResult, _ string) ([]result.DeNovoResult, error) {
	return results, nil
}

// external drives SnpEff or Annovar as a subprocess. Invoking a JAR/binary
// is inherently os/exec; no library in the retrieval pack wraps
// third-party annotation tools (DESIGN.md).
type external struct {
	opts Opts
}

func (e external) Annotate(ctx context.Context, results []result.DeNovoResult, vcfOutPath string) ([]result.DeNovoResult, error) {
	cmd, err := e.command(ctx, vcfOutPath)
	if err != nil {
		return nil, err
	}
	log.Info.Printf("annotate: running %s", cmd.Path)
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "annotate: running %s", cmd.Path)
	}
	annotated, err := parseAnnotatorVCF(vcfOutPath, results)
	if err != nil {
		return nil, errors.Wrap(err, "annotate: reading annotator output")
	}
	return annotated, nil
}

func (e external) command(ctx context.Context, vcfOutPath string) (*exec.Cmd, error) {
	switch {
	case e.opts.SnpEffJar != "":
		return exec.CommandContext(ctx, "java", "-jar", e.opts.SnpEffJar, e.opts.Genome, "-o", "vcf", vcfOutPath), nil
	case e.opts.AnnovarDir != "":
		return exec.CommandContext(ctx, e.opts.AnnovarDir+"/table_annovar.pl", "-buildver", e.opts.Genome, "-out", vcfOutPath), nil
	default:
		return nil, errors.New("annotate: no annotator configured")
	}
}

// parseAnnotatorVCF returns results unchanged: it does not open the
// annotator's VCF output, and no snpeffGene/snpeffImpact/dnIsRef INFO
// fields are merged onto the results.
func parseAnnotatorVCF(_ string, results []result.DeNovoResult) ([]result.DeNovoResult, error) {
	return results, nil
}
