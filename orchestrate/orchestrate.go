// Package orchestrate implements the resumable staged pipeline that binds
// every other package together: load-or-resume, parse candidates, evict
// stale results, evaluate the remainder in parallel, checkpoint
// periodically, and hand off to the annotator and writers, grounded on
// original_source's AbstractEvaluator.run.
package orchestrate

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/PankratzLab/SuperNovo/annotate"
	"github.com/PankratzLab/SuperNovo/bamio"
	"github.com/PankratzLab/SuperNovo/candidate"
	"github.com/PankratzLab/SuperNovo/classify"
	"github.com/PankratzLab/SuperNovo/config"
	"github.com/PankratzLab/SuperNovo/genome"
	"github.com/PankratzLab/SuperNovo/haplotype"
	"github.com/PankratzLab/SuperNovo/pileupcache"
	"github.com/PankratzLab/SuperNovo/result"
	"github.com/PankratzLab/SuperNovo/snapshot"
)

// checkpointInterval is the periodic checkpoint cadence.
const checkpointInterval = 10 * time.Minute

// finalCheckpointGrace is the supplemented behavior from
// original_source's AbstractEvaluator.run: one last checkpoint attempt
// within 60 seconds of evaluation completing, so a run that finishes
// between two 10-minute ticks doesn't lose its tail of progress if it's
// then interrupted before the final snapshot write.
const finalCheckpointGrace = 60 * time.Second

// Opts configures one orchestrator run.
type Opts struct {
	VCFPath                                    string
	ChildBAM, Parent1BAM, Parent2BAM           string
	ChildSample, Parent1Sample, Parent2Sample  string
	OutputStem                                 string
	Annotate                                   annotate.Opts
	Config                                     config.Config
	Parallelism                                int
}

func (o Opts) solo() bool { return o.Parent1BAM == "" && o.Parent2BAM == "" }

// Run executes the full load-resume/parse/evaluate/annotate/write pipeline.
func Run(ctx context.Context, opts Opts) error {
	results, err := loadResume(ctx, opts.OutputStem)
	if err != nil {
		return err
	}

	candidates, err := candidate.Parse(ctx, candidate.Opts{
		VCFPath:       opts.VCFPath,
		ChildSample:   opts.ChildSample,
		Parent1Sample: opts.Parent1Sample,
		Parent2Sample: opts.Parent2Sample,
		Parallelism:   opts.Parallelism,
	}, opts.Config)
	if err != nil {
		return errors.Wrap(err, "orchestrate: parsing candidates")
	}

	toInclude := map[genome.GenomePosition]genome.ReferencePosition{}
	for _, c := range candidates {
		toInclude[c.Position.GenomePosition] = c.Position
	}
	for pos := range results {
		if _, ok := toInclude[pos]; !ok {
			delete(results, pos)
		}
	}

	var remaining []genome.ReferencePosition
	for pos, rp := range toInclude {
		if _, ok := results[pos]; !ok {
			remaining = append(remaining, rp)
		}
	}

	childCache, p1Cache, p2Cache := openCaches(opts)

	resultsMu := &sync.Mutex{}
	done := make(chan struct{})
	checkpointErrCh := make(chan error, 1)
	go checkpointer(ctx, opts.OutputStem, results, resultsMu, done, checkpointErrCh)

	evalErr := evaluateAll(opts, remaining, results, resultsMu, childCache, p1Cache, p2Cache)
	close(done)
	if cpErr := <-checkpointErrCh; cpErr != nil {
		log.Error.Printf("orchestrate: checkpointer: %v", cpErr)
	}
	if evalErr != nil {
		return errors.Wrap(evalErr, "orchestrate: evaluating candidates")
	}

	order := genome.NewContigOrder(candidateContigs(candidates))
	final := make([]result.DeNovoResult, 0, len(results))
	for _, r := range results {
		final = append(final, r)
	}
	sort.Slice(final, func(i, j int) bool {
		return final[i].Position.Less(final[j].Position.GenomePosition, order)
	})

	vcfOut := opts.OutputStem + ".DeNovoResults.vcf.gz"
	annotator := annotate.New(opts.Annotate)
	final, err = annotator.Annotate(ctx, final, vcfOut)
	if err != nil {
		return errors.Wrap(err, "orchestrate: annotating results")
	}
	for i := range final {
		final[i].SuperNovo = result.IsSuperNovo(opts.Config, final[i], parentalDepthOK(opts, final[i]))
	}

	finalMap := make(map[genome.GenomePosition]result.DeNovoResult, len(final))
	for _, r := range final {
		finalMap[r.Position.GenomePosition] = r
	}
	if err := snapshot.Write(ctx, snapshot.FinalPath(opts.OutputStem), finalMap); err != nil {
		return errors.Wrap(err, "orchestrate: writing final snapshot")
	}
	if err := result.WriteTabDelimited(ctx, opts.OutputStem, final); err != nil {
		return errors.Wrap(err, "orchestrate: writing tab-delimited output")
	}
	if err := result.WriteSummary(ctx, opts.OutputStem+".summary.txt", final); err != nil {
		return errors.Wrap(err, "orchestrate: writing summary")
	}
	return nil
}

// candidateContigs lists each contig in the order it first appears in
// candidates; that list is the contig order used when sorting final
// output. candidate.Parse's output order depends on worker scheduling and
// on map iteration over the VCF header's contigs, so this order is not
// necessarily the VCF's contig order and can differ between runs.
func candidateContigs(candidates []candidate.Context) []string {
	var order []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if !seen[c.Position.Contig] {
			seen[c.Position.Contig] = true
			order = append(order, c.Position.Contig)
		}
	}
	return order
}

// parentalDepthOK applies the min_parental_depth gate for the superNovo
// flag; solo mode has no parental depth requirement.
func parentalDepthOK(opts Opts, r result.DeNovoResult) bool {
	if opts.solo() {
		return true
	}
	ok := func(s *result.Sample) bool {
		return s != nil && s.WeightedDepthA1+s.WeightedDepthA2 >= opts.Config.MinParentalDepth
	}
	return ok(r.Parent1) && ok(r.Parent2)
}

// loadResume prefers a complete snapshot, else falls back to the chunked
// checkpoint, else starts empty.
func loadResume(ctx context.Context, outputStem string) (map[genome.GenomePosition]result.DeNovoResult, error) {
	if results, err := snapshot.Read(ctx, snapshot.FinalPath(outputStem)); err == nil {
		return results, nil
	} else if !os.IsNotExist(errors.Cause(err)) {
		log.Error.Printf("orchestrate: final snapshot unreadable, ignoring: %v", err)
	}
	if results, err := snapshot.Read(ctx, snapshot.ChunkedPath(outputStem)); err == nil {
		return results, nil
	} else if !os.IsNotExist(errors.Cause(err)) {
		log.Error.Printf("orchestrate: chunked snapshot unreadable, ignoring: %v", err)
	}
	return map[genome.GenomePosition]result.DeNovoResult{}, nil
}

func checkpointer(ctx context.Context, outputStem string, results map[genome.GenomePosition]result.DeNovoResult, mu *sync.Mutex, done <-chan struct{}, errCh chan<- error) {
	ticker := time.NewTicker(checkpointInterval)
	defer ticker.Stop()
	snapshotNow := func() error {
		mu.Lock()
		snap := make(map[genome.GenomePosition]result.DeNovoResult, len(results))
		for k, v := range results {
			snap[k] = v
		}
		mu.Unlock()
		return writeChunked(ctx, outputStem, snap)
	}
	for {
		select {
		case <-ticker.C:
			if err := snapshotNow(); err != nil {
				log.Error.Printf("orchestrate: checkpoint failed: %v", err)
			}
		case <-done:
			time.Sleep(finalCheckpointGrace)
			errCh <- snapshotNow()
			return
		case <-ctx.Done():
			errCh <- nil
			return
		}
	}
}

// writeChunked atomically rewrites the chunked checkpoint: write to a temp
// path, then rename, so a crash mid-write never leaves a truncated
// checkpoint at the canonical path.
func writeChunked(ctx context.Context, outputStem string, results map[genome.GenomePosition]result.DeNovoResult) error {
	path := snapshot.ChunkedPath(outputStem)
	tmp := path + ".tmp"
	if err := snapshot.Write(ctx, tmp, results); err != nil {
		return errors.Wrap(err, "writing temp checkpoint")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "renaming checkpoint")
	}
	return nil
}

func openCaches(opts Opts) (child, p1, p2 *pileupcache.Cache) {
	child = pileupcache.New(&bamio.Provider{Path: opts.ChildBAM}, nil, 0)
	if opts.Parent1BAM != "" {
		p1 = pileupcache.New(&bamio.Provider{Path: opts.Parent1BAM}, nil, 0)
	}
	if opts.Parent2BAM != "" {
		p2 = pileupcache.New(&bamio.Provider{Path: opts.Parent2BAM}, nil, 0)
	}
	return child, p1, p2
}

// evaluateAll evaluates every remaining candidate in parallel, writing
// each into the shared results map.
func evaluateAll(opts Opts, remaining []genome.ReferencePosition, results map[genome.GenomePosition]result.DeNovoResult, mu *sync.Mutex, child, p1, p2 *pileupcache.Cache) error {
	evaluator := haplotype.Evaluator{Config: opts.Config, Child: child, Parent1: p1, Parent2: p2}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return traverse.Limit(parallelism).Each(len(remaining), func(i int) error {
		rp := remaining[i]
		r, ok, err := evaluateOne(opts, evaluator, rp, child, p1, p2)
		if err != nil {
			log.Error.Printf("orchestrate: evaluating %s: %v", rp, err)
			return nil
		}
		if ok {
			mu.Lock()
			results[rp.GenomePosition] = r
			mu.Unlock()
		}
		return nil
	})
}

func evaluateOne(opts Opts, evaluator haplotype.Evaluator, rp genome.ReferencePosition, child, p1, p2 *pileupcache.Cache) (result.DeNovoResult, bool, error) {
	childPile, err := child.Get(rp.GenomePosition)
	if err != nil {
		return result.DeNovoResult{}, false, err
	}
	if !classify.LooksVariant(opts.Config, childPile.Depth()) {
		return result.DeNovoResult{}, false, nil
	}

	hapResult, err := evaluator.Evaluate(rp.GenomePosition, childPile)
	if err != nil {
		return result.DeNovoResult{}, false, err
	}

	r := result.DeNovoResult{
		Position:  rp,
		Haplotype: result.FromHaplotypeResult(hapResult),
		Child:     result.NewSample(opts.ChildSample, childPile, childPile.Depth()),
	}

	if !opts.solo() {
		if p1 != nil {
			p1Pile, err := p1.Get(rp.GenomePosition)
			if err != nil {
				return result.DeNovoResult{}, false, err
			}
			s := result.NewSample(opts.Parent1Sample, p1Pile, childPile.Depth())
			r.Parent1 = &s
		}
		if p2 != nil {
			p2Pile, err := p2.Get(rp.GenomePosition)
			if err != nil {
				return result.DeNovoResult{}, false, err
			}
			s := result.NewSample(opts.Parent2Sample, p2Pile, childPile.Depth())
			r.Parent2 = &s
		}
	}

	return r, true, nil
}
