package result

import (
	"bufio"
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"
)

// WriteTabDelimited writes results as the `<output>` file: a header row
// derived from DeNovoResult's flattened field names, followed by one row
// per result, sorted by the caller beforehand.
func WriteTabDelimited(ctx context.Context, path string, results []DeNovoResult) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "result: creating %s", path)
	}
	defer file.CloseAndReport(ctx, f, &err)

	w := bufio.NewWriter(f.Writer(ctx))
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	if _, werr := w.WriteString(strings.Join(Headers(DeNovoResult{}), "\t") + "\n"); werr != nil {
		return errors.Wrap(werr, "result: writing header")
	}
	for _, r := range results {
		if _, werr := w.WriteString(strings.Join(Row(r), "\t") + "\n"); werr != nil {
			return errors.Wrap(werr, "result: writing row")
		}
	}
	return nil
}

// WriteSummary writes the `<output>.summary.txt` file: tab-delimited
// key<TAB>count pairs, sorted by key for deterministic output.
func WriteSummary(ctx context.Context, path string, results []DeNovoResult) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "result: creating %s", path)
	}
	defer file.CloseAndReport(ctx, f, &err)

	w := bufio.NewWriter(f.Writer(ctx))
	defer func() {
		if ferr := w.Flush(); err == nil {
			err = ferr
		}
	}()

	counts := Summarize(results)
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, werr := w.WriteString(k + "\t" + strconv.Itoa(counts[k]) + "\n"); werr != nil {
			return errors.Wrap(werr, "result: writing summary row")
		}
	}
	return nil
}
