// Package verify compares the records each store holds with the counts in a
// dataset manifest.
package verify

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pilosa/ecomgen"
	"github.com/pilosa/ecomgen/file"
	"github.com/pkg/errors"
)

// Result is the outcome of counting one kind in one store. A zero Kind means
// the result is about the whole store, e.g. it could not be reached.
type Result struct {
	Backend  string
	Kind     ecomgen.Kind
	Expected int64
	Found    int64
	Err      error
}

// OK reports whether the store holds exactly the expected records.
func (r Result) OK() bool {
	return r.Err == nil && r.Found == r.Expected
}

// errNotCountable marks stores which can't count what they hold.
var errNotCountable = errors.New("store can't count records")

// Verify counts every kind in every store. Stores that can't count are
// listed as skipped and are not failures.
func Verify(ctx context.Context, stores []ecomgen.Store, man *file.Manifest, connectTimeout time.Duration) []Result {
	var results []Result
	for _, s := range stores {
		results = append(results, verifyStore(ctx, s, man, connectTimeout)...)
	}
	return results
}

func verifyStore(ctx context.Context, s ecomgen.Store, man *file.Manifest, connectTimeout time.Duration) []Result {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	w, err := s.Connect(cctx)
	cancel()
	if err != nil {
		return []Result{{Backend: s.Name(), Err: err}}
	}
	defer w.Close()
	c, ok := w.(ecomgen.Counter)
	if !ok {
		return []Result{{Backend: s.Name(), Err: errNotCountable}}
	}
	results := make([]Result, 0, len(ecomgen.Kinds))
	for _, k := range ecomgen.Kinds {
		n, err := c.Count(ctx, k)
		results = append(results, Result{
			Backend:  s.Name(),
			Kind:     k,
			Expected: man.Count(k),
			Found:    n,
			Err:      err,
		})
	}
	return results
}

// FormatResults writes one line per result.
func FormatResults(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tENTITY\tEXPECTED\tFOUND\tSTATUS")
	for _, r := range results {
		switch {
		case r.Err == errNotCountable:
			fmt.Fprintf(tw, "%s\t-\t-\t-\tskipped: %v\n", r.Backend, r.Err)
		case r.Err != nil && r.Kind == 0:
			fmt.Fprintf(tw, "%s\t-\t-\t-\tFAILED: %v\n", r.Backend, r.Err)
		case r.Err != nil:
			fmt.Fprintf(tw, "%s\t%s\t%d\t-\tFAILED: %v\n", r.Backend, r.Kind.Collection(), r.Expected, r.Err)
		case r.OK():
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\tok\n", r.Backend, r.Kind.Collection(), r.Expected, r.Found)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\tMISMATCH\n", r.Backend, r.Kind.Collection(), r.Expected, r.Found)
		}
	}
	return errors.Wrap(tw.Flush(), "writing results")
}

// Failed returns an error naming every store that did not verify, or nil.
func Failed(results []Result) error {
	var failed []string
	seen := make(map[string]bool)
	for _, r := range results {
		if r.OK() || r.Err == errNotCountable || seen[r.Backend] {
			continue
		}
		seen[r.Backend] = true
		failed = append(failed, r.Backend)
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.Errorf("verification failed for %v", failed)
}
