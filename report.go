package ecomgen

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

// LoadReport summarizes one load into one store.
type LoadReport struct {
	Backend string

	Attempted int
	Inserted  int
	Skipped   int
	Rejected  int

	// Reasons holds the first rejections, up to LoadConfig.MaxReasons.
	Reasons []Rejection

	// ByKind breaks Attempted and Rejected down by entity kind.
	ByKind map[Kind]*KindCounts

	Duration time.Duration

	// Err is the error which ended the load early, if any.
	Err error
}

// KindCounts are the per entity kind counters of a LoadReport.
type KindCounts struct {
	Attempted int
	Rejected  int
}

func newLoadReport(backend string) *LoadReport {
	return &LoadReport{
		Backend: backend,
		ByKind:  make(map[Kind]*KindCounts),
	}
}

func (r *LoadReport) counts(k Kind) *KindCounts {
	if r.ByKind == nil {
		r.ByKind = make(map[Kind]*KindCounts)
	}
	c, ok := r.ByKind[k]
	if !ok {
		c = &KindCounts{}
		r.ByKind[k] = c
	}
	return c
}

func (r *LoadReport) attempt(k Kind) {
	r.Attempted++
	r.counts(k).Attempted++
}

func (r *LoadReport) reject(rej Rejection, max int) {
	r.Rejected++
	r.counts(rej.Kind).Rejected++
	if len(r.Reasons) < max {
		r.Reasons = append(r.Reasons, rej)
	}
}

// OK reports whether the load ran to completion.
func (r *LoadReport) OK() bool {
	return r.Err == nil
}

func (r *LoadReport) String() string {
	s := fmt.Sprintf("%s: attempted=%d inserted=%d skipped=%d rejected=%d in %v",
		r.Backend, r.Attempted, r.Inserted, r.Skipped, r.Rejected, r.Duration.Round(time.Millisecond))
	if r.Err != nil {
		s += ": " + r.Err.Error()
	}
	return s
}

// FormatReports writes a per-backend summary table followed by the kept
// rejection reasons.
func FormatReports(w io.Writer, reports []*LoadReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tATTEMPTED\tINSERTED\tSKIPPED\tREJECTED\tDURATION\tSTATUS")
	for _, r := range reports {
		status := "ok"
		if r.Err != nil {
			status = "FAILED: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%v\t%s\n",
			r.Backend, r.Attempted, r.Inserted, r.Skipped, r.Rejected, r.Duration.Round(time.Millisecond), status)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing summary")
	}
	for _, r := range reports {
		if len(r.Reasons) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s: first %d of %d rejections\n", r.Backend, len(r.Reasons), r.Rejected)
		for _, rej := range r.Reasons {
			if _, err := fmt.Fprintf(w, "  %s\n", rej); err != nil {
				return errors.Wrap(err, "writing rejections")
			}
		}
	}
	return nil
}

// Failed returns an error naming every store whose load ended early, or nil.
func Failed(reports []*LoadReport) error {
	var failed []string
	for _, r := range reports {
		if r.Err != nil {
			failed = append(failed, r.Backend)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return errors.Errorf("load failed for %s", strings.Join(failed, ", "))
}
