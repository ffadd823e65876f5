// Package report tallies counts by one or more dimensions during a scan.
package report

import (
	"slices"
	"strings"
)

const keySep = "\x1f"

// Entry is one row of a summary.
type Entry struct {
	Values []string `json:"values"`
	Count  int      `json:"count"`
}

// Label joins the entry's dimension values for display.
func (e Entry) Label() string {
	return strings.Join(e.Values, " / ")
}

// Report counts occurrences of dimension value tuples. Counts only grow.
type Report struct {
	Name       string
	Dimensions []string

	counts map[string]int
	values map[string][]string
	order  []string
	total  int
}

// New returns an empty report over the named dimensions.
func New(name string, dimensions ...string) *Report {
	return &Report{
		Name:       name,
		Dimensions: dimensions,
		counts:     make(map[string]int),
		values:     make(map[string][]string),
	}
}

// Record adds one occurrence of values. Missing trailing values are recorded
// as empty strings; extra values are ignored.
func (r *Report) Record(values ...string) {
	r.Add(1, values...)
}

// Add adds n occurrences of values.
func (r *Report) Add(n int, values ...string) {
	if n <= 0 {
		return
	}
	vals := make([]string, len(r.Dimensions))
	copy(vals, values)
	key := strings.Join(vals, keySep)
	if _, ok := r.counts[key]; !ok {
		r.order = append(r.order, key)
		r.values[key] = vals
	}
	r.counts[key] += n
	r.total += n
}

// Count returns the count recorded for values.
func (r *Report) Count(values ...string) int {
	vals := make([]string, len(r.Dimensions))
	copy(vals, values)
	return r.counts[strings.Join(vals, keySep)]
}

// Total is the sum of all counts.
func (r *Report) Total() int { return r.total }

// Len is the number of distinct value tuples.
func (r *Report) Len() int { return len(r.order) }

// Summary returns a snapshot ordered by descending count. Ties keep the order
// in which the tuples were first recorded.
func (r *Report) Summary() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, Entry{Values: slices.Clone(r.values[key]), Count: r.counts[key]})
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return b.Count - a.Count
	})
	return out
}

// Top returns at most n entries of Summary.
func (r *Report) Top(n int) []Entry {
	s := r.Summary()
	if n > 0 && len(s) > n {
		s = s[:n]
	}
	return s
}
