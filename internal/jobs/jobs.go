// Package jobs implements the maintenance jobs run against the posts
// collection. Each job scans pages, classifies documents, queues writes and
// tallies reports; none of them retries or checkpoints.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qepting91/reddit-conversations/internal/batch"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/metrics"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/scan"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// ErrNoFilter is returned by Delete when neither a subreddit nor the
// crosspost filter was given.
var ErrNoFilter = errors.New("delete requires -subreddit or -crossposts")

// Deps carries what every job needs. Zero sizes fall back to the store
// defaults.
type Deps struct {
	Store    store.Store
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	PageSize int
	// BatchSize caps operations per commit.
	BatchSize int
	Throttle  time.Duration
}

// Result is what a job reports back to the command that ran it.
type Result struct {
	RunID     string
	Pages     int
	Scanned   int
	Skipped   int
	Batches   int
	Committed int
	DryRun    bool
	Reports   []*report.Report
}

// run is the state of one job invocation.
type run struct {
	id  string
	log *slog.Logger
	res *Result
}

func (d Deps) start(job string, attrs ...any) *run {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	log = log.With("job", job, "run_id", id)
	log.Info("job started", attrs...)
	return &run{id: id, log: log, res: &Result{RunID: id}}
}

func (r *run) finish(s *scan.Scanner, m *batch.Mutator) *Result {
	if s != nil {
		r.res.Pages, r.res.Scanned = s.Stats()
	}
	if m != nil {
		st := m.Stats()
		r.res.Batches, r.res.Committed = st.Batches, st.Committed
	}
	r.log.Info("job finished",
		"pages", r.res.Pages,
		"scanned", r.res.Scanned,
		"skipped", r.res.Skipped,
		"batches", r.res.Batches,
		"committed", r.res.Committed,
		"dry_run", r.res.DryRun,
	)
	return r.res
}

// ScanOptions narrow a scan.
type ScanOptions struct {
	Subreddit string
	// Limit stops the scan once this many documents were read.
	Limit int
}

func (d Deps) scanner(o ScanOptions, extra ...scan.Option) *scan.Scanner {
	opts := []scan.Option{scan.WithMetrics(d.Metrics), scan.WithLimit(o.Limit)}
	if d.PageSize > 0 {
		opts = append(opts, scan.WithPageSize(d.PageSize))
	}
	if o.Subreddit != "" {
		opts = append(opts, scan.WithFilter("subreddit", o.Subreddit))
	}
	opts = append(opts, extra...)
	return scan.New(d.Store, opts...)
}

func (d Deps) mutator(log *slog.Logger, dryRun bool) *batch.Mutator {
	throttle := d.Throttle
	if throttle == 0 {
		throttle = batch.DefaultThrottle
	}
	return batch.NewMutator(d.Store,
		batch.WithMaxOps(d.BatchSize),
		batch.WithThrottle(throttle),
		batch.WithDryRun(dryRun),
		batch.WithMetrics(d.Metrics),
		batch.WithLogger(log),
	)
}

// each walks every page of s, calling fn per document, and logs progress
// after each page.
func (r *run) each(ctx context.Context, s *scan.Scanner, fn func(domain.Post) error) error {
	for s.Next(ctx) {
		for _, p := range s.Page() {
			if err := fn(p); err != nil {
				return err
			}
		}
		pages, docs := s.Stats()
		r.log.Info("page processed", "page", pages, "scanned", docs)
	}
	return s.Err()
}

// mutate runs a scan whose callback queues writes, then flushes the tail.
func (r *run) mutate(ctx context.Context, s *scan.Scanner, m *batch.Mutator, fn func(domain.Post) (store.Op, bool)) error {
	err := r.each(ctx, s, func(p domain.Post) error {
		op, ok := fn(p)
		if !ok {
			r.res.Skipped++
			return nil
		}
		return m.Queue(ctx, op)
	})
	if err != nil {
		return err
	}
	_, err = m.Flush(ctx)
	return err
}
