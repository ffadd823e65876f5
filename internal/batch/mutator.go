// Package batch accumulates write operations and commits them in capped,
// atomic batches.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/qepting91/reddit-conversations/internal/metrics"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// DefaultThrottle is the pause between consecutive commits.
const DefaultThrottle = 100 * time.Millisecond

// ErrClosed is returned by Queue after a commit has failed. Operations queued
// after a failure would otherwise be committed out of order with the lost
// batch.
var ErrClosed = errors.New("batch: mutator stopped after failed commit")

// CommitError reports a failed commit. Operations in the failed batch were
// not applied; earlier batches stay applied.
type CommitError struct {
	Batch int
	Ops   int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit batch %d (%d operations): %v", e.Batch, e.Ops, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// CommitResult describes one committed batch.
type CommitResult struct {
	Batch  int
	Ops    int
	DryRun bool
}

// Stats summarizes a mutator's lifetime.
type Stats struct {
	Queued    int
	Committed int
	Batches   int
	Pending   int
}

// Mutator queues operations and commits them in batches of at most maxOps.
// It is not safe for concurrent use; jobs drive it from a single goroutine.
type Mutator struct {
	committer store.Committer
	maxOps    int
	limiter   *rate.Limiter
	dryRun    bool
	metrics   *metrics.Metrics
	logger    *slog.Logger

	pending []store.Op
	results []CommitResult
	queued  int
	failed  error
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithMaxOps lowers the batch cap. Values outside 1..store.MaxBatchOps are
// clamped.
func WithMaxOps(n int) Option {
	return func(m *Mutator) {
		if n <= 0 || n > store.MaxBatchOps {
			n = store.MaxBatchOps
		}
		m.maxOps = n
	}
}

// WithThrottle sets the minimum gap between commits. Zero disables it.
func WithThrottle(d time.Duration) Option {
	return func(m *Mutator) {
		if d <= 0 {
			m.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		m.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithDryRun counts batches without writing them.
func WithDryRun(dry bool) Option {
	return func(m *Mutator) { m.dryRun = dry }
}

// WithMetrics records queued and committed operations.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mutator) { m.metrics = mt }
}

// WithLogger sets the logger used for per-commit progress.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mutator) { m.logger = l }
}

// NewMutator returns a mutator with the store's batch cap and the default
// throttle.
func NewMutator(c store.Committer, opts ...Option) *Mutator {
	m := &Mutator{
		committer: c,
		maxOps:    store.MaxBatchOps,
		limiter:   rate.NewLimiter(rate.Every(DefaultThrottle), 1),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.pending = make([]store.Op, 0, m.maxOps)
	return m
}

// Queue adds op to the current batch, committing the batch once it is
// full. The returned error is a *CommitError when that commit failed. A full
// batch left behind by an interrupted throttle wait is committed before op
// is added; op is dropped if that commit cannot proceed.
func (m *Mutator) Queue(ctx context.Context, op store.Op) error {
	if m.failed != nil {
		return ErrClosed
	}
	if len(m.pending) >= m.maxOps {
		if _, err := m.Flush(ctx); err != nil {
			return err
		}
	}
	m.pending = append(m.pending, op)
	m.queued++
	m.metrics.IncQueued(op.Kind.String())
	if len(m.pending) < m.maxOps {
		return nil
	}
	_, err := m.Flush(ctx)
	return err
}

// Flush commits any pending operations. Flushing an empty batch is a no-op
// that returns a zero CommitResult.
func (m *Mutator) Flush(ctx context.Context) (CommitResult, error) {
	if m.failed != nil {
		return CommitResult{}, ErrClosed
	}
	if len(m.pending) == 0 {
		return CommitResult{}, nil
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return CommitResult{}, err
	}

	ops := m.pending
	m.pending = make([]store.Op, 0, m.maxOps)
	n := len(m.results) + 1

	if !m.dryRun {
		err := m.committer.Commit(ctx, ops)
		m.metrics.ObserveCommit(len(ops), err)
		if err != nil {
			m.failed = &CommitError{Batch: n, Ops: len(ops), Err: err}
			return CommitResult{}, m.failed
		}
	}

	res := CommitResult{Batch: n, Ops: len(ops), DryRun: m.dryRun}
	m.results = append(m.results, res)
	m.logger.Debug("batch committed", "batch", n, "ops", len(ops), "dry_run", m.dryRun)
	return res, nil
}

// Results returns every successful commit in order.
func (m *Mutator) Results() []CommitResult {
	out := make([]CommitResult, len(m.results))
	copy(out, m.results)
	return out
}

// Stats reports totals so far.
func (m *Mutator) Stats() Stats {
	s := Stats{Queued: m.queued, Batches: len(m.results), Pending: len(m.pending)}
	for _, r := range m.results {
		s.Committed += r.Ops
	}
	return s
}
