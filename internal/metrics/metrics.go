package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for scans and batched writes.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesFetched      prometheus.Counter
	DocumentsScanned  prometheus.Counter
	OperationsQueued  *prometheus.CounterVec
	OperationsWritten prometheus.Counter
	Commits           prometheus.Counter
	CommitFailures    prometheus.Counter
	APIRequests       *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_pages_fetched_total",
		Help: "Pages read from the posts collection.",
	})
	scanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_documents_scanned_total",
		Help: "Documents read from the posts collection.",
	})
	queued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_operations_queued_total",
		Help: "Write operations queued for commit, by kind.",
	}, []string{"kind"})
	written := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_operations_committed_total",
		Help: "Write operations applied by successful commits.",
	})
	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_batch_commits_total",
		Help: "Successful batch commits.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_batch_commit_failures_total",
		Help: "Batch commits that returned an error.",
	})
	api := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_api_requests_total",
		Help: "Remote content API requests, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	registry.MustRegister(pages, scanned, queued, written, commits, failures, api)

	return &Metrics{
		Registry:          registry,
		PagesFetched:      pages,
		DocumentsScanned:  scanned,
		OperationsQueued:  queued,
		OperationsWritten: written,
		Commits:           commits,
		CommitFailures:    failures,
		APIRequests:       api,
	}
}

// ObservePage records one fetched page of n documents.
func (m *Metrics) ObservePage(n int) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.DocumentsScanned.Add(float64(n))
}

// IncQueued counts one queued operation of the given kind.
func (m *Metrics) IncQueued(kind string) {
	if m == nil {
		return
	}
	m.OperationsQueued.WithLabelValues(kind).Inc()
}

// ObserveCommit records a commit of n operations.
func (m *Metrics) ObserveCommit(n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CommitFailures.Inc()
		return
	}
	m.Commits.Inc()
	m.OperationsWritten.Add(float64(n))
}

// IncAPIRequest counts a remote API call.
func (m *Metrics) IncAPIRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.APIRequests.WithLabelValues(endpoint, outcome).Inc()
}
