// Package scan walks the posts collection one page at a time.
package scan

import (
	"context"
	"fmt"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/metrics"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// DefaultPageSize matches the batch cap so a page of edits fits one commit.
const DefaultPageSize = 500

// Scanner is a lazy, single-use sequence of pages. Typical use:
//
//	sc := scan.New(st, scan.WithFilter("subreddit", "jobs"))
//	for sc.Next(ctx) {
//		for _, p := range sc.Page() { ... }
//	}
//	if err := sc.Err(); err != nil { ... }
//
// The next page is requested only when Next is called again.
type Scanner struct {
	reader   store.Reader
	filters  []store.Filter
	pageSize int
	limit    int
	metrics  *metrics.Metrics

	cursor  string
	page    []domain.Post
	pages   int
	scanned int
	done    bool
	err     error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPageSize sets the number of documents requested per page.
func WithPageSize(n int) Option {
	return func(s *Scanner) { s.pageSize = n }
}

// WithFilter adds a server-side equality filter.
func WithFilter(field string, value any) Option {
	return func(s *Scanner) { s.filters = append(s.filters, store.Filter{Field: field, Value: value}) }
}

// WithLimit stops the scan once at least n documents have been returned.
// Zero means no ceiling.
func WithLimit(n int) Option {
	return func(s *Scanner) { s.limit = n }
}

// WithMetrics records page and document counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// New returns a scanner positioned before the first page.
func New(r store.Reader, opts ...Option) *Scanner {
	s := &Scanner{reader: r, pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next fetches the next page. It returns false when the collection is
// exhausted, the ceiling is reached, or a read fails; Err tells them apart.
func (s *Scanner) Next(ctx context.Context) bool {
	s.page = nil
	if s.done {
		return false
	}
	if s.pageSize <= 0 {
		s.fail(fmt.Errorf("scan: page size must be positive, got %d", s.pageSize))
		return false
	}
	if s.limit > 0 && s.scanned >= s.limit {
		s.done = true
		return false
	}

	page, err := s.reader.Query(ctx, store.Query{
		Filters:    s.filters,
		Limit:      s.pageSize,
		StartAfter: s.cursor,
	})
	if err != nil {
		s.fail(fmt.Errorf("scan page %d after %q: %w", s.pages+1, s.cursor, err))
		return false
	}
	s.metrics.ObservePage(len(page))

	if len(page) == 0 {
		s.done = true
		return false
	}
	if len(page) < s.pageSize {
		s.done = true
	}

	s.page = page
	s.pages++
	s.scanned += len(page)
	s.cursor = page[len(page)-1].ID
	return true
}

// Page returns the documents fetched by the last successful Next.
func (s *Scanner) Page() []domain.Post { return s.page }

// Err returns the read error that ended the scan, if any.
func (s *Scanner) Err() error { return s.err }

// Stats reports pages and documents returned so far.
func (s *Scanner) Stats() (pages, documents int) { return s.pages, s.scanned }

func (s *Scanner) fail(err error) {
	s.err = err
	s.done = true
}
