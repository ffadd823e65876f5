package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/ingest"
	"github.com/qepting91/reddit-conversations/internal/report"
)

// SyncResult compares the catalog with what the store holds.
type SyncResult struct {
	*Result
	// MissingFromStore lists active catalog subreddits with no posts.
	MissingFromStore []string
	// NotInCatalog lists stored subreddits the catalog does not know.
	NotInCatalog []string
	// Mismatched counts posts whose category differs from the catalog's.
	Mismatched int
}

// InSync reports whether store and catalog agree.
func (s *SyncResult) InSync() bool {
	return len(s.MissingFromStore) == 0 && len(s.NotInCatalog) == 0 && s.Mismatched == 0
}

// VerifySync scans every post and checks it against the catalog.
func VerifySync(ctx context.Context, d Deps, cat *ingest.Catalog) (*SyncResult, error) {
	r := d.start("verify-sync", "catalog_entries", len(cat.Subreddits))
	s := d.scanner(ScanOptions{})

	stored := report.New("Stored posts by subreddit", "subreddit")
	unknown := report.New("Posts in subreddits missing from the catalog", "subreddit")
	mismatch := report.New("Category mismatches", "subreddit", "stored", "catalog")

	err := r.each(ctx, s, func(p domain.Post) error {
		stored.Record(strings.ToLower(p.Subreddit))
		entry, ok := cat.Lookup(p.Subreddit)
		if !ok {
			unknown.Record(p.Subreddit)
			return nil
		}
		if entry.Category != "" && p.CategoryOrEmpty() != entry.Category {
			mismatch.Record(entry.Name, p.CategoryOrEmpty(), entry.Category)
		}
		return nil
	})

	out := &SyncResult{Mismatched: mismatch.Total()}
	for _, e := range cat.Subreddits {
		if e.Active() && stored.Count(strings.ToLower(e.Name)) == 0 {
			out.MissingFromStore = append(out.MissingFromStore, e.Name)
		}
	}
	for _, e := range unknown.Summary() {
		out.NotInCatalog = append(out.NotInCatalog, e.Values[0])
	}

	missing := report.New("Catalog subreddits with no stored posts", "subreddit")
	for _, name := range out.MissingFromStore {
		missing.Record(name)
	}

	r.res.Reports = []*report.Report{stored, missing, unknown, mismatch}
	out.Result = r.finish(s, nil)
	if err != nil {
		return out, fmt.Errorf("verify sync: %w", err)
	}
	if !out.InSync() {
		r.log.Warn("store out of sync with catalog",
			"missing_from_store", out.MissingFromStore,
			"not_in_catalog", out.NotInCatalog,
			"category_mismatches", out.Mismatched,
		)
	}
	return out, nil
}
