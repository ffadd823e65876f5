package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/qepting91/reddit-conversations/internal/batch"
	"github.com/qepting91/reddit-conversations/internal/classify"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// DiscoverOptions control a discovery run.
type DiscoverOptions struct {
	// Limit is the number of newest posts fetched per subreddit.
	Limit int
	// Import writes qualifying posts that are not stored yet.
	Import bool
	DryRun bool
	// Now stamps scraped_at on imported posts. Defaults to time.Now.
	Now func() time.Time
}

// DiscoverResult carries the subreddit metadata seen during discovery.
type DiscoverResult struct {
	*Result
	Subreddits []domain.SubredditInfo
}

// Discover fetches metadata and the newest posts for each target and keeps
// the posts at or above the target's minimum score. A failing subreddit is
// logged and skipped; its error is returned with the others at the end.
func Discover(ctx context.Context, d Deps, c domain.Collector, targets []domain.Target, o DiscoverOptions) (*DiscoverResult, error) {
	r := d.start("discover", "targets", len(targets), "import", o.Import, "dry_run", o.DryRun)
	r.res.DryRun = o.DryRun
	now := o.Now
	if now == nil {
		now = time.Now
	}
	limit := o.Limit
	if limit <= 0 {
		limit = 25
	}

	var m *batch.Mutator
	if o.Import {
		m = d.mutator(r.log, o.DryRun)
	}

	qualifying := report.New("Qualifying posts by subreddit", "subreddit")
	outcome := report.New("Discovery outcome", "outcome")
	out := &DiscoverResult{}

	var errs *multierror.Error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return out.done(r, m), err
		}

		info, err := c.About(ctx, t.Subreddit)
		if err != nil {
			r.log.Error("subreddit lookup failed", "subreddit", t.Subreddit, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("about %s: %w", t.Subreddit, err))
			continue
		}
		out.Subreddits = append(out.Subreddits, info)

		posts, err := c.FetchNewPosts(ctx, t.Subreddit, limit)
		if err != nil {
			r.log.Error("scrape failed", "subreddit", t.Subreddit, "error", err)
			errs = multierror.Append(errs, fmt.Errorf("fetch %s: %w", t.Subreddit, err))
			continue
		}
		r.log.Info("subreddit fetched", "subreddit", t.Subreddit, "subscribers", info.Subscribers, "posts", len(posts))

		for _, p := range posts {
			r.res.Scanned++
			if p.Score < t.MinScore {
				outcome.Record("below min score")
				r.res.Skipped++
				continue
			}
			qualifying.Record(t.Subreddit)
			if m == nil {
				outcome.Record("qualifying")
				continue
			}

			imported, err := importPost(ctx, d.Store, m, prepare(p, t, now()))
			if err != nil {
				r.res.Reports = []*report.Report{qualifying, outcome}
				return out.done(r, m), fmt.Errorf("discover: import %s: %w", p.ID, err)
			}
			if imported {
				outcome.Record("imported")
			} else {
				outcome.Record("already stored")
			}
		}
	}

	if m != nil {
		if _, err := m.Flush(ctx); err != nil {
			r.res.Reports = []*report.Report{qualifying, outcome}
			return out.done(r, m), fmt.Errorf("discover: %w", err)
		}
	}
	r.res.Reports = []*report.Report{qualifying, outcome}
	return out.done(r, m), errs.ErrorOrNil()
}

func (out *DiscoverResult) done(r *run, m *batch.Mutator) *DiscoverResult {
	out.Result = r.finish(nil, m)
	return out
}

// prepare stamps a fetched post the way the scraper stores it.
func prepare(p domain.Post, t domain.Target, now time.Time) domain.Post {
	if t.Category != "" {
		p.Category = domain.String(t.Category)
	}
	p.ScrapedAt = now.UTC()
	if res, ok := classify.Image(p); ok {
		p = classify.Apply(p, res)
	}
	return p
}

// importPost queues a set for p unless the store already has it.
func importPost(ctx context.Context, r store.Reader, m *batch.Mutator, p domain.Post) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	_, err := r.Get(ctx, p.ID)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}
	if err := m.Queue(ctx, store.Set(p.ID, p.Fields())); err != nil {
		return false, err
	}
	return true, nil
}
