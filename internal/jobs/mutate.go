package jobs

import (
	"context"
	"fmt"

	"github.com/qepting91/reddit-conversations/internal/classify"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/scan"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// MutateOptions narrow a writing job.
type MutateOptions struct {
	ScanOptions
	DryRun bool
}

// FixCategories relabels "work" posts and advice posts in workplace
// subreddits as "workplace".
func FixCategories(ctx context.Context, d Deps, o MutateOptions) (*Result, error) {
	r := d.start("fix-categories", "subreddit", o.Subreddit, "dry_run", o.DryRun)
	r.res.DryRun = o.DryRun
	s := d.scanner(o.ScanOptions)
	m := d.mutator(r.log, o.DryRun)

	changes := report.New("Category corrections", "from", "to")
	bySub := report.New("Corrections by subreddit", "subreddit")

	err := r.mutate(ctx, s, m, func(p domain.Post) (store.Op, bool) {
		to, ok := classify.Category(p)
		if !ok {
			return store.Op{}, false
		}
		changes.Record(p.CategoryOrEmpty(), to)
		bySub.Record(p.Subreddit)
		return store.Update(p.ID, map[string]any{"category": to}), true
	})
	r.res.Reports = []*report.Report{changes, bySub}
	res := r.finish(s, m)
	if err != nil {
		return res, fmt.Errorf("fix categories: %w", err)
	}
	return res, nil
}

// BackfillImages classifies every post that has no image metadata yet. The
// image report counts only posts newly marked as having an image.
func BackfillImages(ctx context.Context, d Deps, o MutateOptions) (*Result, error) {
	r := d.start("backfill-images", "subreddit", o.Subreddit, "dry_run", o.DryRun)
	r.res.DryRun = o.DryRun
	s := d.scanner(o.ScanOptions)
	m := d.mutator(r.log, o.DryRun)

	types := report.New("New images by type", "image_type")
	outcome := report.New("Backfill outcome", "outcome")

	err := r.mutate(ctx, s, m, func(p domain.Post) (store.Op, bool) {
		res, ok := classify.Image(p)
		if !ok {
			outcome.Record("already classified")
			return store.Op{}, false
		}
		if res.HasImage {
			types.Record(res.ImageType)
			outcome.Record("image")
		} else {
			outcome.Record("no image")
		}
		return store.Update(p.ID, classify.ImageFields(res)), true
	})
	r.res.Reports = []*report.Report{types, outcome}
	res := r.finish(s, m)
	if err != nil {
		return res, fmt.Errorf("backfill images: %w", err)
	}
	return res, nil
}

// DeleteOptions select the posts to delete. At least one filter is required.
type DeleteOptions struct {
	MutateOptions
	Crossposts bool
}

// Delete removes every post matching the filters.
func Delete(ctx context.Context, d Deps, o DeleteOptions) (*Result, error) {
	if o.Subreddit == "" && !o.Crossposts {
		return nil, ErrNoFilter
	}
	r := d.start("delete", "subreddit", o.Subreddit, "crossposts", o.Crossposts, "dry_run", o.DryRun)
	r.res.DryRun = o.DryRun

	var extra []scan.Option
	if o.Crossposts {
		extra = append(extra, scan.WithFilter("is_crosspost", true))
	}
	s := d.scanner(o.ScanOptions, extra...)
	m := d.mutator(r.log, o.DryRun)

	deleted := report.New("Deleted posts by subreddit", "subreddit")
	err := r.mutate(ctx, s, m, func(p domain.Post) (store.Op, bool) {
		deleted.Record(p.Subreddit)
		return store.Delete(p.ID), true
	})
	r.res.Reports = []*report.Report{deleted}
	res := r.finish(s, m)
	if err != nil {
		return res, fmt.Errorf("delete: %w", err)
	}
	return res, nil
}
