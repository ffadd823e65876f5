package jobs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/report"
)

// Stats scans posts and tallies them by subreddit, category, their
// combination, missing categories, crosspost parents and image type.
func Stats(ctx context.Context, d Deps, o ScanOptions) (*Result, error) {
	r := d.start("stats", "subreddit", o.Subreddit, "limit", o.Limit)
	s := d.scanner(o)

	bySub := report.New("Posts by subreddit", "subreddit")
	byCat := report.New("Posts by category", "category")
	bySubCat := report.New("Posts by subreddit and category", "subreddit", "category")
	missing := report.New("Posts missing a category", "subreddit")
	crossposts := report.New("Crossposts by parent subreddit", "parent")
	images := report.New("Posts by image type", "image_type")
	scores := report.New("Posts by score band", "score")

	err := r.each(ctx, s, func(p domain.Post) error {
		bySub.Record(p.Subreddit)
		byCat.Record(p.CategoryOrEmpty())
		bySubCat.Record(p.Subreddit, p.CategoryOrEmpty())
		if p.Category == nil {
			missing.Record(p.Subreddit)
		}
		if p.IsCrosspost {
			crossposts.Record(p.CrosspostParentSubreddit)
		}
		images.Record(imageLabel(p))
		scores.Record(scoreBand(p.Score))
		return nil
	})
	r.res.Reports = []*report.Report{bySub, byCat, bySubCat, missing, crossposts, images, scores}
	res := r.finish(s, nil)
	if err != nil {
		return res, fmt.Errorf("stats: %w", err)
	}
	return res, nil
}

func imageLabel(p domain.Post) string {
	switch {
	case p.HasImage == nil:
		return "unclassified"
	case !*p.HasImage:
		return "none"
	case p.ImageType == nil:
		return ""
	default:
		return *p.ImageType
	}
}

var scoreBands = []int{0, 10, 100, 1000, 10000}

func scoreBand(score int) string {
	for i := len(scoreBands) - 1; i >= 0; i-- {
		if score >= scoreBands[i] {
			return strconv.Itoa(scoreBands[i]) + "+"
		}
	}
	return "negative"
}
