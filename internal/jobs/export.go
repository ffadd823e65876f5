package jobs

import (
	"context"
	"fmt"

	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/storage"
)

// Export writes every scanned post to w as NDJSON.
func Export(ctx context.Context, d Deps, w *storage.Writer, o ScanOptions) (*Result, error) {
	r := d.start("export", "subreddit", o.Subreddit, "limit", o.Limit)
	s := d.scanner(o)

	bySub := report.New("Exported posts by subreddit", "subreddit")
	err := r.each(ctx, s, func(p domain.Post) error {
		bySub.Record(p.Subreddit)
		return w.Write(p)
	})
	if err == nil {
		err = w.Flush()
	}
	r.res.Reports = []*report.Report{bySub}
	res := r.finish(s, nil)
	if err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	return res, nil
}
