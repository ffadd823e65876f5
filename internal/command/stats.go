package command

import (
	"flag"

	"github.com/qepting91/reddit-conversations/internal/jobs"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/storage"
)

type StatsCommand struct {
	*Meta

	flagSubreddit string
	flagSample    bool
	flagLimit     int
	flagChart     string
}

func (c *StatsCommand) Synopsis() string {
	return "Report post counts by subreddit, category and image type"
}

func (c *StatsCommand) Help() string {
	return help("stats [options]",
		"Scans the posts collection and prints counts by subreddit, category,\n  subreddit and category, missing categories, crosspost parents and image type.",
		c.Flags())
}

func (c *StatsCommand) Flags() *flag.FlagSet {
	f := c.flagSet("stats")
	f.StringVar(&c.flagSubreddit, "subreddit", "", "Only scan posts from this subreddit.")
	f.BoolVar(&c.flagSample, "sample", false, "Stop after SCAN_LIMIT posts (default 6000).")
	f.IntVar(&c.flagLimit, "limit", 0, "Stop after this many posts. Overrides -sample.")
	f.StringVar(&c.flagChart, "chart", "", "Also write an HTML chart page to this file.")
	return f
}

func (c *StatsCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	limit := c.flagLimit
	if limit == 0 && c.flagSample {
		limit = e.cfg.ScanLimit
	}

	res, err := jobs.Stats(c.ctx(), e.deps, jobs.ScanOptions{Subreddit: c.flagSubreddit, Limit: limit})
	if err != nil {
		return c.fail("stats failed", err)
	}
	c.summarize(res)

	if c.flagChart != "" {
		w, err := storage.Create(c.flagChart)
		if err != nil {
			return c.fail("error creating chart file", err)
		}
		defer w.Close()
		if err := report.WriteChart(w, res.Reports...); err != nil {
			return c.fail("error writing chart", err)
		}
		c.UI.Info("Chart written to " + c.flagChart)
	}
	return 0
}
