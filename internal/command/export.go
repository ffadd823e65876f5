package command

import (
	"flag"

	"github.com/qepting91/reddit-conversations/internal/jobs"
	"github.com/qepting91/reddit-conversations/internal/storage"
)

type ExportCommand struct {
	*Meta

	flagOut       string
	flagSubreddit string
	flagLimit     int
}

func (c *ExportCommand) Synopsis() string {
	return "Write posts as newline-delimited JSON"
}

func (c *ExportCommand) Help() string {
	return help("export [options]",
		"Scans the posts collection and writes one JSON object per line.",
		c.Flags())
}

func (c *ExportCommand) Flags() *flag.FlagSet {
	f := c.flagSet("export")
	f.StringVar(&c.flagOut, "out", "-", "Output file, or - for stdout.")
	f.StringVar(&c.flagSubreddit, "subreddit", "", "Only export posts from this subreddit.")
	f.IntVar(&c.flagLimit, "limit", 0, "Stop after this many posts.")
	return f
}

func (c *ExportCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	out, err := storage.Create(c.flagOut)
	if err != nil {
		return c.fail("error creating output", err)
	}
	defer out.Close()

	res, err := jobs.Export(c.ctx(), e.deps, storage.NewWriter(out), jobs.ScanOptions{
		Subreddit: c.flagSubreddit,
		Limit:     c.flagLimit,
	})
	if err != nil {
		return c.fail("export failed", err)
	}
	c.logger().Info("export complete", "posts", res.Scanned, "out", c.flagOut, "run_id", res.RunID)
	return 0
}
