package command

import (
	"flag"
	"fmt"

	"github.com/qepting91/reddit-conversations/internal/collector"
	"github.com/qepting91/reddit-conversations/internal/domain"
	"github.com/qepting91/reddit-conversations/internal/ingest"
	"github.com/qepting91/reddit-conversations/internal/jobs"
)

type DiscoverCommand struct {
	*Meta

	// NewCollector overrides the collector built from configuration.
	NewCollector func() (domain.Collector, error)

	flagTargets string
	flagLimit   int
	flagImport  bool
	flagDryRun  bool
}

func (c *DiscoverCommand) Synopsis() string {
	return "Fetch new posts for catalog subreddits and optionally import them"
}

func (c *DiscoverCommand) Help() string {
	return help("discover [options]",
		"Fetches subreddit metadata and the newest posts for every active catalog\n  entry (or every row of -targets), keeps posts at or above the minimum\n  score, and with -import stores the ones not seen before.",
		c.Flags())
}

func (c *DiscoverCommand) Flags() *flag.FlagSet {
	f := c.flagSet("discover")
	f.StringVar(&c.flagTargets, "targets", "", "CSV file of subreddit,min_score[,category] rows to use instead of the catalog.")
	f.IntVar(&c.flagLimit, "limit", 25, "Newest posts to fetch per subreddit (at most 100).")
	f.BoolVar(&c.flagImport, "import", false, "Store qualifying posts that are not in the collection yet.")
	f.BoolVar(&c.flagDryRun, "dry-run", false, "Only print what would be imported.")
	return f
}

func (c *DiscoverCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	targets, err := c.targets(e)
	if err != nil {
		return c.fail("error loading targets", err)
	}
	if len(targets) == 0 {
		c.UI.Warn("No subreddits to discover")
		return 0
	}

	coll, err := c.collector(e)
	if err != nil {
		return c.fail("failed to initialize collector", err)
	}

	res, err := jobs.Discover(c.ctx(), e.deps, coll, targets, jobs.DiscoverOptions{
		Limit:  c.flagLimit,
		Import: c.flagImport,
		DryRun: c.flagDryRun,
	})
	if res != nil {
		for _, s := range res.Subreddits {
			c.UI.Output(fmt.Sprintf("r/%s: %d subscribers, %d active", s.Name, s.Subscribers, s.ActiveUsers))
		}
		c.summarize(res.Result)
	}
	if err != nil {
		return c.fail("discover failed", err)
	}
	return 0
}

func (c *DiscoverCommand) targets(e *env) ([]domain.Target, error) {
	if c.flagTargets != "" {
		return ingest.LoadTargets(c.flagTargets)
	}
	cat, err := ingest.LoadCatalog(e.cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	return cat.Targets(), nil
}

func (c *DiscoverCommand) collector(e *env) (domain.Collector, error) {
	if c.NewCollector != nil {
		return c.NewCollector()
	}
	if err := e.cfg.ValidateReddit(); err != nil {
		return nil, err
	}
	return collector.NewCollector(c.ctx(), e.cfg.Reddit, e.deps.Metrics, e.deps.Log)
}
