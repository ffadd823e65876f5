package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/qepting91/reddit-conversations/internal/ingest"
	"github.com/qepting91/reddit-conversations/internal/jobs"
)

type VerifySyncCommand struct {
	*Meta

	flagCatalog string
}

func (c *VerifySyncCommand) Synopsis() string {
	return "Check stored posts against the subreddit catalog"
}

func (c *VerifySyncCommand) Help() string {
	return help("verify-sync [options]",
		"Compares the subreddits and categories in the store with the catalog.\n  Exits 1 when they disagree.",
		c.Flags())
}

func (c *VerifySyncCommand) Flags() *flag.FlagSet {
	f := c.flagSet("verify-sync")
	f.StringVar(&c.flagCatalog, "catalog", "", "Path to the subreddit catalog. Defaults to CATALOG_FILE.")
	return f
}

func (c *VerifySyncCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	path := c.flagCatalog
	if path == "" {
		path = e.cfg.CatalogFile
	}
	cat, err := ingest.LoadCatalog(path)
	if err != nil {
		return c.fail("error loading catalog", err)
	}

	res, err := jobs.VerifySync(c.ctx(), e.deps, cat)
	if err != nil {
		return c.fail("verify-sync failed", err)
	}
	c.summarize(res.Result)

	if res.InSync() {
		c.UI.Info("Store is in sync with the catalog")
		return 0
	}
	if len(res.MissingFromStore) > 0 {
		c.UI.Warn("No posts stored for: " + strings.Join(res.MissingFromStore, ", "))
	}
	if len(res.NotInCatalog) > 0 {
		c.UI.Warn("Not in catalog: " + strings.Join(res.NotInCatalog, ", "))
	}
	if res.Mismatched > 0 {
		c.UI.Warn(fmt.Sprintf("%d posts have a category that differs from the catalog", res.Mismatched))
	}
	return 1
}
