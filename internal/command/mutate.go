package command

import (
	"flag"

	"github.com/qepting91/reddit-conversations/internal/jobs"
)

type FixCategoriesCommand struct {
	*Meta

	flagSubreddit string
	flagDryRun    bool
}

func (c *FixCategoriesCommand) Synopsis() string {
	return "Relabel work and workplace-advice posts as workplace"
}

func (c *FixCategoriesCommand) Help() string {
	return help("fix-categories [options]",
		"Rewrites category \"work\" to \"workplace\", and \"advice\" to \"workplace\"\n  for posts in workplace subreddits.",
		c.Flags())
}

func (c *FixCategoriesCommand) Flags() *flag.FlagSet {
	f := c.flagSet("fix-categories")
	f.StringVar(&c.flagSubreddit, "subreddit", "", "Only correct posts from this subreddit.")
	f.BoolVar(&c.flagDryRun, "dry-run", false, "Only print what would be done without making changes.")
	return f
}

func (c *FixCategoriesCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	res, err := jobs.FixCategories(c.ctx(), e.deps, jobs.MutateOptions{
		ScanOptions: jobs.ScanOptions{Subreddit: c.flagSubreddit},
		DryRun:      c.flagDryRun,
	})
	c.summarize(res)
	if err != nil {
		return c.fail("fix-categories failed", err)
	}
	return 0
}

type BackfillImagesCommand struct {
	*Meta

	flagSubreddit string
	flagDryRun    bool
}

func (c *BackfillImagesCommand) Synopsis() string {
	return "Add image metadata to posts that have none"
}

func (c *BackfillImagesCommand) Help() string {
	return help("backfill-images [options]",
		"Classifies every post without hasImage and writes hasImage, imageUrl\n  and imageType. Posts that already have hasImage are skipped.",
		c.Flags())
}

func (c *BackfillImagesCommand) Flags() *flag.FlagSet {
	f := c.flagSet("backfill-images")
	f.StringVar(&c.flagSubreddit, "subreddit", "", "Only backfill posts from this subreddit.")
	f.BoolVar(&c.flagDryRun, "dry-run", false, "Only print what would be done without making changes.")
	return f
}

func (c *BackfillImagesCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	res, err := jobs.BackfillImages(c.ctx(), e.deps, jobs.MutateOptions{
		ScanOptions: jobs.ScanOptions{Subreddit: c.flagSubreddit},
		DryRun:      c.flagDryRun,
	})
	c.summarize(res)
	if err != nil {
		return c.fail("backfill-images failed", err)
	}
	return 0
}

type DeleteCommand struct {
	*Meta

	flagSubreddit  string
	flagCrossposts bool
	flagDryRun     bool
}

func (c *DeleteCommand) Synopsis() string {
	return "Delete posts by subreddit or crosspost flag"
}

func (c *DeleteCommand) Help() string {
	return help("delete [options]",
		"Deletes every post matching the filters. At least one of -subreddit\n  and -crossposts is required; both together narrow the selection.",
		c.Flags())
}

func (c *DeleteCommand) Flags() *flag.FlagSet {
	f := c.flagSet("delete")
	f.StringVar(&c.flagSubreddit, "subreddit", "", "Delete posts from this subreddit.")
	f.BoolVar(&c.flagCrossposts, "crossposts", false, "Delete crossposts.")
	f.BoolVar(&c.flagDryRun, "dry-run", false, "Only print what would be done without making changes.")
	return f
}

func (c *DeleteCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	opts := jobs.DeleteOptions{
		MutateOptions: jobs.MutateOptions{
			ScanOptions: jobs.ScanOptions{Subreddit: c.flagSubreddit},
			DryRun:      c.flagDryRun,
		},
		Crossposts: c.flagCrossposts,
	}
	if opts.Subreddit == "" && !opts.Crossposts {
		c.UI.Error(jobs.ErrNoFilter.Error())
		return 1
	}

	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	res, err := jobs.Delete(c.ctx(), e.deps, opts)
	c.summarize(res)
	if err != nil {
		return c.fail("delete failed", err)
	}
	return 0
}
