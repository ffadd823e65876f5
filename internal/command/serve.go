package command

import (
	"flag"

	"github.com/qepting91/reddit-conversations/internal/dashboard"
)

type ServeCommand struct {
	*Meta

	flagAddr string
}

func (c *ServeCommand) Synopsis() string {
	return "Serve the read-only posts API and dashboard"
}

func (c *ServeCommand) Help() string {
	return help("serve [options]",
		"Serves /api/posts, /api/posts/:id, /api/stats, the chart dashboard at /,\n  /metrics and /health until interrupted.",
		c.Flags())
}

func (c *ServeCommand) Flags() *flag.FlagSet {
	f := c.flagSet("serve")
	f.StringVar(&c.flagAddr, "addr", "", "Listen address. Defaults to HTTP_ADDR or :PORT.")
	return f
}

func (c *ServeCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error("error parsing flags: " + err.Error())
		return 1
	}
	e, ok := c.setup()
	if !ok {
		return 1
	}
	defer e.close()

	addr := c.flagAddr
	if addr == "" {
		addr = e.cfg.HTTPAddr
	}
	h := dashboard.Handler(dashboard.Options{
		Jobs:           e.deps,
		AllowedOrigins: e.cfg.AllowedOrigins,
		StatsLimit:     e.cfg.ScanLimit,
	})
	if err := dashboard.ListenAndServe(c.ctx(), addr, h, c.logger()); err != nil {
		return c.fail("http server failed", err)
	}
	return 0
}
