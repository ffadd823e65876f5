// Package command wires the postsctl subcommands to the jobs.
package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qepting91/reddit-conversations/internal/config"
	"github.com/qepting91/reddit-conversations/internal/jobs"
	"github.com/qepting91/reddit-conversations/internal/metrics"
	"github.com/qepting91/reddit-conversations/internal/report"
	"github.com/qepting91/reddit-conversations/internal/store"
)

// Meta holds what every command shares.
type Meta struct {
	Ctx context.Context
	UI  cli.Ui
	Log *slog.Logger
	// Out receives report tables.
	Out io.Writer

	LoadConfig func() (*config.Config, error)
	OpenStore  func(context.Context, store.Options) (store.Store, error)
}

func (m *Meta) ctx() context.Context {
	if m.Ctx == nil {
		return context.Background()
	}
	return m.Ctx
}

func (m *Meta) out() io.Writer {
	if m.Out == nil {
		return os.Stdout
	}
	return m.Out
}

func (m *Meta) flagSet(name string) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	return f
}

// env is an open store plus the job dependencies built on it.
type env struct {
	cfg  *config.Config
	deps jobs.Deps
}

func (e *env) close() {
	if err := e.deps.Store.Close(); err != nil {
		e.deps.Log.Warn("close store", "error", err)
	}
}

// setup loads configuration and opens the store. Configuration errors are
// reported before any store access.
func (m *Meta) setup() (*env, bool) {
	load := m.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		m.fail("configuration error", err)
		return nil, false
	}

	open := m.OpenStore
	if open == nil {
		open = store.Open
	}
	st, err := open(m.ctx(), cfg.Store)
	if err != nil {
		m.fail("error opening store", err)
		return nil, false
	}

	mt := metrics.New()
	if cfg.MetricsAddr != "" {
		go m.serveMetrics(cfg.MetricsAddr, mt)
	}

	return &env{
		cfg: cfg,
		deps: jobs.Deps{
			Store:     st,
			Log:       m.logger(),
			Metrics:   mt,
			PageSize:  cfg.PageSize,
			BatchSize: cfg.BatchSize,
			Throttle:  cfg.CommitDelay,
		},
	}, true
}

func (m *Meta) logger() *slog.Logger {
	if m.Log == nil {
		return slog.Default()
	}
	return m.Log
}

func (m *Meta) serveMetrics(addr string, mt *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(mt.Registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		m.logger().Error("metrics server failed", "addr", addr, "error", err)
	}
}

// fail logs err once and shows it to the user.
func (m *Meta) fail(msg string, err error) int {
	m.logger().Error(msg, "error", err)
	m.UI.Error(fmt.Sprintf("%s: %v", msg, err))
	return 1
}

// summarize prints the job totals and its reports.
func (m *Meta) summarize(res *jobs.Result) {
	if res == nil {
		return
	}
	if res.DryRun {
		m.UI.Warn("DRY RUN mode enabled - no changes were made")
	}
	m.UI.Info(fmt.Sprintf("Scanned %d posts in %d pages; %d skipped; %d operations in %d batches (run %s)",
		res.Scanned, res.Pages, res.Skipped, res.Committed, res.Batches, res.RunID))
	if len(res.Reports) > 0 {
		if err := report.WriteTable(m.out(), res.Reports...); err != nil {
			m.logger().Warn("write report", "error", err)
		}
	}
}

func help(usage, body string, f *flag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Usage: postsctl " + usage + "\n\n  " + body + "\n")
	first := true
	f.VisitAll(func(fl *flag.Flag) {
		if first {
			b.WriteString("\nOptions:\n")
			first = false
		}
		fmt.Fprintf(&b, "\n  -%s\n      %s\n", fl.Name, fl.Usage)
	})
	return b.String()
}
