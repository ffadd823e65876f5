package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// WriteTable prints each report as an aligned two-column table.
func WriteTable(w io.Writer, reports ...*Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d total)\n", r.Name, r.Total())
		fmt.Fprintf(tw, "%s\t%s\n", strings.Join(r.Dimensions, " / "), "count")
		if r.Len() == 0 {
			fmt.Fprintln(tw, "(none)\t")
		}
		for _, e := range r.Summary() {
			fmt.Fprintf(tw, "%s\t%d\n", display(e), e.Count)
		}
	}
	return tw.Flush()
}

// WriteChart renders the reports as an HTML page: the first report as a pie,
// the rest as bar charts of their top entries.
func WriteChart(w io.Writer, reports ...*Report) error {
	page := components.NewPage()
	page.PageTitle = "Reddit Conversations"

	for i, r := range reports {
		if i == 0 {
			page.AddCharts(pieChart(r))
			continue
		}
		page.AddCharts(barChart(r, 25))
	}
	return page.Render(w)
}

func pieChart(r *Report) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: r.Name}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	var items []opts.PieData
	for _, e := range r.Summary() {
		items = append(items, opts.PieData{Name: display(e), Value: e.Count})
	}
	pie.AddSeries(r.Name, items)
	return pie
}

func barChart(r *Report, top int) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: r.Name}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	var x []string
	var y []opts.BarData
	for _, e := range r.Top(top) {
		x = append(x, display(e))
		y = append(y, opts.BarData{Value: e.Count})
	}
	bar.SetXAxis(x).AddSeries("Posts", y)
	return bar
}

func display(e Entry) string {
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		if v == "" {
			v = "(missing)"
		}
		vals[i] = v
	}
	return strings.Join(vals, " / ")
}
