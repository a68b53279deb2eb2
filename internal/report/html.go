package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/fsutil"
)

// AssetsHost is where the rendered page loads the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderHTML writes a single page with a rates chart over all
// associators followed by per-associator quality histograms.
func RenderHTML(w io.Writer, accs []*Accumulator) error {
	page := components.NewPage()
	page.SetPageTitle("Track association report")
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(ratesChart(accs))

	for _, a := range accs {
		if c := qualityChart(a); c != nil {
			page.AddCharts(c)
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

// WriteHTML renders the report page to path on fsys. Nothing is written
// if rendering fails.
func WriteHTML(fsys fsutil.FileSystem, path string, accs []*Accumulator) error {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, accs); err != nil {
		return err
	}
	return fsutil.WriteTo(fsys, path, &buf)
}

func ratesChart(accs []*Accumulator) *charts.Bar {
	names := make([]string, 0, len(accs))
	eff := make([]opts.BarData, 0, len(accs))
	fake := make([]opts.BarData, 0, len(accs))
	dup := make([]opts.BarData, 0, len(accs))
	events := 0
	for _, a := range accs {
		s := a.Summary()
		names = append(names, s.Associator)
		eff = append(eff, opts.BarData{Value: s.Efficiency})
		fake = append(fake, opts.BarData{Value: s.FakeRate})
		dup = append(dup, opts.BarData{Value: s.DuplicateRate})
		if s.Events > events {
			events = s.Events
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Association rates", Subtitle: fmt.Sprintf("events=%d", events)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(names).
		AddSeries("efficiency", eff).
		AddSeries("fake rate", fake).
		AddSeries("duplicate rate", dup)
	return bar
}

func qualityChart(a *Accumulator) *charts.Bar {
	values := a.RecoToSimQualities()
	if len(values) == 0 {
		return nil
	}
	edges, counts := Histogram(values, DefaultBins)

	x := make([]string, len(edges))
	y := make([]opts.BarData, len(counts))
	for i := range edges {
		x[i] = fmt.Sprintf("%.3g", edges[i])
		y[i] = opts.BarData{Value: counts[i]}
	}

	st := Describe(values)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s reco-to-sim %s", a.Associator(), qualityLabel(a.Associator())),
			Subtitle: fmt.Sprintf("links=%d mean=%.4g std=%.4g", st.N, st.Mean, st.StdDev),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("links", y)
	return bar
}
