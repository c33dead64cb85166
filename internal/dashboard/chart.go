package dashboard

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"raydar-sim/internal/telemetry"
)

// ChartDetections renders detections as an interactive HTML scatter chart,
// one series per callsign, in the same north-up frame as PlotDetections.
func ChartDetections(rows []telemetry.DetectionRow, w io.Writer) error {
	if len(rows) == 0 {
		return errors.New("no detections to chart")
	}
	groups := PolarPoints(rows)
	callsigns := make([]string, 0, len(groups))
	maxRange := 0.0
	for c := range groups {
		callsigns = append(callsigns, c)
	}
	for _, r := range rows {
		maxRange = math.Max(maxRange, r.Range)
	}
	sort.Strings(callsigns)
	pad := math.Ceil(maxRange*1.1/10) * 10

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Radar Detections", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radar Detections", Subtitle: fmt.Sprintf("site=%s detections=%d targets=%d", rows[0].SiteID, len(rows), len(callsigns))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "East", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "North", NameLocation: "middle", NameGap: 30}),
	)
	for _, c := range callsigns {
		pts := groups[c]
		data := make([]opts.ScatterData, 0, len(pts))
		for _, p := range pts {
			data = append(data, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
		scatter.AddSeries(c, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	return scatter.Render(w)
}
