package dashboard

import (
	"errors"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"raydar-sim/internal/telemetry"
)

var palette = []color.RGBA{
	{R: 0x2e, G: 0xcc, B: 0x40, A: 0xff},
	{R: 0xff, G: 0x85, B: 0x1b, A: 0xff},
	{R: 0x00, G: 0x74, B: 0xd9, A: 0xff},
	{R: 0xb1, G: 0x0d, B: 0xc9, A: 0xff},
	{R: 0xff, G: 0x41, B: 0x36, A: 0xff},
	{R: 0x39, G: 0xcc, B: 0xcc, A: 0xff},
	{R: 0x85, G: 0x14, B: 0x4b, A: 0xff},
	{R: 0x3d, G: 0x99, B: 0x70, A: 0xff},
}

// PolarPoints converts detections to site-relative plan coordinates with
// north up, grouped by callsign.
func PolarPoints(rows []telemetry.DetectionRow) map[string]plotter.XYs {
	out := make(map[string]plotter.XYs)
	for _, r := range rows {
		rad := r.Bearing * math.Pi / 180
		out[r.Callsign] = append(out[r.Callsign], plotter.XY{
			X: r.Range * math.Cos(rad),
			Y: r.Range * math.Sin(rad),
		})
	}
	return out
}

// PlotDetections renders a plan-position plot of detections to path. The
// image format follows the file extension.
func PlotDetections(rows []telemetry.DetectionRow, path string) error {
	if len(rows) == 0 {
		return errors.New("no detections to plot")
	}
	groups := PolarPoints(rows)
	callsigns := make([]string, 0, len(groups))
	for c := range groups {
		callsigns = append(callsigns, c)
	}
	sort.Strings(callsigns)

	p := plot.New()
	p.Title.Text = "Detections (site " + rows[0].SiteID + ")"
	p.X.Label.Text = "East"
	p.Y.Label.Text = "North"
	p.Add(plotter.NewGrid())

	for i, c := range callsigns {
		s, err := plotter.NewScatter(groups[c])
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = palette[i%len(palette)]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(c, s)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
