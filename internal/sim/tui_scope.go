package sim

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"raydar-sim/internal/radar"
	"raydar-sim/internal/tracker"
)

var (
	scopeBright = lipgloss.Color("#00FF41")
	scopeMid    = lipgloss.Color("#008F11")
	scopeDim    = lipgloss.Color("#004A0A")

	styleScopeCenter = lipgloss.NewStyle().Foreground(scopeBright).Bold(true)
	styleScopeRing   = lipgloss.NewStyle().Foreground(scopeDim)
	styleScopeBeam   = lipgloss.NewStyle().Foreground(scopeBright)
	styleFanNear     = lipgloss.NewStyle().Foreground(scopeMid)
	styleFanFar      = lipgloss.NewStyle().Foreground(scopeDim)
	styleBlipHot     = lipgloss.NewStyle().Foreground(scopeBright).Bold(true)
	styleBlipWarm    = lipgloss.NewStyle().Foreground(scopeMid)
	styleBlipCold    = lipgloss.NewStyle().Foreground(scopeDim)
)

// scopeAspect compensates for terminal cells being about twice as tall as wide.
const scopeAspect = 0.5

const maxScopeLabel = 8

// fanSpan is the angle over which the trail behind the beam fades out.
const fanSpan = math.Pi

// scopeCell is one character of the scope grid before styling.
type scopeCell struct {
	ch    rune
	style *lipgloss.Style
}

// renderScope draws a plan position indicator of the given size: the fading
// trail behind the beam, range rings, the beam itself and every visible blip
// at its displayed position.
func renderScope(width, height int, view ScannerView, blips []tracker.Blip) string {
	if width < 10 || height < 5 || view.Radius <= 0 {
		return ""
	}
	cx, cy := width/2, height/2
	// Cell radius of the outer ring, horizontally.
	r := math.Min(float64(cx-1), float64(cy-1)/scopeAspect)
	if r < 3 {
		r = 3
	}

	grid := make([][]scopeCell, height)
	for y := range grid {
		grid[y] = make([]scopeCell, width)
		for x := range grid[y] {
			grid[y][x] = scopeCell{ch: ' '}
		}
	}
	set := func(col, row int, ch rune, st *lipgloss.Style) {
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = scopeCell{ch: ch, style: st}
		}
	}
	toCell := func(x, y float64) (int, int) {
		dx := (x - view.CenterX) / view.Radius * r
		dy := (y - view.CenterY) / view.Radius * r * scopeAspect
		return cx + int(math.Round(dx)), cy + int(math.Round(dy))
	}

	beam := math.Atan2(view.RayEndY-view.CenterY, view.RayEndX-view.CenterX)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			dx := float64(col-cx) / r
			dy := float64(row-cy) / (r * scopeAspect)
			if dx*dx+dy*dy > 1 || (dx == 0 && dy == 0) {
				continue
			}
			if ch, st, ok := fanCell(beam, math.Atan2(dy, dx)); ok {
				set(col, row, ch, st)
			}
		}
	}

	rings := view.RangeRings
	if rings <= 0 {
		rings = 1
	}
	for i := 1; i <= rings; i++ {
		rr := r * float64(i) / float64(rings)
		steps := int(2 * math.Pi * rr)
		for s := 0; s < steps; s++ {
			a := 2 * math.Pi * float64(s) / float64(steps)
			col := cx + int(math.Round(rr*math.Cos(a)))
			row := cy + int(math.Round(rr*math.Sin(a)*scopeAspect))
			set(col, row, '·', &styleScopeRing)
		}
	}

	// Beam, drawn from the ray end back toward the site.
	for s := 0.0; s <= 1; s += 1 / (2 * r) {
		x := view.CenterX + (view.RayEndX-view.CenterX)*s
		y := view.CenterY + (view.RayEndY-view.CenterY)*s
		col, row := toCell(x, y)
		set(col, row, '•', &styleScopeBeam)
	}
	set(cx, cy, '+', &styleScopeCenter)

	for _, b := range blips {
		if b.Opacity <= 0 {
			continue
		}
		col, row := toCell(b.Position.X, b.Position.Y)
		st := blipStyle(b.Opacity)
		set(col, row, '◆', st)
		label := []rune(b.Callsign)
		if len(label) > maxScopeLabel {
			label = label[:maxScopeLabel]
		}
		for i, ch := range label {
			set(col+2+i, row, ch, st)
		}
	}

	var sb strings.Builder
	for y, line := range grid {
		for _, c := range line {
			if c.style == nil {
				sb.WriteRune(c.ch)
				continue
			}
			sb.WriteString(c.style.Render(string(c.ch)))
		}
		if y < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// fanCell shades a cell at screen angle cell for a beam at screen angle beam.
// The beam turns toward increasing screen angles, so the trail lies at
// smaller ones and fades linearly to nothing half a turn back.
func fanCell(beam, cell float64) (rune, *lipgloss.Style, bool) {
	if radar.NormalizeAngle(beam-cell) > fanSpan {
		return 0, nil, false
	}
	intensity := 1 - radar.AngleDiff(beam, cell)/fanSpan
	switch {
	case intensity > 0.5:
		return '░', &styleFanNear, true
	case intensity > 0.1:
		return '.', &styleFanFar, true
	default:
		return 0, nil, false
	}
}

func blipStyle(opacity float64) *lipgloss.Style {
	switch {
	case opacity > 0.66:
		return &styleBlipHot
	case opacity > 0.33:
		return &styleBlipWarm
	default:
		return &styleBlipCold
	}
}
