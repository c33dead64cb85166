// Writer implementation printing blips, detections and scanner state to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"raydar-sim/internal/config"
	"raydar-sim/internal/telemetry"
	"raydar-sim/internal/tracker"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

func colorWhite() string { return "\x1b[37m" }

// StdoutWriter prints rows to STDOUT, colorized for terminals and as JSON
// lines otherwise.
type StdoutWriter struct {
	cfg      *config.SimulationConfig
	out      io.Writer
	colorize bool
	once     sync.Once
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.SimulationConfig, colorize bool) *StdoutWriter {
	return &StdoutWriter{cfg: cfg, out: os.Stdout, colorize: colorize}
}

func stateColor(state string) string {
	switch tracker.State(state) {
	case tracker.StateDetected:
		return colorGreen
	case tracker.StateFading:
		return colorYellow
	default:
		return colorGray
	}
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	r := w.cfg.Radar
	fmt.Fprintln(w.out, "Radar Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Site:\t%s\n", w.cfg.SiteID)
	fmt.Fprintf(tw, "RPM:\t%.2f\n", r.RPM)
	fmt.Fprintf(tw, "Radius:\t%.0f\n", r.Radius)
	fmt.Fprintf(tw, "Center:\t(%.0f, %.0f)\n", r.CenterX, r.CenterY)
	fmt.Fprintf(tw, "Detection Radius:\t%.0f\n", r.DetectionRadius)
	fmt.Fprintf(tw, "Fade Rate:\t%.2f/s\n", r.FadeRate)
	fmt.Fprintf(tw, "Debounce:\t%.2f rev\n", r.DebounceFraction)
	fmt.Fprintf(tw, "Capacity:\t%d\n", w.cfg.Targets.Capacity)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func (w *StdoutWriter) emitJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a single blip row.
func (w *StdoutWriter) Write(row telemetry.BlipRow) error {
	if !w.colorize {
		return w.emitJSON(row)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sBLIP%s %s%-8s%s %spos=(%.1f,%.1f)%s %strue=(%.1f,%.1f)%s %shdg=%.0f%s %sopacity=%.2f%s %s%s%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset,
		colorWhite(), row.Callsign, colorReset,
		colorGreen, row.X, row.Y, colorReset,
		colorGray, row.TrueX, row.TrueY, colorReset,
		colorCyan, row.Heading, colorReset,
		colorMagenta, row.Opacity, colorReset,
		stateColor(row.State), row.State, colorReset)
	return nil
}

// WriteBatch outputs multiple blip rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.BlipRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetection prints a detection event.
func (w *StdoutWriter) WriteDetection(d telemetry.DetectionRow) error {
	if !w.colorize {
		return w.emitJSON(d)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintln(w.out, formatDetection(d))
	return nil
}

// WriteDetections prints multiple detections.
func (w *StdoutWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, d := range rows {
		if err := w.WriteDetection(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteState prints scanner state.
func (w *StdoutWriter) WriteState(row telemetry.ScannerStateRow) error {
	if !w.colorize {
		return w.emitJSON(row)
	}
	w.once.Do(w.printOverview)
	fmt.Fprintf(w.out, "%s[%s]%s %sSCAN%s angle=%05.1f radius=%.0f targets=%d visible=%d detections=%d t=%.1fs\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, colorReset,
		row.AngleDeg, row.Radius, row.Targets, row.Visible, row.Detections, row.SimTime)
	return nil
}

// WriteStates prints multiple scanner state rows.
func (w *StdoutWriter) WriteStates(rows []telemetry.ScannerStateRow) error {
	for _, r := range rows {
		if err := w.WriteState(r); err != nil {
			return err
		}
	}
	return nil
}
