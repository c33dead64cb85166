package main

import (
	"os"

	"golang.org/x/term"

	"raydar-sim/internal/config"
	"raydar-sim/internal/sim"
	"raydar-sim/internal/store"
)

// writerOptions selects the sinks a run writes to.
type writerOptions struct {
	PrintOnly bool
	LogFile   string // JSONL export, zstd-compressed when it ends in .zst
	DBPath    string // SQLite detection and state store
	TUI       bool
}

// newWriters sets up blip, detection and state writers based on flags and
// env vars. It returns the writers and a cleanup function to close any
// resources.
func newWriters(cfg *config.SimulationConfig, o writerOptions) (sim.TelemetryWriter, sim.DetectionWriter, func(), error) {
	writer, detectWriter, err := baseWriters(cfg, o.PrintOnly, o.TUI)
	if err != nil {
		return nil, nil, nil, err
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if tw, ok := writer.(*sim.TUIWriter); ok {
		closers = append(closers, func() { tw.Close() })
	}
	if o.LogFile == "" && o.DBPath == "" {
		return writer, detectWriter, cleanup, nil
	}

	tws := []sim.TelemetryWriter{writer}
	dws := []sim.DetectionWriter{detectWriter}
	sws := []sim.StateWriter{}
	if sw, ok := writer.(sim.StateWriter); ok {
		sws = append(sws, sw)
	}
	if o.LogFile != "" {
		fw, err := sim.NewFileWriter(o.LogFile, sim.LogPath(o.LogFile, "detections"), sim.LogPath(o.LogFile, "state"))
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { fw.Close() })
		tws = append(tws, fw)
		dws = append(dws, fw)
		sws = append(sws, fw)
	}
	if o.DBPath != "" {
		st, err := store.Open(o.DBPath)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		closers = append(closers, func() { st.Close() })
		dws = append(dws, st)
		sws = append(sws, st)
	}
	mw := sim.NewMultiWriter(tws, dws, sws)
	return mw, mw, cleanup, nil
}

// baseWriters chooses the underlying writer: the TUI, GreptimeDB when an
// endpoint is configured, or STDOUT.
func baseWriters(cfg *config.SimulationConfig, printOnly, useTUI bool) (sim.TelemetryWriter, sim.DetectionWriter, error) {
	if useTUI {
		w := sim.NewTUIWriter(cfg)
		return w, w, nil
	}
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			w := sim.NewStdoutWriter(cfg, true)
			return w, w, nil
		}
		w := sim.NewJSONStdoutWriter()
		return w, w, nil
	}

	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	w, err := sim.NewGreptimeDBWriter(
		os.Getenv("GREPTIMEDB_ENDPOINT"),
		database,
		os.Getenv("GREPTIMEDB_TABLE"),
		os.Getenv("GREPTIMEDB_DETECTION_TABLE"),
		os.Getenv("GREPTIMEDB_STATE_TABLE"),
	)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// newTelemetryWriter creates a blip writer without log export.
func newTelemetryWriter(cfg *config.SimulationConfig, printOnly bool) (sim.TelemetryWriter, error) {
	w, _, _, err := newWriters(cfg, writerOptions{PrintOnly: printOnly})
	return w, err
}
