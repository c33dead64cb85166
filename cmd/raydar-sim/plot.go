package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"raydar-sim/internal/dashboard"
	"raydar-sim/internal/sim"
	"raydar-sim/internal/store"
	"raydar-sim/internal/telemetry"
)

var (
	plotInput    string
	plotDB       string
	plotCallsign string
	plotOutput   string
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot recorded detections",
	Long: "plot renders detections from a JSONL log or a SQLite store as a plan-position image. " +
		"An .html output renders an interactive chart instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := loadDetections(cmd.Context())
		if err != nil {
			return err
		}
		if strings.EqualFold(filepath.Ext(plotOutput), ".html") {
			f, err := os.Create(plotOutput)
			if err != nil {
				return err
			}
			if err := dashboard.ChartDetections(rows, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		} else if err := dashboard.PlotDetections(rows, plotOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d detections to %s\n", len(rows), plotOutput)
		return nil
	},
}

func loadDetections(ctx context.Context) ([]telemetry.DetectionRow, error) {
	switch {
	case plotDB != "":
		st, err := store.Open(plotDB)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Detections(ctx, plotCallsign, 0)
	case plotInput != "":
		f, err := sim.OpenLog(plotInput)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := sim.ReadDetections(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", plotInput, err)
		}
		if plotCallsign == "" {
			return rows, nil
		}
		filtered := rows[:0]
		for _, r := range rows {
			if r.Callsign == plotCallsign {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	default:
		return nil, fmt.Errorf("one of --input or --db is required")
	}
}

func init() {
	plotCmd.Flags().StringVar(&plotInput, "input", "", "Path to detection log file (JSONL)")
	plotCmd.Flags().StringVar(&plotDB, "db", "", "Path to SQLite store written by simulate --db")
	plotCmd.Flags().StringVar(&plotCallsign, "callsign", "", "Only plot this target")
	plotCmd.Flags().StringVar(&plotOutput, "output", "detections.png", "Output path (.png, .svg, .pdf or .html)")
	plotCmd.MarkFlagsMutuallyExclusive("input", "db")
}
