package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"raydar-sim/internal/admin"
	"raydar-sim/internal/config"
	"raydar-sim/internal/logging"
	"raydar-sim/internal/scenario"
	"raydar-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simTUI        bool
	simAdmin      string
	simLogLevel   string
	simAppLog     string
	simScenario   string
	simDBPath     string
)

const defaultTUIAppLog = "raydar-sim.log"

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the real-time radar simulator",
	Long:  "simulate sweeps the radar over moving targets and emits blips, detections and scanner state.",
	RunE: func(cmd *cobra.Command, args []string) error {
		appLog := simAppLog
		if simTUI && appLog == "" {
			// The TUI owns the terminal.
			appLog = defaultTUIAppLog
		}
		logger, closer, err := logging.NewWithOptions(logging.Options{
			Level:      simLogLevel,
			File:       appLog,
			MaxSizeMB:  10,
			MaxBackups: 3,
		})
		if err != nil {
			return err
		}
		defer closer.Close()
		slog.SetDefault(logger)

		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("tick") {
			cfg.TickInterval = simTick
		}
		if err := applyEnv(cfg); err != nil {
			return err
		}

		sc, err := resolveScenario(cfg)
		if err != nil {
			return err
		}

		writer, detectWriter, cleanup, err := newWriters(cfg, writerOptions{
			PrintOnly: simPrintOnly,
			LogFile:   simLogFile,
			DBPath:    simDBPath,
			TUI:       simTUI,
		})
		if err != nil {
			return err
		}
		defer cleanup()

		simulator, err := sim.NewSimulator(cfg, writer, detectWriter, nil, nil)
		if err != nil {
			return err
		}
		if sc != nil {
			simulator.SetScenario(sc)
			logger.Info("scenario loaded", "name", sc.Name, "waves", len(sc.Waves), "targets", sc.Size())
		}
		simulator.AttachControls(writer)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, logger)
		g, ctx := errgroup.WithContext(ctx)

		if simAdmin != "" {
			srv := admin.NewServer(simulator)
			g.Go(func() error {
				if err := srv.Start(ctx, simAdmin); err != nil {
					return fmt.Errorf("admin server: %w", err)
				}
				return nil
			})
		}
		if as, ok := writer.(sim.AdminStatusWriter); ok {
			as.SetAdminStatus(simAdmin != "")
		}

		g.Go(func() error {
			simulator.Run(ctx)
			return nil
		})

		err = g.Wait()
		h := simulator.Health()
		logger.Info("radar simulation stopped", "elapsed_s", h.ElapsedSeconds,
			"targets", h.Targets, "detections", h.Detections)
		return err
	},
}

// applyEnv applies SITE_ID and TICK_INTERVAL overrides.
func applyEnv(cfg *config.SimulationConfig) error {
	if id := os.Getenv("SITE_ID"); id != "" {
		cfg.SiteID = id
	}
	if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
		d, err := time.ParseDuration(envTick)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid TICK_INTERVAL: %s must be positive", envTick)
		}
		cfg.TickInterval = d
	}
	return nil
}

// resolveScenario prefers the --scenario flag over the config file entry.
func resolveScenario(cfg *config.SimulationConfig) (*scenario.Scenario, error) {
	name := simScenario
	if name == "" {
		name = cfg.Scenario
	}
	if name == "" {
		return nil, nil
	}
	return scenario.Resolve(name)
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print rows to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file (empty to skip)")
	simulateCmd.Flags().DurationVar(&simTick, "tick", config.DefaultTickInterval, "Simulation tick interval (e.g. 16ms, 100ms)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export blip/detection/state logs (JSONL)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render the radar scope in the terminal")
	simulateCmd.Flags().StringVar(&simAdmin, "admin", "", "Admin HTTP listen address (e.g. :8080)")
	simulateCmd.Flags().StringVar(&simLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	simulateCmd.Flags().StringVar(&simAppLog, "app-log", "", "Write application logs to a rotating file")
	simulateCmd.Flags().StringVar(&simDBPath, "db", "", "Store detections and scanner state in a SQLite database")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or scenario YAML path")
}
